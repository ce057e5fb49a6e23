package jobs

import (
	"context"
	"time"

	"github.com/amshq/amscore/internal/service"
)

// SweepReport aggregates the outcome of one full sweep run
type SweepReport struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`

	LifecycleSuccess int `json:"lifecycle_success"`
	LifecycleFailed  int `json:"lifecycle_failed"`

	RenewalSuccess int `json:"renewal_success"`
	RenewalSkipped int `json:"renewal_skipped"`
	RenewalFailed  int `json:"renewal_failed"`

	RecognitionSuccess int `json:"recognition_success"`
	RecognitionFailed  int `json:"recognition_failed"`
}

// Sweeper is the cron entry point: it advances lifecycle states,
// renews due instances and recognizes due revenue in that order, so a
// renewal this run can be recognized in the same run. Each phase
// isolates its own per-record failures; a phase-level error aborts the
// run and is returned.
type Sweeper struct {
	lifecycle service.LifecycleService
	renewal   service.RenewalService
	revenue   service.RevenueRecognitionService
	params    service.ServiceParams
}

// NewSweeper creates a sweeper over the given service dependencies
func NewSweeper(params service.ServiceParams) *Sweeper {
	return &Sweeper{
		lifecycle: service.NewLifecycleService(params),
		renewal:   service.NewRenewalService(params),
		revenue:   service.NewRevenueRecognitionService(params),
		params:    params,
	}
}

// Run executes the three sweeps as of the given date
func (s *Sweeper) Run(ctx context.Context, asOf time.Time) (*SweepReport, error) {
	report := &SweepReport{StartAt: time.Now().UTC()}

	s.params.Logger.Infow("starting sweep run", "as_of", asOf)

	lifecycleResp, err := s.lifecycle.SweepLifecycleStates(ctx, asOf)
	if err != nil {
		return report, err
	}
	report.LifecycleSuccess = lifecycleResp.TotalSuccess
	report.LifecycleFailed = lifecycleResp.TotalFailed

	renewalResp, err := s.renewal.SweepDueRenewals(ctx, asOf)
	if err != nil {
		return report, err
	}
	report.RenewalSuccess = renewalResp.TotalSuccess
	report.RenewalSkipped = renewalResp.TotalSkipped
	report.RenewalFailed = renewalResp.TotalFailed

	recognitionResp, err := s.revenue.SweepDueRecognitions(ctx, asOf)
	if err != nil {
		return report, err
	}
	report.RecognitionSuccess = recognitionResp.TotalSuccess
	report.RecognitionFailed = recognitionResp.TotalFailed

	report.EndAt = time.Now().UTC()

	s.params.Logger.Infow("completed sweep run",
		"lifecycle_success", report.LifecycleSuccess,
		"lifecycle_failed", report.LifecycleFailed,
		"renewal_success", report.RenewalSuccess,
		"renewal_skipped", report.RenewalSkipped,
		"renewal_failed", report.RenewalFailed,
		"recognition_success", report.RecognitionSuccess,
		"recognition_failed", report.RecognitionFailed)

	return report, nil
}
