package types

import (
	"github.com/samber/lo"

	ierr "github.com/amshq/amscore/internal/errors"
)

// ProrationAction defines the type of change triggering proration.
type ProrationAction string

const (
	ProrationActionMidPeriodStart ProrationAction = "mid_period_start"
	ProrationActionUpgrade        ProrationAction = "upgrade"
	ProrationActionDowngrade      ProrationAction = "downgrade"
	ProrationActionCancellation   ProrationAction = "cancellation"
)

var ProrationActionValues = []ProrationAction{
	ProrationActionMidPeriodStart,
	ProrationActionUpgrade,
	ProrationActionDowngrade,
	ProrationActionCancellation,
}

func (a ProrationAction) String() string {
	return string(a)
}

func (a ProrationAction) Validate() error {
	if !lo.Contains(ProrationActionValues, a) {
		return ierr.NewError("invalid proration action").
			WithHint("Proration action must be mid_period_start, upgrade, downgrade or cancellation").
			WithReportableDetails(map[string]any{
				"allowed_values": ProrationActionValues,
				"provided_value": a,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ChangeAlignment determines how a plan change prices the new period.
type ChangeAlignment string

const (
	// AlignCurrentPeriod prices the new plan prorated to end at the
	// same end date as the original instance
	AlignCurrentPeriod ChangeAlignment = "current_period"

	// AlignFreshPeriod prices a full new period starting at the
	// effective date
	AlignFreshPeriod ChangeAlignment = "fresh_period"
)

var ChangeAlignmentValues = []ChangeAlignment{
	AlignCurrentPeriod,
	AlignFreshPeriod,
}

func (c ChangeAlignment) String() string {
	return string(c)
}

func (c ChangeAlignment) Validate() error {
	if !lo.Contains(ChangeAlignmentValues, c) {
		return ierr.NewError("invalid change alignment").
			WithHint("Change alignment must be current_period or fresh_period").
			WithReportableDetails(map[string]any{
				"allowed_values": ChangeAlignmentValues,
				"provided_value": c,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
