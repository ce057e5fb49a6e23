package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amshq/amscore/internal/api/dto"
	"github.com/amshq/amscore/internal/domain/audit"
	"github.com/amshq/amscore/internal/domain/ledger"
	"github.com/amshq/amscore/internal/domain/membership"
	"github.com/amshq/amscore/internal/domain/revenue"
	ierr "github.com/amshq/amscore/internal/errors"
	"github.com/amshq/amscore/internal/types"
)

// RevenueRecognitionService schedules collected payments into dated
// recognition entries and posts them to the ledger as they fall due.
// Processed entries are immutable; corrections go through Reverse or
// Adjust, which retain the original entry for audit.
type RevenueRecognitionService interface {
	BuildSchedule(ctx context.Context, m *membership.Membership, amount decimal.Decimal, periods int) ([]*revenue.RecognitionEntry, error)
	GetEntry(ctx context.Context, id string) (*revenue.RecognitionEntry, error)
	ListSchedule(ctx context.Context, membershipID string) ([]*revenue.RecognitionEntry, error)

	Recognize(ctx context.Context, entryID string) (*revenue.RecognitionEntry, error)
	Reverse(ctx context.Context, entryID string, reason string) (*revenue.RecognitionEntry, error)
	Adjust(ctx context.Context, entryID string, req dto.AdjustEntryRequest) (*revenue.RecognitionEntry, error)

	// SweepDueRecognitions recognizes every scheduled entry due as of
	// asOf. Failures are isolated per entry.
	SweepDueRecognitions(ctx context.Context, asOf time.Time) (*dto.RecognitionSweepResponse, error)
}

type revenueRecognitionService struct {
	serviceParams ServiceParams
}

// NewRevenueRecognitionService creates a new revenue recognition service
func NewRevenueRecognitionService(serviceParams ServiceParams) RevenueRecognitionService {
	return &revenueRecognitionService{serviceParams: serviceParams}
}

// BuildSchedule splits amount into one scheduled entry per month
// starting a month after the instance's start date. Per-entry amounts
// are rounded down to cents and the remainder lands on the final entry
// so the schedule always sums to the collected amount exactly.
func (s *revenueRecognitionService) BuildSchedule(ctx context.Context, m *membership.Membership, amount decimal.Decimal, periods int) ([]*revenue.RecognitionEntry, error) {
	if periods <= 0 {
		return nil, ierr.NewError("invalid schedule length").
			WithHintf("Schedule must have at least one period, got %d", periods).
			Mark(ierr.ErrValidation)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ierr.NewError("invalid schedule amount").
			WithHint("Schedule amount must be positive").
			WithReportableDetails(map[string]any{
				"amount": amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	base := amount.DivRound(decimal.NewFromInt(int64(periods)), 8).RoundDown(2)

	entries := make([]*revenue.RecognitionEntry, 0, periods)
	for i := 0; i < periods; i++ {
		entryAmount := base
		if i == periods-1 {
			entryAmount = amount.Sub(base.Mul(decimal.NewFromInt(int64(periods - 1))))
		}

		entries = append(entries, &revenue.RecognitionEntry{
			ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RECOGNITION_ENTRY),
			MembershipID:    m.ID,
			RecognitionDate: types.AddClampedDate(m.StartDate, 0, i+1, 0),
			Amount:          entryAmount,
			Currency:        m.Currency,
			State:           types.RecognitionEntryStateScheduled,
			BaseModel:       types.GetDefaultBaseModel(ctx),
		})
	}

	if err := s.serviceParams.RevenueRepo.CreateBulk(ctx, entries); err != nil {
		return nil, err
	}

	s.serviceParams.Logger.Infow("built recognition schedule",
		"membership_id", m.ID,
		"amount", amount,
		"periods", periods)

	return entries, nil
}

func (s *revenueRecognitionService) GetEntry(ctx context.Context, id string) (*revenue.RecognitionEntry, error) {
	return s.serviceParams.RevenueRepo.Get(ctx, id)
}

func (s *revenueRecognitionService) ListSchedule(ctx context.Context, membershipID string) ([]*revenue.RecognitionEntry, error) {
	return s.serviceParams.RevenueRepo.ListByMembership(ctx, membershipID)
}

// Recognize posts a scheduled entry to the ledger and marks it
// processed. The posting happens first; a posting failure leaves the
// entry scheduled for the next sweep.
func (s *revenueRecognitionService) Recognize(ctx context.Context, entryID string) (*revenue.RecognitionEntry, error) {
	entry, err := s.serviceParams.RevenueRepo.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if entry.State != types.RecognitionEntryStateScheduled {
		return nil, revenue.NewInvalidEntryStateError(entry.ID, entry.State, "recognize")
	}

	if err := s.checkRecognizedTotal(ctx, entry); err != nil {
		return nil, err
	}

	postingID, err := s.serviceParams.Ledger.PostRecognition(ctx, ledger.Posting{
		EntryID:      entry.ID,
		MembershipID: entry.MembershipID,
		Amount:       entry.Amount,
		Currency:     entry.Currency,
		PostedAt:     time.Now().UTC(),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Ledger posting failed; the entry remains scheduled").
			WithReportableDetails(map[string]any{
				"entry_id": entry.ID,
			}).
			Mark(ierr.ErrCollaborator)
	}

	entry.State = types.RecognitionEntryStateProcessed
	entry.PostingID = &postingID
	entry.Touch(ctx)

	if err := s.serviceParams.RevenueRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	recordAuditQuietly(ctx, s.serviceParams, audit.Event{
		EntityType: audit.EntityTypeRecognitionEntry,
		EntityID:   entry.ID,
		Action:     audit.ActionRecognized,
		Details: map[string]any{
			"membership_id": entry.MembershipID,
			"amount":        entry.Amount.String(),
			"posting_id":    postingID,
		},
	})

	return entry, nil
}

// Reverse negates a processed entry by creating a linked adjustment
// entry with the opposite amount, posted as a reversal. Both entries
// are retained.
func (s *revenueRecognitionService) Reverse(ctx context.Context, entryID string, reason string) (*revenue.RecognitionEntry, error) {
	entry, err := s.serviceParams.RevenueRepo.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if entry.State != types.RecognitionEntryStateProcessed {
		return nil, revenue.NewInvalidEntryStateError(entry.ID, entry.State, "reverse")
	}

	reversal := &revenue.RecognitionEntry{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RECOGNITION_ENTRY),
		MembershipID:    entry.MembershipID,
		RecognitionDate: time.Now().UTC(),
		Amount:          entry.Amount.Neg(),
		Currency:        entry.Currency,
		State:           types.RecognitionEntryStateScheduled,
		IsAdjustment:    true,
		OriginalEntryID: &entry.ID,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}

	postingID, err := s.serviceParams.Ledger.PostReversal(ctx, ledger.Posting{
		EntryID:      reversal.ID,
		MembershipID: reversal.MembershipID,
		Amount:       reversal.Amount,
		Currency:     reversal.Currency,
		PostedAt:     time.Now().UTC(),
		Memo:         reason,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Ledger reversal failed; no reversal entry was created").
			WithReportableDetails(map[string]any{
				"entry_id": entry.ID,
			}).
			Mark(ierr.ErrCollaborator)
	}

	reversal.State = types.RecognitionEntryStateProcessed
	reversal.PostingID = &postingID

	if err := s.serviceParams.RevenueRepo.Create(ctx, reversal); err != nil {
		return nil, err
	}

	recordAuditQuietly(ctx, s.serviceParams, audit.Event{
		EntityType: audit.EntityTypeRecognitionEntry,
		EntityID:   entry.ID,
		Action:     audit.ActionReversed,
		Details: map[string]any{
			"reversal_entry_id": reversal.ID,
			"amount":            reversal.Amount.String(),
			"reason":            reason,
		},
	})

	s.serviceParams.Logger.Infow("reversed recognition entry",
		"entry_id", entry.ID,
		"reversal_entry_id", reversal.ID,
		"amount", reversal.Amount)

	return reversal, nil
}

// Adjust changes the amount or date of an entry. Scheduled entries are
// edited in place; processed entries are reversed and replaced by a
// new scheduled entry. Changes whose amount delta exceeds the
// materiality threshold must arrive pre-approved.
func (s *revenueRecognitionService) Adjust(ctx context.Context, entryID string, req dto.AdjustEntryRequest) (*revenue.RecognitionEntry, error) {
	entry, err := s.serviceParams.RevenueRepo.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if req.NewAmount == nil && req.NewDate == nil {
		return nil, ierr.NewError("empty adjustment").
			WithHint("An adjustment must change the amount or the date").
			Mark(ierr.ErrValidation)
	}

	if req.NewAmount != nil {
		delta := req.NewAmount.Sub(entry.Amount).Abs()
		threshold := s.serviceParams.Config.Recognition.MaterialityThreshold
		if delta.GreaterThan(threshold) && !req.Approved {
			return nil, ierr.NewError("adjustment requires approval").
				WithHintf("Amount change of %s exceeds the materiality threshold of %s", delta, threshold).
				WithReportableDetails(map[string]any{
					"entry_id":  entry.ID,
					"delta":     delta.String(),
					"threshold": threshold.String(),
				}).
				Mark(ierr.ErrApprovalRequired)
		}
	}

	switch entry.State {
	case types.RecognitionEntryStateScheduled:
		return s.adjustScheduled(ctx, entry, req)
	case types.RecognitionEntryStateProcessed:
		return s.adjustProcessed(ctx, entry, req)
	default:
		return nil, revenue.NewInvalidEntryStateError(entry.ID, entry.State, "adjust")
	}
}

func (s *revenueRecognitionService) adjustScheduled(ctx context.Context, entry *revenue.RecognitionEntry, req dto.AdjustEntryRequest) (*revenue.RecognitionEntry, error) {
	before := map[string]any{
		"amount":           entry.Amount.String(),
		"recognition_date": entry.RecognitionDate,
	}

	if req.NewAmount != nil {
		entry.Amount = *req.NewAmount
	}
	if req.NewDate != nil {
		entry.RecognitionDate = *req.NewDate
	}
	entry.Touch(ctx)

	if err := s.serviceParams.RevenueRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	recordAuditQuietly(ctx, s.serviceParams, audit.Event{
		EntityType: audit.EntityTypeRecognitionEntry,
		EntityID:   entry.ID,
		Action:     audit.ActionAdjusted,
		Before:     before,
		Details: map[string]any{
			"reason": req.Reason,
		},
		After: map[string]any{
			"amount":           entry.Amount.String(),
			"recognition_date": entry.RecognitionDate,
		},
	})

	return entry, nil
}

// adjustProcessed reverses the processed entry and schedules a
// replacement carrying the adjusted values
func (s *revenueRecognitionService) adjustProcessed(ctx context.Context, entry *revenue.RecognitionEntry, req dto.AdjustEntryRequest) (*revenue.RecognitionEntry, error) {
	if _, err := s.Reverse(ctx, entry.ID, req.Reason); err != nil {
		return nil, err
	}

	replacement := &revenue.RecognitionEntry{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RECOGNITION_ENTRY),
		MembershipID:    entry.MembershipID,
		RecognitionDate: entry.RecognitionDate,
		Amount:          entry.Amount,
		Currency:        entry.Currency,
		State:           types.RecognitionEntryStateScheduled,
		IsAdjustment:    true,
		OriginalEntryID: &entry.ID,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	if req.NewAmount != nil {
		replacement.Amount = *req.NewAmount
	}
	if req.NewDate != nil {
		replacement.RecognitionDate = *req.NewDate
	}

	if err := s.serviceParams.RevenueRepo.Create(ctx, replacement); err != nil {
		return nil, err
	}

	recordAuditQuietly(ctx, s.serviceParams, audit.Event{
		EntityType: audit.EntityTypeRecognitionEntry,
		EntityID:   entry.ID,
		Action:     audit.ActionAdjusted,
		Details: map[string]any{
			"replacement_entry_id": replacement.ID,
			"reason":               req.Reason,
		},
	})

	return replacement, nil
}

// SweepDueRecognitions recognizes every entry due as of asOf,
// isolating failures so one bad entry never blocks the rest of the run.
func (s *revenueRecognitionService) SweepDueRecognitions(ctx context.Context, asOf time.Time) (*dto.RecognitionSweepResponse, error) {
	response := &dto.RecognitionSweepResponse{
		Items:   make([]*dto.RecognitionSweepResponseItem, 0),
		StartAt: time.Now().UTC(),
	}

	s.serviceParams.Logger.Infow("starting recognition sweep", "as_of", asOf)

	due, err := s.serviceParams.RevenueRepo.ListDue(ctx, asOf)
	if err != nil {
		return response, err
	}

	for _, entry := range due {
		item := &dto.RecognitionSweepResponseItem{
			EntryID:      entry.ID,
			MembershipID: entry.MembershipID,
			Amount:       entry.Amount,
		}

		if _, err := s.Recognize(ctx, entry.ID); err != nil {
			s.serviceParams.Logger.Errorw("failed to recognize entry",
				"entry_id", entry.ID,
				"membership_id", entry.MembershipID,
				"error", err)
			item.Error = err.Error()
			response.TotalFailed++
		} else {
			item.Success = true
			response.TotalSuccess++
		}

		response.Items = append(response.Items, item)
	}

	s.serviceParams.Logger.Infow("completed recognition sweep",
		"total", len(response.Items),
		"success", response.TotalSuccess,
		"failed", response.TotalFailed)

	return response, nil
}

// checkRecognizedTotal guards the over-recognition invariant: the sum
// of processed non-adjustment entries plus the candidate entry must
// not exceed the amount collected for the instance.
func (s *revenueRecognitionService) checkRecognizedTotal(ctx context.Context, candidate *revenue.RecognitionEntry) error {
	if candidate.IsAdjustment {
		return nil
	}

	m, err := s.serviceParams.MembershipRepo.Get(ctx, candidate.MembershipID)
	if err != nil {
		return err
	}

	entries, err := s.serviceParams.RevenueRepo.ListByMembership(ctx, candidate.MembershipID)
	if err != nil {
		return err
	}

	recognized := decimal.Zero
	for _, e := range entries {
		if e.State == types.RecognitionEntryStateProcessed && !e.IsAdjustment {
			recognized = recognized.Add(e.Amount)
		}
	}

	if recognized.Add(candidate.Amount).GreaterThan(m.AmountPaid) {
		return ierr.NewError("recognition exceeds collected amount").
			WithHintf("Recognizing %s would push recognized revenue past the %s collected", candidate.Amount, m.AmountPaid).
			WithReportableDetails(map[string]any{
				"entry_id":           candidate.ID,
				"membership_id":      m.ID,
				"already_recognized": recognized.String(),
				"amount_paid":        m.AmountPaid.String(),
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}
