package types

import (
	"github.com/samber/lo"

	ierr "github.com/amshq/amscore/internal/errors"
)

// RecognitionEntryState is the state of a revenue recognition entry
type RecognitionEntryState string

const (
	// RecognitionEntryStateScheduled indicates revenue not yet earned
	RecognitionEntryStateScheduled RecognitionEntryState = "scheduled"

	// RecognitionEntryStateProcessed indicates revenue recognized and
	// posted to the ledger
	RecognitionEntryStateProcessed RecognitionEntryState = "processed"

	// RecognitionEntryStateCancelled indicates an entry voided before
	// recognition; retained for audit
	RecognitionEntryStateCancelled RecognitionEntryState = "cancelled"
)

func (s RecognitionEntryState) String() string {
	return string(s)
}

func (s RecognitionEntryState) Validate() error {
	allowed := []RecognitionEntryState{
		RecognitionEntryStateScheduled,
		RecognitionEntryStateProcessed,
		RecognitionEntryStateCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid recognition entry state").
			WithHint("Invalid recognition entry state").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
