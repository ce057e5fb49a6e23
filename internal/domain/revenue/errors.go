package revenue

import (
	ierr "github.com/amshq/amscore/internal/errors"
	"github.com/amshq/amscore/internal/types"
)

// NewNotFoundError creates a not found error for an entry id
func NewNotFoundError(id string) error {
	return ierr.NewError("recognition entry not found").
		WithHintf("Recognition entry %s was not found", id).
		WithReportableDetails(map[string]any{
			"entry_id": id,
		}).
		Mark(ierr.ErrNotFound)
}

// NewInvalidEntryStateError signals an operation attempted on an entry
// in the wrong state, e.g. recognizing an already processed entry
func NewInvalidEntryStateError(id string, state types.RecognitionEntryState, operation string) error {
	return ierr.NewError("invalid recognition entry state").
		WithHintf("Cannot %s an entry in state %s", operation, state).
		WithReportableDetails(map[string]any{
			"entry_id":  id,
			"state":     state,
			"operation": operation,
		}).
		Mark(ierr.ErrInvalidState)
}
