package plan

import (
	ierr "github.com/amshq/amscore/internal/errors"
)

// NewNotFoundError creates a not found error for a plan id
func NewNotFoundError(id string) error {
	return ierr.NewError("plan not found").
		WithHintf("Plan %s was not found", id).
		WithReportableDetails(map[string]any{
			"plan_id": id,
		}).
		Mark(ierr.ErrNotFound)
}
