package membership

import (
	ierr "github.com/amshq/amscore/internal/errors"
	"github.com/amshq/amscore/internal/types"
)

// Error codes specific to the membership domain
const (
	ErrCodeDuplicateActiveMembership = "duplicate_active_membership"
	ErrCodeNotRenewable              = "membership_not_renewable"
)

// Domain sentinels callers can match with errors.Is
var (
	ErrDuplicateActiveMembership = &ierr.InternalError{
		Code:    ErrCodeDuplicateActiveMembership,
		Message: "holder already has an active membership in this category",
	}
	ErrNotRenewable = &ierr.InternalError{
		Code:    ErrCodeNotRenewable,
		Message: "membership is not eligible for renewal",
	}
)

// NewNotFoundError creates a not found error for a membership id
func NewNotFoundError(id string) error {
	return ierr.NewError("membership not found").
		WithHintf("Membership %s was not found", id).
		WithReportableDetails(map[string]any{
			"membership_id": id,
		}).
		Mark(ierr.ErrNotFound)
}

// NewDuplicateActiveMembershipError signals the single active parent
// membership invariant was violated
func NewDuplicateActiveMembershipError(holderID string, category types.MembershipCategory) error {
	return ierr.NewError("duplicate active membership").
		WithHintf("Holder already has an active or grace %s membership", category).
		WithReportableDetails(map[string]any{
			"holder_id": holderID,
			"category":  category,
		}).
		Mark(ErrDuplicateActiveMembership)
}

// NewInvalidStateError signals an operation attempted from a state the
// lifecycle table does not allow
func NewInvalidStateError(id string, from, to types.MembershipState) error {
	return ierr.NewError("invalid membership state transition").
		WithHintf("Cannot move membership from %s to %s", from, to).
		WithReportableDetails(map[string]any{
			"membership_id": id,
			"from_state":    from,
			"to_state":      to,
		}).
		Mark(ierr.ErrInvalidState)
}
