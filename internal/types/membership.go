package types

import (
	"github.com/samber/lo"

	ierr "github.com/amshq/amscore/internal/errors"
)

// MembershipState is the lifecycle state of a membership instance.
// Automatic decay is strictly date-driven:
// draft -> active -> grace -> suspended -> terminated.
// Any non-terminal state can be cancelled explicitly.
type MembershipState string

const (
	MembershipStateDraft      MembershipState = "draft"
	MembershipStateActive     MembershipState = "active"
	MembershipStateGrace      MembershipState = "grace"
	MembershipStateSuspended  MembershipState = "suspended"
	MembershipStateTerminated MembershipState = "terminated"
	MembershipStateCancelled  MembershipState = "cancelled"
)

func (s MembershipState) String() string {
	return string(s)
}

func (s MembershipState) Validate() error {
	allowed := []MembershipState{
		MembershipStateDraft,
		MembershipStateActive,
		MembershipStateGrace,
		MembershipStateSuspended,
		MembershipStateTerminated,
		MembershipStateCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid membership state").
			WithHint("Invalid membership state").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal reports whether the state accepts no further transitions
func (s MembershipState) IsTerminal() bool {
	return s == MembershipStateTerminated || s == MembershipStateCancelled
}

// CountsAsHolding reports whether the state blocks a second parent
// membership for the same holder
func (s MembershipState) CountsAsHolding() bool {
	return s == MembershipStateActive || s == MembershipStateGrace
}

// membershipTransitions is the explicit transition table. Automatic
// decay and manual operations both consult it before mutating.
var membershipTransitions = map[MembershipState][]MembershipState{
	MembershipStateDraft:     {MembershipStateActive, MembershipStateCancelled},
	MembershipStateActive:    {MembershipStateActive, MembershipStateGrace, MembershipStateCancelled},
	MembershipStateGrace:     {MembershipStateActive, MembershipStateSuspended, MembershipStateCancelled},
	MembershipStateSuspended: {MembershipStateActive, MembershipStateTerminated, MembershipStateCancelled},
}

// CanTransitionTo reports whether the transition from s to target is
// permitted by the lifecycle table
func (s MembershipState) CanTransitionTo(target MembershipState) bool {
	return lo.Contains(membershipTransitions[s], target)
}

// MembershipCategory distinguishes the single primary (parent)
// membership from secondary holdings that may be held in multiples.
type MembershipCategory string

const (
	MembershipCategoryParent       MembershipCategory = "parent"
	MembershipCategoryChapter      MembershipCategory = "chapter"
	MembershipCategoryPublication  MembershipCategory = "publication"
	MembershipCategorySubscription MembershipCategory = "subscription"
)

var MembershipCategoryValues = []MembershipCategory{
	MembershipCategoryParent,
	MembershipCategoryChapter,
	MembershipCategoryPublication,
	MembershipCategorySubscription,
}

func (c MembershipCategory) String() string {
	return string(c)
}

// IsExclusive reports whether a holder may have at most one
// active/grace instance of this category
func (c MembershipCategory) IsExclusive() bool {
	return c == MembershipCategoryParent
}

func (c MembershipCategory) Validate() error {
	if !lo.Contains(MembershipCategoryValues, c) {
		return ierr.NewError("invalid membership category").
			WithHint("Membership category must be parent, chapter, publication or subscription").
			WithReportableDetails(map[string]any{
				"allowed_values": MembershipCategoryValues,
				"provided_value": c,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
