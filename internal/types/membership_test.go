package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMembershipStateTransitions(t *testing.T) {
	tests := []struct {
		from    MembershipState
		to      MembershipState
		allowed bool
	}{
		{MembershipStateDraft, MembershipStateActive, true},
		{MembershipStateDraft, MembershipStateCancelled, true},
		{MembershipStateDraft, MembershipStateGrace, false},
		{MembershipStateActive, MembershipStateGrace, true},
		{MembershipStateActive, MembershipStateActive, true},
		{MembershipStateActive, MembershipStateSuspended, false},
		{MembershipStateActive, MembershipStateTerminated, false},
		{MembershipStateGrace, MembershipStateActive, true},
		{MembershipStateGrace, MembershipStateSuspended, true},
		{MembershipStateGrace, MembershipStateTerminated, false},
		{MembershipStateSuspended, MembershipStateActive, true},
		{MembershipStateSuspended, MembershipStateTerminated, true},
		{MembershipStateSuspended, MembershipStateGrace, false},
		{MembershipStateTerminated, MembershipStateActive, false},
		{MembershipStateTerminated, MembershipStateCancelled, false},
		{MembershipStateCancelled, MembershipStateActive, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestMembershipStateCancellableFromAnyNonTerminalState(t *testing.T) {
	for _, state := range []MembershipState{
		MembershipStateDraft,
		MembershipStateActive,
		MembershipStateGrace,
		MembershipStateSuspended,
	} {
		assert.True(t, state.CanTransitionTo(MembershipStateCancelled), state)
	}
}

func TestMembershipStateIsTerminal(t *testing.T) {
	assert.True(t, MembershipStateTerminated.IsTerminal())
	assert.True(t, MembershipStateCancelled.IsTerminal())
	assert.False(t, MembershipStateActive.IsTerminal())
	assert.False(t, MembershipStateGrace.IsTerminal())
	assert.False(t, MembershipStateSuspended.IsTerminal())
	assert.False(t, MembershipStateDraft.IsTerminal())
}

func TestMembershipStateCountsAsHolding(t *testing.T) {
	assert.True(t, MembershipStateActive.CountsAsHolding())
	assert.True(t, MembershipStateGrace.CountsAsHolding())
	assert.False(t, MembershipStateDraft.CountsAsHolding())
	assert.False(t, MembershipStateSuspended.CountsAsHolding())
	assert.False(t, MembershipStateTerminated.CountsAsHolding())
	assert.False(t, MembershipStateCancelled.CountsAsHolding())
}

func TestMembershipCategoryIsExclusive(t *testing.T) {
	assert.True(t, MembershipCategoryParent.IsExclusive())
	assert.False(t, MembershipCategoryChapter.IsExclusive())
	assert.False(t, MembershipCategoryPublication.IsExclusive())
	assert.False(t, MembershipCategorySubscription.IsExclusive())
}

func TestMembershipStateValidate(t *testing.T) {
	assert.NoError(t, MembershipStateActive.Validate())
	assert.Error(t, MembershipState("frozen").Validate())
}

func TestMembershipCategoryValidate(t *testing.T) {
	assert.NoError(t, MembershipCategoryParent.Validate())
	assert.Error(t, MembershipCategory("affiliate").Validate())
}
