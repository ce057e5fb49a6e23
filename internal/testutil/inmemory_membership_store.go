package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/amshq/amscore/internal/domain/membership"
	ierr "github.com/amshq/amscore/internal/errors"
	"github.com/amshq/amscore/internal/types"
)

// InMemoryMembershipStore is an in-memory implementation of
// membership.Repository. Stored values are copied on write and read so
// tests cannot mutate store state through a retained pointer.
type InMemoryMembershipStore struct {
	*InMemoryStore[*membership.Membership]
}

func NewInMemoryMembershipStore() *InMemoryMembershipStore {
	return &InMemoryMembershipStore{InMemoryStore: NewInMemoryStore[*membership.Membership]()}
}

func copyMembership(m *membership.Membership) *membership.Membership {
	clone := *m
	return &clone
}

func (s *InMemoryMembershipStore) Create(ctx context.Context, m *membership.Membership) error {
	if m == nil {
		return ierr.NewError("membership cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, m.ID, copyMembership(m))
}

func (s *InMemoryMembershipStore) Get(ctx context.Context, id string) (*membership.Membership, error) {
	m, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, membership.NewNotFoundError(id)
	}
	return copyMembership(m), nil
}

func (s *InMemoryMembershipStore) Update(ctx context.Context, m *membership.Membership) error {
	if m == nil {
		return ierr.NewError("membership cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, m.ID, copyMembership(m))
}

func (s *InMemoryMembershipStore) ListByHolder(ctx context.Context, holderID string) ([]*membership.Membership, error) {
	items := s.InMemoryStore.List(ctx, func(m *membership.Membership) bool {
		return m.HolderID == holderID
	}, func(a, b *membership.Membership) bool {
		return a.ID < b.ID
	})
	return lo.Map(items, func(m *membership.Membership, _ int) *membership.Membership {
		return copyMembership(m)
	}), nil
}

func (s *InMemoryMembershipStore) ListByStates(ctx context.Context, states []types.MembershipState) ([]*membership.Membership, error) {
	items := s.InMemoryStore.List(ctx, func(m *membership.Membership) bool {
		return lo.Contains(states, m.State)
	}, func(a, b *membership.Membership) bool {
		return a.ID < b.ID
	})
	return lo.Map(items, func(m *membership.Membership, _ int) *membership.Membership {
		return copyMembership(m)
	}), nil
}

func (s *InMemoryMembershipStore) CountHoldings(ctx context.Context, holderID string, category types.MembershipCategory) (int, error) {
	items := s.InMemoryStore.List(ctx, func(m *membership.Membership) bool {
		return m.HolderID == holderID &&
			m.Category == category &&
			m.State.CountsAsHolding()
	}, nil)
	return len(items), nil
}

func (s *InMemoryMembershipStore) ListAutoRenewDue(ctx context.Context, asOf time.Time) ([]*membership.Membership, error) {
	items := s.InMemoryStore.List(ctx, func(m *membership.Membership) bool {
		return m.AutoRenew &&
			!m.State.IsTerminal() &&
			m.State != types.MembershipStateDraft &&
			m.EndDate != nil &&
			!m.EndDate.After(asOf)
	}, func(a, b *membership.Membership) bool {
		return a.ID < b.ID
	})
	return lo.Map(items, func(m *membership.Membership, _ int) *membership.Membership {
		return copyMembership(m)
	}), nil
}
