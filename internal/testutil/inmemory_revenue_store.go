package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/amshq/amscore/internal/domain/revenue"
	ierr "github.com/amshq/amscore/internal/errors"
)

// InMemoryRevenueStore is an in-memory implementation of
// revenue.Repository
type InMemoryRevenueStore struct {
	*InMemoryStore[*revenue.RecognitionEntry]
}

func NewInMemoryRevenueStore() *InMemoryRevenueStore {
	return &InMemoryRevenueStore{InMemoryStore: NewInMemoryStore[*revenue.RecognitionEntry]()}
}

func copyEntry(e *revenue.RecognitionEntry) *revenue.RecognitionEntry {
	clone := *e
	return &clone
}

func (s *InMemoryRevenueStore) Create(ctx context.Context, entry *revenue.RecognitionEntry) error {
	if entry == nil {
		return ierr.NewError("entry cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, entry.ID, copyEntry(entry))
}

func (s *InMemoryRevenueStore) CreateBulk(ctx context.Context, entries []*revenue.RecognitionEntry) error {
	for _, entry := range entries {
		if err := s.Create(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryRevenueStore) Get(ctx context.Context, id string) (*revenue.RecognitionEntry, error) {
	entry, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, revenue.NewNotFoundError(id)
	}
	return copyEntry(entry), nil
}

func (s *InMemoryRevenueStore) Update(ctx context.Context, entry *revenue.RecognitionEntry) error {
	if entry == nil {
		return ierr.NewError("entry cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, entry.ID, copyEntry(entry))
}

func (s *InMemoryRevenueStore) ListByMembership(ctx context.Context, membershipID string) ([]*revenue.RecognitionEntry, error) {
	items := s.InMemoryStore.List(ctx, func(e *revenue.RecognitionEntry) bool {
		return e.MembershipID == membershipID
	}, func(a, b *revenue.RecognitionEntry) bool {
		if a.RecognitionDate.Equal(b.RecognitionDate) {
			return a.ID < b.ID
		}
		return a.RecognitionDate.Before(b.RecognitionDate)
	})
	return lo.Map(items, func(e *revenue.RecognitionEntry, _ int) *revenue.RecognitionEntry {
		return copyEntry(e)
	}), nil
}

func (s *InMemoryRevenueStore) ListDue(ctx context.Context, asOf time.Time) ([]*revenue.RecognitionEntry, error) {
	items := s.InMemoryStore.List(ctx, func(e *revenue.RecognitionEntry) bool {
		return e.IsDue(asOf)
	}, func(a, b *revenue.RecognitionEntry) bool {
		if a.RecognitionDate.Equal(b.RecognitionDate) {
			return a.ID < b.ID
		}
		return a.RecognitionDate.Before(b.RecognitionDate)
	})
	return lo.Map(items, func(e *revenue.RecognitionEntry, _ int) *revenue.RecognitionEntry {
		return copyEntry(e)
	}), nil
}
