package testutil

import (
	"context"

	"github.com/amshq/amscore/internal/domain/plan"
	ierr "github.com/amshq/amscore/internal/errors"
	"github.com/amshq/amscore/internal/types"
)

// InMemoryPlanStore is an in-memory implementation of plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{InMemoryStore: NewInMemoryStore[*plan.Plan]()}
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return ierr.NewError("plan cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, plan.NewNotFoundError(id)
	}
	return p, nil
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return ierr.NewError("plan cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, p.ID, p)
}

func (s *InMemoryPlanStore) List(ctx context.Context) ([]*plan.Plan, error) {
	return s.InMemoryStore.List(ctx, nil, func(a, b *plan.Plan) bool {
		return a.ID < b.ID
	}), nil
}

func (s *InMemoryPlanStore) ListByCategory(ctx context.Context, category types.MembershipCategory) ([]*plan.Plan, error) {
	return s.InMemoryStore.List(ctx, func(p *plan.Plan) bool {
		return p.Category == category
	}, func(a, b *plan.Plan) bool {
		return a.ID < b.ID
	}), nil
}
