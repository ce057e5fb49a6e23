package service

import (
	"context"

	"github.com/amshq/amscore/internal/api/dto"
	"github.com/amshq/amscore/internal/cache"
	"github.com/amshq/amscore/internal/domain/audit"
	"github.com/amshq/amscore/internal/domain/plan"
	"github.com/amshq/amscore/internal/types"
	"github.com/amshq/amscore/internal/validator"
)

// PlanService manages plan definitions. Configuration errors are
// rejected here and never reach an instance.
type PlanService interface {
	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, id string) (*plan.Plan, error)
	ListPlans(ctx context.Context) ([]*plan.Plan, error)
}

type planService struct {
	serviceParams ServiceParams
}

// NewPlanService creates a new plan service
func NewPlanService(serviceParams ServiceParams) PlanService {
	return &planService{serviceParams: serviceParams}
}

func (s *planService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := validator.ValidateRequest(&req); err != nil {
		return nil, err
	}

	p := req.ToPlan()
	p.BaseModel = types.GetDefaultBaseModel(ctx)

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.serviceParams.PlanRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := s.serviceParams.Auditor.RecordEvent(ctx, audit.Event{
		EntityType: audit.EntityTypePlan,
		EntityID:   p.ID,
		Action:     audit.ActionCreated,
		After: map[string]any{
			"name":     p.Name,
			"category": p.Category.String(),
			"price":    p.Price.String(),
		},
	}); err != nil {
		s.serviceParams.Logger.Warnw("failed to record plan audit event",
			"plan_id", p.ID,
			"error", err)
	}

	s.serviceParams.Logger.Infow("created plan",
		"plan_id", p.ID,
		"name", p.Name,
		"category", p.Category)

	return &dto.PlanResponse{Plan: p}, nil
}

// GetPlan reads through the plan cache; plan definitions are
// effectively immutable so a stale read window is harmless.
func (s *planService) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	cacheKey := cache.GenerateKey(cache.PrefixPlan, id)
	if s.serviceParams.Cache != nil {
		if cached, found := s.serviceParams.Cache.Get(ctx, cacheKey); found {
			if p, ok := cached.(*plan.Plan); ok {
				return p, nil
			}
		}
	}

	p, err := s.serviceParams.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.serviceParams.Cache != nil {
		s.serviceParams.Cache.Set(ctx, cacheKey, p, cache.DefaultExpiration)
	}

	return p, nil
}

func (s *planService) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	return s.serviceParams.PlanRepo.List(ctx)
}
