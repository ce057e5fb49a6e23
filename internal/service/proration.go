package service

import (
	"context"

	"github.com/amshq/amscore/internal/domain/proration"
)

// ProrationService exposes proration previews so callers can show a
// member the credit and charge breakdown before committing a change.
type ProrationService interface {
	Calculate(ctx context.Context, params proration.Params) (*proration.Result, error)
}

type prorationService struct {
	serviceParams ServiceParams
}

// NewProrationService creates a new proration service
func NewProrationService(serviceParams ServiceParams) ProrationService {
	return &prorationService{serviceParams: serviceParams}
}

func (s *prorationService) Calculate(ctx context.Context, params proration.Params) (*proration.Result, error) {
	result, err := s.serviceParams.ProrationCalculator.Calculate(ctx, params)
	if err != nil {
		return nil, err
	}

	s.serviceParams.Logger.Debugw("calculated proration",
		"membership_id", params.MembershipID,
		"action", params.Action,
		"net_amount", result.NetAmount)

	return result, nil
}
