package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amshq/amscore/internal/api/dto"
	"github.com/amshq/amscore/internal/domain/audit"
	"github.com/amshq/amscore/internal/domain/invoicing"
	"github.com/amshq/amscore/internal/domain/membership"
	"github.com/amshq/amscore/internal/domain/notification"
	"github.com/amshq/amscore/internal/domain/proration"
	"github.com/amshq/amscore/internal/types"
	"github.com/amshq/amscore/internal/validator"
)

// LifecycleService owns the membership state machine. All instance
// mutations flow through it; the automatic transitions are strictly
// date-driven and idempotent.
type LifecycleService interface {
	CreateMembership(ctx context.Context, req dto.CreateMembershipRequest) (*dto.MembershipResponse, error)
	ActivateMembership(ctx context.Context, req dto.ActivateMembershipRequest) (*dto.MembershipResponse, error)
	CancelMembership(ctx context.Context, membershipID string, asOf time.Time) (*dto.MembershipResponse, error)

	// SweepLifecycleStates advances every instance to the state implied
	// by asOf. Safe to re-run; an instance already in the correct state
	// is untouched.
	SweepLifecycleStates(ctx context.Context, asOf time.Time) (*dto.LifecycleSweepResponse, error)
}

type lifecycleService struct {
	serviceParams  ServiceParams
	planService    PlanService
	revenueService RevenueRecognitionService
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(serviceParams ServiceParams) LifecycleService {
	return &lifecycleService{
		serviceParams:  serviceParams,
		planService:    NewPlanService(serviceParams),
		revenueService: NewRevenueRecognitionService(serviceParams),
	}
}

func (s *lifecycleService) CreateMembership(ctx context.Context, req dto.CreateMembershipRequest) (*dto.MembershipResponse, error) {
	if err := validator.ValidateRequest(&req); err != nil {
		return nil, err
	}

	p, err := s.planService.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	autoRenew := p.AutoRenewal
	if req.AutoRenew != nil {
		autoRenew = *req.AutoRenew
	}

	m := &membership.Membership{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MEMBERSHIP),
		HolderID:   req.HolderID,
		PlanID:     p.ID,
		Category:   p.Category,
		State:      types.MembershipStateDraft,
		AmountPaid: decimal.Zero,
		BalanceDue: decimal.Zero,
		Currency:   p.Currency,
		AutoRenew:  autoRenew,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	if req.StartDate != nil {
		m.StartDate = *req.StartDate
	}

	if err := s.serviceParams.MembershipRepo.Create(ctx, m); err != nil {
		return nil, err
	}

	recordAuditQuietly(ctx, s.serviceParams, audit.Event{
		EntityType: audit.EntityTypeMembership,
		EntityID:   m.ID,
		Action:     audit.ActionCreated,
		After:      m.Snapshot(),
	})

	return &dto.MembershipResponse{Membership: m}, nil
}

func (s *lifecycleService) ActivateMembership(ctx context.Context, req dto.ActivateMembershipRequest) (*dto.MembershipResponse, error) {
	if err := validator.ValidateRequest(&req); err != nil {
		return nil, err
	}

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	m, err := s.serviceParams.MembershipRepo.Get(ctx, req.MembershipID)
	if err != nil {
		return nil, err
	}

	unlock := s.serviceParams.HolderLocks.Lock(m.HolderID)
	defer unlock()

	// Re-read under the lock so a concurrent activation is visible
	m, err = s.serviceParams.MembershipRepo.Get(ctx, req.MembershipID)
	if err != nil {
		return nil, err
	}

	if !m.State.CanTransitionTo(types.MembershipStateActive) || m.State != types.MembershipStateDraft {
		return nil, membership.NewInvalidStateError(m.ID, m.State, types.MembershipStateActive)
	}

	p, err := s.planService.GetPlan(ctx, m.PlanID)
	if err != nil {
		return nil, err
	}

	if err := s.checkHoldingUniqueness(ctx, m); err != nil {
		return nil, err
	}

	before := m.Snapshot()

	if m.StartDate.IsZero() {
		m.StartDate = asOf
	}

	charge := p.Price
	if req.PeriodStart != nil && req.PeriodEnd != nil && p.ProrationEnabled {
		// Mid-period start: align the instance to an existing period
		// and charge only the remainder.
		result, err := s.serviceParams.ProrationCalculator.Calculate(ctx, proration.Params{
			MembershipID:       m.ID,
			Action:             types.ProrationActionMidPeriodStart,
			CurrentPeriodStart: *req.PeriodStart,
			CurrentPeriodEnd:   *req.PeriodEnd,
			EffectiveDate:      m.StartDate,
			NewPlanPrice:       p.Price,
			Alignment:          types.AlignCurrentPeriod,
			Currency:           p.Currency,
		})
		if err != nil {
			return nil, err
		}
		charge = result.NetAmount
		end := *req.PeriodEnd
		m.EndDate = &end
	} else if p.IsLifetime() {
		m.EndDate = nil
	} else {
		end := p.BillingPeriod.NextDate(m.StartDate)
		m.EndDate = &end
	}

	m.State = types.MembershipStateActive
	m.GraceEndDate = nil
	m.SuspendEndDate = nil
	m.AmountPaid = charge
	m.Touch(ctx)

	if err := s.serviceParams.MembershipRepo.Update(ctx, m); err != nil {
		return nil, err
	}

	recordAuditQuietly(ctx, s.serviceParams, audit.Event{
		EntityType: audit.EntityTypeMembership,
		EntityID:   m.ID,
		Action:     audit.ActionActivated,
		Before:     before,
		After:      m.Snapshot(),
	})

	// Collaborator calls past this point never roll back the
	// transition that already committed.
	resp := &dto.MembershipResponse{Membership: m, AmountInvoiced: charge}

	if charge.GreaterThan(decimal.Zero) {
		invoiceID, err := createInvoiceWithRetry(ctx, s.serviceParams.Invoicer, m.HolderID, []invoicing.LineItem{{
			Description:  "Membership dues: " + p.Name,
			Amount:       charge,
			Currency:     p.Currency,
			MembershipID: m.ID,
		}})
		if err != nil {
			s.serviceParams.Logger.Errorw("failed to create activation invoice",
				"membership_id", m.ID,
				"holder_id", m.HolderID,
				"error", err)
		} else {
			resp.InvoiceID = invoiceID
			m.LastInvoiceID = &invoiceID
			s.refreshBalanceDue(ctx, m, invoiceID, charge)
			if err := s.serviceParams.MembershipRepo.Update(ctx, m); err != nil {
				return nil, err
			}
		}
	}

	if p.DeferredRevenueEnabled && charge.GreaterThan(decimal.Zero) {
		periods := p.DeferredRevenuePeriods
		if periods <= 0 {
			periods = s.serviceParams.Config.Recognition.DefaultPeriods
		}
		if _, err := s.revenueService.BuildSchedule(ctx, m, charge, periods); err != nil {
			s.serviceParams.Logger.Errorw("failed to build recognition schedule",
				"membership_id", m.ID,
				"error", err)
		}
	}

	notifyQuietly(ctx, s.serviceParams, m.HolderID, notification.TemplateMembershipActivated, map[string]any{
		"membership_id": m.ID,
		"plan_name":     p.Name,
		"end_date":      m.EndDate,
	})

	s.serviceParams.Logger.Infow("activated membership",
		"membership_id", m.ID,
		"holder_id", m.HolderID,
		"plan_id", p.ID,
		"end_date", m.EndDate)

	return resp, nil
}

func (s *lifecycleService) CancelMembership(ctx context.Context, membershipID string, asOf time.Time) (*dto.MembershipResponse, error) {
	m, err := s.serviceParams.MembershipRepo.Get(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	unlock := s.serviceParams.HolderLocks.Lock(m.HolderID)
	defer unlock()

	m, err = s.serviceParams.MembershipRepo.Get(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	if !m.State.CanTransitionTo(types.MembershipStateCancelled) {
		return nil, membership.NewInvalidStateError(m.ID, m.State, types.MembershipStateCancelled)
	}

	before := m.Snapshot()

	m.State = types.MembershipStateCancelled
	m.AutoRenew = false
	cancelledAt := asOf
	m.CancelledAt = &cancelledAt
	m.Touch(ctx)

	if err := s.serviceParams.MembershipRepo.Update(ctx, m); err != nil {
		return nil, err
	}

	recordAuditQuietly(ctx, s.serviceParams, audit.Event{
		EntityType: audit.EntityTypeMembership,
		EntityID:   m.ID,
		Action:     audit.ActionCancelled,
		Before:     before,
		After:      m.Snapshot(),
	})

	notifyQuietly(ctx, s.serviceParams, m.HolderID, notification.TemplateMembershipCancelled, map[string]any{
		"membership_id": m.ID,
	})

	s.serviceParams.Logger.Infow("cancelled membership",
		"membership_id", m.ID,
		"holder_id", m.HolderID)

	return &dto.MembershipResponse{Membership: m}, nil
}

// SweepLifecycleStates advances lifecycle states by date. Failures are
// isolated per record and reported in the response; the sweep never
// raises to its caller.
func (s *lifecycleService) SweepLifecycleStates(ctx context.Context, asOf time.Time) (*dto.LifecycleSweepResponse, error) {
	response := &dto.LifecycleSweepResponse{
		Items:   make([]*dto.LifecycleSweepResponseItem, 0),
		StartAt: time.Now().UTC(),
	}

	s.serviceParams.Logger.Infow("starting lifecycle sweep", "as_of", asOf)

	candidates, err := s.serviceParams.MembershipRepo.ListByStates(ctx, []types.MembershipState{
		types.MembershipStateActive,
		types.MembershipStateGrace,
		types.MembershipStateSuspended,
	})
	if err != nil {
		return response, err
	}

	for _, m := range candidates {
		item := &dto.LifecycleSweepResponseItem{
			MembershipID: m.ID,
			FromState:    m.State,
			ToState:      m.State,
		}

		transitions, err := s.advanceInstance(ctx, m, asOf)
		if err != nil {
			s.serviceParams.Logger.Errorw("failed to advance membership lifecycle",
				"membership_id", m.ID,
				"error", err)
			item.Error = err.Error()
			response.TotalFailed++
		} else {
			item.Success = true
			item.ToState = m.State
			item.Transitions = transitions
			response.TotalSuccess++
		}

		response.Items = append(response.Items, item)
	}

	s.serviceParams.Logger.Infow("completed lifecycle sweep",
		"total", len(response.Items),
		"success", response.TotalSuccess,
		"failed", response.TotalFailed)

	return response, nil
}

// advanceInstance cascades a stale instance through every transition
// implied by asOf in a single pass. No transition implies no mutation.
func (s *lifecycleService) advanceInstance(ctx context.Context, m *membership.Membership, asOf time.Time) ([]types.MembershipState, error) {
	p, err := s.planService.GetPlan(ctx, m.PlanID)
	if err != nil {
		return nil, err
	}

	graceDays, suspendDays, _ := lifecycleWindows(s.serviceParams, p)

	before := m.Snapshot()
	var transitions []types.MembershipState

	for {
		next, ok := nextAutomaticState(m, asOf)
		if !ok {
			break
		}

		switch next {
		case types.MembershipStateGrace:
			graceEnd := types.AddClampedDate(*m.EndDate, 0, 0, graceDays)
			m.State = types.MembershipStateGrace
			m.GraceEndDate = &graceEnd
		case types.MembershipStateSuspended:
			suspendEnd := types.AddClampedDate(*m.GraceEndDate, 0, 0, suspendDays)
			m.State = types.MembershipStateSuspended
			m.SuspendEndDate = &suspendEnd
		case types.MembershipStateTerminated:
			m.State = types.MembershipStateTerminated
		}
		transitions = append(transitions, next)
	}

	if len(transitions) == 0 {
		return nil, nil
	}

	m.Touch(ctx)
	if err := s.serviceParams.MembershipRepo.Update(ctx, m); err != nil {
		return nil, err
	}

	recordAuditQuietly(ctx, s.serviceParams, audit.Event{
		EntityType: audit.EntityTypeMembership,
		EntityID:   m.ID,
		Action:     audit.ActionTransition,
		Before:     before,
		After:      m.Snapshot(),
		Details:    map[string]any{"as_of": asOf},
	})

	s.notifyTransition(ctx, m)

	return transitions, nil
}

// nextAutomaticState returns the next date-driven transition for the
// instance, if any. draft, cancelled and terminated are absorbing.
func nextAutomaticState(m *membership.Membership, asOf time.Time) (types.MembershipState, bool) {
	switch m.State {
	case types.MembershipStateActive:
		if m.EndDate != nil && asOf.After(*m.EndDate) {
			return types.MembershipStateGrace, true
		}
	case types.MembershipStateGrace:
		if m.GraceEndDate != nil && asOf.After(*m.GraceEndDate) {
			return types.MembershipStateSuspended, true
		}
	case types.MembershipStateSuspended:
		if m.SuspendEndDate != nil && asOf.After(*m.SuspendEndDate) {
			return types.MembershipStateTerminated, true
		}
	}
	return "", false
}

func (s *lifecycleService) notifyTransition(ctx context.Context, m *membership.Membership) {
	var templateKey string
	switch m.State {
	case types.MembershipStateGrace:
		templateKey = notification.TemplateMembershipExpired
	case types.MembershipStateSuspended:
		templateKey = notification.TemplateMembershipSuspended
	case types.MembershipStateTerminated:
		templateKey = notification.TemplateMembershipTerminated
	default:
		return
	}

	notifyQuietly(ctx, s.serviceParams, m.HolderID, templateKey, map[string]any{
		"membership_id": m.ID,
		"state":         m.State.String(),
	})
}

// checkHoldingUniqueness enforces the single active parent membership
// invariant before any mutation is committed. Caller must hold the
// holder's lock.
func (s *lifecycleService) checkHoldingUniqueness(ctx context.Context, m *membership.Membership) error {
	if !m.Category.IsExclusive() {
		return nil
	}

	count, err := s.serviceParams.MembershipRepo.CountHoldings(ctx, m.HolderID, m.Category)
	if err != nil {
		return err
	}
	if count > 0 {
		return membership.NewDuplicateActiveMembershipError(m.HolderID, m.Category)
	}
	return nil
}

// refreshBalanceDue polls the invoicing collaborator for the payment
// status of the raised invoice and updates the outstanding balance.
func (s *lifecycleService) refreshBalanceDue(ctx context.Context, m *membership.Membership, invoiceID string, amount decimal.Decimal) {
	status, err := s.serviceParams.Invoicer.PaymentStatus(ctx, invoiceID)
	if err != nil {
		s.serviceParams.Logger.Warnw("failed to poll invoice payment status",
			"membership_id", m.ID,
			"invoice_id", invoiceID,
			"error", err)
		m.BalanceDue = amount
		return
	}

	switch status {
	case types.PaymentStatusPaid:
		m.BalanceDue = decimal.Zero
	default:
		m.BalanceDue = amount
	}
}
