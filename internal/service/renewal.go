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
	"github.com/amshq/amscore/internal/domain/plan"
	"github.com/amshq/amscore/internal/domain/proration"
	"github.com/amshq/amscore/internal/types"
	"github.com/amshq/amscore/internal/validator"
)

// RenewalService extends instances into their next billing period or,
// on a plan change, creates a linked successor instance. Eligibility
// failures are returned as structured reasons, never as mutations.
type RenewalService interface {
	IsRenewable(ctx context.Context, membershipID string, asOf time.Time) (*dto.RenewalEligibility, error)
	Renew(ctx context.Context, req dto.RenewRequest) (*dto.RenewalResponse, error)

	// SweepDueRenewals renews every auto-renew instance whose paid
	// period has ended as of asOf. Ineligible instances are skipped,
	// not failed.
	SweepDueRenewals(ctx context.Context, asOf time.Time) (*dto.RenewalSweepResponse, error)
}

type renewalService struct {
	serviceParams  ServiceParams
	planService    PlanService
	revenueService RevenueRecognitionService
}

// NewRenewalService creates a new renewal service
func NewRenewalService(serviceParams ServiceParams) RenewalService {
	return &renewalService{
		serviceParams:  serviceParams,
		planService:    NewPlanService(serviceParams),
		revenueService: NewRevenueRecognitionService(serviceParams),
	}
}

func (s *renewalService) IsRenewable(ctx context.Context, membershipID string, asOf time.Time) (*dto.RenewalEligibility, error) {
	m, err := s.serviceParams.MembershipRepo.Get(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	p, err := s.planService.GetPlan(ctx, m.PlanID)
	if err != nil {
		return nil, err
	}

	return s.checkEligibility(m, p, asOf), nil
}

func (s *renewalService) checkEligibility(m *membership.Membership, p *plan.Plan, asOf time.Time) *dto.RenewalEligibility {
	eligibility := &dto.RenewalEligibility{MembershipID: m.ID, Eligible: true}

	addReason := func(code, message string) {
		eligibility.Eligible = false
		eligibility.Reasons = append(eligibility.Reasons, dto.EligibilityReason{
			Code:    code,
			Message: message,
		})
	}

	if m.IsLifetime() && m.State == types.MembershipStateActive {
		addReason(dto.EligibilityReasonLifetime, "lifetime memberships do not renew")
	}

	switch m.State {
	case types.MembershipStateActive, types.MembershipStateGrace, types.MembershipStateSuspended:
		// renewable states
	case types.MembershipStateTerminated:
		_, _, terminateDays := lifecycleWindows(s.serviceParams, p)
		if m.SuspendEndDate == nil ||
			asOf.After(types.AddClampedDate(*m.SuspendEndDate, 0, 0, terminateDays)) {
			addReason(dto.EligibilityReasonWindow, "reinstatement window has closed")
		}
	default:
		addReason(dto.EligibilityReasonState, "state "+m.State.String()+" is not renewable")
	}

	if p.PaymentRequiredForRenewal && m.BalanceDue.GreaterThan(decimal.Zero) {
		addReason(dto.EligibilityReasonDues, "dues not current: outstanding balance of "+m.BalanceDue.String()+" "+m.Currency)
	}

	return eligibility
}

func (s *renewalService) Renew(ctx context.Context, req dto.RenewRequest) (*dto.RenewalResponse, error) {
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

	m, err = s.serviceParams.MembershipRepo.Get(ctx, req.MembershipID)
	if err != nil {
		return nil, err
	}

	p, err := s.planService.GetPlan(ctx, m.PlanID)
	if err != nil {
		return nil, err
	}

	if eligibility := s.checkEligibility(m, p, asOf); !eligibility.Eligible {
		s.serviceParams.Logger.Infow("renewal blocked",
			"membership_id", m.ID,
			"reasons", eligibility.Reasons)
		return &dto.RenewalResponse{Eligibility: eligibility}, nil
	}

	if req.NewPlanID != nil && *req.NewPlanID != m.PlanID {
		newPlan, err := s.planService.GetPlan(ctx, *req.NewPlanID)
		if err != nil {
			return nil, err
		}
		return s.renewOntoPlan(ctx, m, p, newPlan, asOf, req.Alignment)
	}

	// A terminated instance is terminal; reinstatement within the
	// window creates a linked successor instead of mutating it.
	if m.State == types.MembershipStateTerminated {
		return s.renewOntoPlan(ctx, m, p, p, asOf, types.AlignFreshPeriod)
	}

	return s.extendInstance(ctx, m, p, asOf)
}

// extendInstance performs a simple renewal: the existing instance gets
// one more billing period and returns to active.
func (s *renewalService) extendInstance(ctx context.Context, m *membership.Membership, p *plan.Plan, asOf time.Time) (*dto.RenewalResponse, error) {
	before := m.Snapshot()

	// Period extends from the scheduled end; a lapsed instance renews
	// from the renewal date instead so the member does not pay for the
	// lapsed gap.
	base := asOf
	if m.EndDate != nil && m.EndDate.After(asOf) {
		base = *m.EndDate
	}
	newEnd := p.BillingPeriod.NextDate(base)

	m.State = types.MembershipStateActive
	m.StartDate = base
	m.EndDate = &newEnd
	m.GraceEndDate = nil
	m.SuspendEndDate = nil
	// Collections accumulate; recognition is capped by the lifetime total
	m.AmountPaid = m.AmountPaid.Add(p.Price)
	m.Touch(ctx)

	if err := s.serviceParams.MembershipRepo.Update(ctx, m); err != nil {
		return nil, err
	}

	recordAuditQuietly(ctx, s.serviceParams, audit.Event{
		EntityType: audit.EntityTypeMembership,
		EntityID:   m.ID,
		Action:     audit.ActionRenewed,
		Before:     before,
		After:      m.Snapshot(),
	})

	resp := &dto.RenewalResponse{Membership: m, AmountInvoiced: p.Price}
	s.invoiceAndSchedule(ctx, m, p, resp, []invoicing.LineItem{{
		Description:  "Membership renewal: " + p.Name,
		Amount:       p.Price,
		Currency:     p.Currency,
		MembershipID: m.ID,
	}})

	notifyQuietly(ctx, s.serviceParams, m.HolderID, notification.TemplateRenewalCompleted, map[string]any{
		"membership_id": m.ID,
		"plan_name":     p.Name,
		"end_date":      newEnd,
	})

	s.serviceParams.Logger.Infow("renewed membership",
		"membership_id", m.ID,
		"holder_id", m.HolderID,
		"new_end_date", newEnd)

	return resp, nil
}

// renewOntoPlan creates a linked successor instance under the new plan
// and closes the old one. Proration credits unused time on the old
// plan against the new charge.
func (s *renewalService) renewOntoPlan(ctx context.Context, m *membership.Membership, oldPlan, newPlan *plan.Plan, asOf time.Time, alignment types.ChangeAlignment) (*dto.RenewalResponse, error) {
	if alignment == "" {
		alignment = types.AlignCurrentPeriod
	}
	if err := alignment.Validate(); err != nil {
		return nil, err
	}

	action := types.ProrationActionUpgrade
	if newPlan.Price.LessThan(oldPlan.Price) {
		action = types.ProrationActionDowngrade
	}

	successorStart := asOf
	successorEnd := newPlan.BillingPeriod.NextDate(successorStart)

	charge := newPlan.Price
	var creditItems, chargeItems []proration.LineItem
	if oldPlan.ProrationEnabled && m.EndDate != nil && m.EndDate.After(asOf) {
		params := proration.Params{
			MembershipID:       m.ID,
			CurrentPeriodStart: m.StartDate,
			CurrentPeriodEnd:   *m.EndDate,
			EffectiveDate:      asOf,
			Action:             action,
			OldAmountPaid:      m.AmountPaid,
			NewPlanPrice:       newPlan.Price,
			Alignment:          alignment,
			Currency:           newPlan.Currency,
		}
		if alignment == types.AlignFreshPeriod {
			params.FreshPeriodEnd = successorEnd
		}

		result, err := s.serviceParams.ProrationCalculator.Calculate(ctx, params)
		if err != nil {
			return nil, err
		}
		charge = result.NetAmount
		creditItems = result.CreditItems
		chargeItems = result.ChargeItems

		if alignment == types.AlignCurrentPeriod {
			successorEnd = *m.EndDate
		}
	}

	successor := &membership.Membership{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MEMBERSHIP),
		HolderID:             m.HolderID,
		PlanID:               newPlan.ID,
		Category:             newPlan.Category,
		State:                types.MembershipStateActive,
		StartDate:            successorStart,
		EndDate:              &successorEnd,
		AmountPaid:           charge,
		BalanceDue:           decimal.Zero,
		Currency:             newPlan.Currency,
		AutoRenew:            newPlan.AutoRenewal,
		PreviousMembershipID: &m.ID,
		BaseModel:            types.GetDefaultBaseModel(ctx),
	}
	if newPlan.IsLifetime() {
		successor.EndDate = nil
	}

	// The old instance is about to close, so it does not count against
	// the single parent holding rule for the successor.
	if successor.Category.IsExclusive() {
		count, err := s.serviceParams.MembershipRepo.CountHoldings(ctx, m.HolderID, successor.Category)
		if err != nil {
			return nil, err
		}
		if m.Category == successor.Category && m.State.CountsAsHolding() {
			count--
		}
		if count > 0 {
			return nil, membership.NewDuplicateActiveMembershipError(m.HolderID, successor.Category)
		}
	}

	before := m.Snapshot()

	// Close the old instance first so the category uniqueness check on
	// the successor does not see two holdings. An already terminal
	// instance only gains the successor link.
	if !m.State.IsTerminal() {
		m.State = types.MembershipStateCancelled
		m.AutoRenew = false
		cancelledAt := asOf
		m.CancelledAt = &cancelledAt
	}
	m.NextMembershipID = &successor.ID
	m.Touch(ctx)

	if err := s.serviceParams.MembershipRepo.Update(ctx, m); err != nil {
		return nil, err
	}

	if err := s.serviceParams.MembershipRepo.Create(ctx, successor); err != nil {
		return nil, err
	}

	recordAuditQuietly(ctx, s.serviceParams, audit.Event{
		EntityType: audit.EntityTypeMembership,
		EntityID:   m.ID,
		Action:     audit.ActionRenewed,
		Before:     before,
		After:      m.Snapshot(),
		Details: map[string]any{
			"successor_id": successor.ID,
			"new_plan_id":  newPlan.ID,
			"action":       action.String(),
		},
	})

	resp := &dto.RenewalResponse{Membership: successor, AmountInvoiced: charge}

	lines := make([]invoicing.LineItem, 0, len(creditItems)+len(chargeItems))
	for _, item := range creditItems {
		lines = append(lines, invoicing.LineItem{
			Description:  item.Description,
			Amount:       item.Amount,
			Currency:     newPlan.Currency,
			MembershipID: m.ID,
		})
	}
	for _, item := range chargeItems {
		lines = append(lines, invoicing.LineItem{
			Description:  item.Description,
			Amount:       item.Amount,
			Currency:     newPlan.Currency,
			MembershipID: successor.ID,
		})
	}
	if len(lines) == 0 {
		lines = append(lines, invoicing.LineItem{
			Description:  "Membership plan change: " + newPlan.Name,
			Amount:       charge,
			Currency:     newPlan.Currency,
			MembershipID: successor.ID,
		})
	}

	s.invoiceAndSchedule(ctx, successor, newPlan, resp, lines)

	notifyQuietly(ctx, s.serviceParams, m.HolderID, notification.TemplateRenewalCompleted, map[string]any{
		"membership_id": successor.ID,
		"plan_name":     newPlan.Name,
		"end_date":      successor.EndDate,
	})

	s.serviceParams.Logger.Infow("renewed membership onto new plan",
		"membership_id", m.ID,
		"successor_id", successor.ID,
		"new_plan_id", newPlan.ID,
		"net_amount", charge)

	return resp, nil
}

// invoiceAndSchedule raises the renewal invoice and builds the
// recognition schedule for the new payment. Neither failure rolls back
// the renewal that already committed.
func (s *renewalService) invoiceAndSchedule(ctx context.Context, m *membership.Membership, p *plan.Plan, resp *dto.RenewalResponse, lines []invoicing.LineItem) {
	net := decimal.Zero
	for _, line := range lines {
		net = net.Add(line.Amount)
	}

	if !net.IsZero() {
		invoiceID, err := createInvoiceWithRetry(ctx, s.serviceParams.Invoicer, m.HolderID, lines)
		if err != nil {
			s.serviceParams.Logger.Errorw("failed to create renewal invoice",
				"membership_id", m.ID,
				"holder_id", m.HolderID,
				"error", err)
		} else {
			resp.InvoiceID = invoiceID
			m.LastInvoiceID = &invoiceID
			s.refreshBalance(ctx, m, invoiceID, net)
			if err := s.serviceParams.MembershipRepo.Update(ctx, m); err != nil {
				s.serviceParams.Logger.Errorw("failed to persist invoice reference",
					"membership_id", m.ID,
					"error", err)
			}
		}
	}

	// The schedule is built from this renewal's payment alone, never
	// from the instance's cumulative payment history.
	if p.DeferredRevenueEnabled && net.GreaterThan(decimal.Zero) {
		periods := p.DeferredRevenuePeriods
		if periods <= 0 {
			periods = s.serviceParams.Config.Recognition.DefaultPeriods
		}
		if _, err := s.revenueService.BuildSchedule(ctx, m, net, periods); err != nil {
			s.serviceParams.Logger.Errorw("failed to build renewal recognition schedule",
				"membership_id", m.ID,
				"error", err)
		}
	}
}

func (s *renewalService) refreshBalance(ctx context.Context, m *membership.Membership, invoiceID string, amount decimal.Decimal) {
	status, err := s.serviceParams.Invoicer.PaymentStatus(ctx, invoiceID)
	if err != nil {
		s.serviceParams.Logger.Warnw("failed to poll invoice payment status",
			"membership_id", m.ID,
			"invoice_id", invoiceID,
			"error", err)
		m.BalanceDue = amount
		return
	}
	if status == types.PaymentStatusPaid || amount.LessThan(decimal.Zero) {
		m.BalanceDue = decimal.Zero
		return
	}
	m.BalanceDue = amount
}

// SweepDueRenewals renews auto-renew instances whose period has
// lapsed. An ineligible instance is a skip with its blocking reasons,
// not a failure; real errors are isolated per record.
func (s *renewalService) SweepDueRenewals(ctx context.Context, asOf time.Time) (*dto.RenewalSweepResponse, error) {
	response := &dto.RenewalSweepResponse{
		Items:   make([]*dto.RenewalSweepResponseItem, 0),
		StartAt: time.Now().UTC(),
	}

	s.serviceParams.Logger.Infow("starting renewal sweep", "as_of", asOf)

	due, err := s.serviceParams.MembershipRepo.ListAutoRenewDue(ctx, asOf)
	if err != nil {
		return response, err
	}

	for _, m := range due {
		item := &dto.RenewalSweepResponseItem{MembershipID: m.ID}

		result, err := s.Renew(ctx, dto.RenewRequest{
			MembershipID: m.ID,
			AsOf:         &asOf,
		})
		switch {
		case err != nil:
			s.serviceParams.Logger.Errorw("failed to renew membership",
				"membership_id", m.ID,
				"error", err)
			item.Error = err.Error()
			response.TotalFailed++
		case result.Eligibility != nil && !result.Eligibility.Eligible:
			item.Skipped = true
			if len(result.Eligibility.Reasons) > 0 {
				item.Reason = result.Eligibility.Reasons[0].Message
			}
			response.TotalSkipped++
		default:
			item.Renewed = true
			response.TotalSuccess++
		}

		response.Items = append(response.Items, item)
	}

	s.serviceParams.Logger.Infow("completed renewal sweep",
		"total", len(response.Items),
		"success", response.TotalSuccess,
		"skipped", response.TotalSkipped,
		"failed", response.TotalFailed)

	return response, nil
}
