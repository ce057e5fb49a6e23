package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/amshq/amscore/internal/domain/membership"
	"github.com/amshq/amscore/internal/domain/plan"
	"github.com/amshq/amscore/internal/domain/proration"
	"github.com/amshq/amscore/internal/testutil"
	"github.com/amshq/amscore/internal/types"
)

func newTestServiceParams(base *testutil.BaseServiceTestSuite) ServiceParams {
	stores := base.GetStores()
	return ServiceParams{
		Logger: base.GetLogger(),
		Config: base.GetConfig(),
		Cache:  base.GetCache(),

		PlanRepo:       stores.PlanRepo,
		MembershipRepo: stores.MembershipRepo,
		RevenueRepo:    stores.RevenueRepo,

		Invoicer: stores.Invoicer,
		Notifier: stores.Notifier,
		Auditor:  stores.Auditor,
		Ledger:   stores.Ledger,

		ProrationCalculator: proration.NewCalculator(),
		HolderLocks:         NewHolderLockRegistry(),
	}
}

func testDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// annualPlan is a one-year parent plan at 120 usd with the configured
// default lifecycle windows
func annualPlan(id string) *plan.Plan {
	return &plan.Plan{
		ID:       id,
		Name:     "Individual Annual",
		Category: types.MembershipCategoryParent,
		Price:    decimal.NewFromInt(120),
		Currency: "usd",
		BillingPeriod: types.BillingPeriod{
			Value: 1,
			Unit:  types.BillingPeriodUnitYears,
		},
		AutoRenewal: true,
		BaseModel:   types.BaseModel{Status: types.StatusPublished},
	}
}

func draftMembership(id, holderID string, p *plan.Plan) *membership.Membership {
	return &membership.Membership{
		ID:         id,
		HolderID:   holderID,
		PlanID:     p.ID,
		Category:   p.Category,
		State:      types.MembershipStateDraft,
		AmountPaid: decimal.Zero,
		BalanceDue: decimal.Zero,
		Currency:   p.Currency,
		AutoRenew:  p.AutoRenewal,
		BaseModel:  types.BaseModel{Status: types.StatusPublished},
	}
}

func activeMembership(id, holderID string, p *plan.Plan, start, end time.Time) *membership.Membership {
	m := draftMembership(id, holderID, p)
	m.State = types.MembershipStateActive
	m.StartDate = start
	m.EndDate = &end
	m.AmountPaid = p.Price
	return m
}
