package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/amshq/amscore/internal/api/dto"
	"github.com/amshq/amscore/internal/testutil"
	"github.com/amshq/amscore/internal/types"
)

type RenewalServiceSuite struct {
	testutil.BaseServiceTestSuite
	service RenewalService
}

func TestRenewalService(t *testing.T) {
	suite.Run(t, new(RenewalServiceSuite))
}

func (s *RenewalServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewRenewalService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *RenewalServiceSuite) TestIsRenewableActiveInstance() {
	p := annualPlan("plan_annual")
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	m := activeMembership("memb_1", "holder_1", p,
		testDate(2024, time.January, 1), testDate(2025, time.January, 1))
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	eligibility, err := s.service.IsRenewable(s.GetContext(), "memb_1", testDate(2024, time.December, 1))
	s.NoError(err)
	s.True(eligibility.Eligible)
	s.Empty(eligibility.Reasons)
}

func (s *RenewalServiceSuite) TestIsRenewableDuesNotCurrent() {
	p := annualPlan("plan_annual")
	p.PaymentRequiredForRenewal = true
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))

	m := activeMembership("memb_1", "holder_1", p,
		testDate(2024, time.January, 1), testDate(2025, time.January, 1))
	m.BalanceDue = decimal.NewFromInt(40)
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	eligibility, err := s.service.IsRenewable(s.GetContext(), "memb_1", testDate(2024, time.December, 1))
	s.NoError(err)
	s.False(eligibility.Eligible)
	s.Len(eligibility.Reasons, 1)
	s.Equal(dto.EligibilityReasonDues, eligibility.Reasons[0].Code)
	s.Contains(eligibility.Reasons[0].Message, "dues")
}

func (s *RenewalServiceSuite) TestIsRenewableLifetime() {
	p := annualPlan("plan_lifetime")
	p.BillingPeriod = types.LifetimeBillingPeriod()
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))

	m := draftMembership("memb_1", "holder_1", p)
	m.State = types.MembershipStateActive
	m.StartDate = testDate(2020, time.January, 1)
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	eligibility, err := s.service.IsRenewable(s.GetContext(), "memb_1", testDate(2024, time.January, 1))
	s.NoError(err)
	s.False(eligibility.Eligible)
	s.Equal(dto.EligibilityReasonLifetime, eligibility.Reasons[0].Code)
}

func (s *RenewalServiceSuite) TestIsRenewableCancelledInstance() {
	p := annualPlan("plan_annual")
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	m := activeMembership("memb_1", "holder_1", p,
		testDate(2024, time.January, 1), testDate(2025, time.January, 1))
	m.State = types.MembershipStateCancelled
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	eligibility, err := s.service.IsRenewable(s.GetContext(), "memb_1", testDate(2024, time.December, 1))
	s.NoError(err)
	s.False(eligibility.Eligible)
	s.Equal(dto.EligibilityReasonState, eligibility.Reasons[0].Code)
}

func (s *RenewalServiceSuite) TestIsRenewableTerminatedWithinWindow() {
	p := annualPlan("plan_annual")
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))

	m := activeMembership("memb_1", "holder_1", p,
		testDate(2023, time.January, 1), testDate(2024, time.January, 1))
	m.State = types.MembershipStateTerminated
	suspendEnd := testDate(2024, time.April, 1)
	m.SuspendEndDate = &suspendEnd
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	// Within suspend_end + 90 days under the default configuration
	eligibility, err := s.service.IsRenewable(s.GetContext(), "memb_1", testDate(2024, time.June, 1))
	s.NoError(err)
	s.True(eligibility.Eligible)

	// Past the window
	eligibility, err = s.service.IsRenewable(s.GetContext(), "memb_1", testDate(2024, time.August, 1))
	s.NoError(err)
	s.False(eligibility.Eligible)
	s.Equal(dto.EligibilityReasonWindow, eligibility.Reasons[0].Code)
}

func (s *RenewalServiceSuite) TestRenewExtendsCurrentPeriod() {
	p := annualPlan("plan_annual")
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	m := activeMembership("memb_1", "holder_1", p,
		testDate(2024, time.January, 1), testDate(2025, time.January, 1))
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	asOf := testDate(2024, time.December, 1)
	resp, err := s.service.Renew(s.GetContext(), dto.RenewRequest{
		MembershipID: "memb_1",
		AsOf:         &asOf,
	})
	s.NoError(err)
	s.Equal(types.MembershipStateActive, resp.Membership.State)
	// Renewal before expiry extends from the scheduled end, not asOf
	s.Equal(testDate(2025, time.January, 1), resp.Membership.StartDate)
	s.Equal(testDate(2026, time.January, 1), *resp.Membership.EndDate)
	s.NotEmpty(resp.InvoiceID)
	s.True(decimal.NewFromInt(120).Equal(resp.AmountInvoiced))
}

func (s *RenewalServiceSuite) TestRenewLapsedInstanceStartsFromRenewalDate() {
	p := annualPlan("plan_annual")
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	m := activeMembership("memb_1", "holder_1", p,
		testDate(2023, time.January, 1), testDate(2024, time.January, 1))
	m.State = types.MembershipStateGrace
	graceEnd := testDate(2024, time.January, 31)
	m.GraceEndDate = &graceEnd
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	asOf := testDate(2024, time.January, 15)
	resp, err := s.service.Renew(s.GetContext(), dto.RenewRequest{
		MembershipID: "memb_1",
		AsOf:         &asOf,
	})
	s.NoError(err)
	s.Equal(types.MembershipStateActive, resp.Membership.State)
	s.Equal(asOf, resp.Membership.StartDate)
	s.Equal(testDate(2025, time.January, 15), *resp.Membership.EndDate)
	s.Nil(resp.Membership.GraceEndDate)
	s.Nil(resp.Membership.SuspendEndDate)
}

func (s *RenewalServiceSuite) TestRenewIneligibleReturnsReasonsWithoutMutating() {
	p := annualPlan("plan_annual")
	p.PaymentRequiredForRenewal = true
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))

	m := activeMembership("memb_1", "holder_1", p,
		testDate(2024, time.January, 1), testDate(2025, time.January, 1))
	m.BalanceDue = decimal.NewFromInt(40)
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	asOf := testDate(2024, time.December, 1)
	resp, err := s.service.Renew(s.GetContext(), dto.RenewRequest{
		MembershipID: "memb_1",
		AsOf:         &asOf,
	})
	s.NoError(err)
	s.Nil(resp.Membership)
	s.NotNil(resp.Eligibility)
	s.False(resp.Eligibility.Eligible)

	stored, _ := s.GetStores().MembershipRepo.Get(s.GetContext(), "memb_1")
	s.Equal(testDate(2025, time.January, 1), *stored.EndDate)
	s.Empty(s.GetStores().Invoicer.Invoices())
}

func (s *RenewalServiceSuite) TestRenewOntoNewPlanCreatesLinkedSuccessor() {
	oldPlan := annualPlan("plan_basic")
	oldPlan.ProrationEnabled = true
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), oldPlan))

	newPlan := annualPlan("plan_premium")
	newPlan.Name = "Individual Premium"
	newPlan.Price = decimal.NewFromInt(360)
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), newPlan))

	// 100-day period for round proration numbers
	m := activeMembership("memb_old", "holder_1", oldPlan,
		testDate(2024, time.January, 1), testDate(2024, time.April, 10))
	m.AmountPaid = decimal.NewFromInt(100)
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	asOf := testDate(2024, time.February, 20)
	newPlanID := "plan_premium"
	resp, err := s.service.Renew(s.GetContext(), dto.RenewRequest{
		MembershipID: "memb_old",
		AsOf:         &asOf,
		NewPlanID:    &newPlanID,
		Alignment:    types.AlignCurrentPeriod,
	})
	s.NoError(err)

	successor := resp.Membership
	s.NotEqual("memb_old", successor.ID)
	s.Equal("plan_premium", successor.PlanID)
	s.Equal(types.MembershipStateActive, successor.State)
	s.Equal("memb_old", *successor.PreviousMembershipID)
	// Aligned to the original period end
	s.Equal(testDate(2024, time.April, 10), *successor.EndDate)

	// Credit 50 for unused time, charge 180 for the remainder at the
	// new price
	s.True(decimal.NewFromInt(130).Equal(resp.AmountInvoiced), resp.AmountInvoiced.String())

	old, _ := s.GetStores().MembershipRepo.Get(s.GetContext(), "memb_old")
	s.Equal(types.MembershipStateCancelled, old.State)
	s.False(old.AutoRenew)
	s.Equal(successor.ID, *old.NextMembershipID)

	// Invoice carries both the credit and the charge line
	invoices := s.GetStores().Invoicer.Invoices()
	s.Len(invoices, 1)
	s.Len(invoices[0].Items, 2)
}

func (s *RenewalServiceSuite) TestRenewTerminatedReinstatesViaSuccessor() {
	p := annualPlan("plan_annual")
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))

	m := activeMembership("memb_old", "holder_1", p,
		testDate(2023, time.January, 1), testDate(2024, time.January, 1))
	m.State = types.MembershipStateTerminated
	suspendEnd := testDate(2024, time.April, 1)
	m.SuspendEndDate = &suspendEnd
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	asOf := testDate(2024, time.June, 1)
	resp, err := s.service.Renew(s.GetContext(), dto.RenewRequest{
		MembershipID: "memb_old",
		AsOf:         &asOf,
	})
	s.NoError(err)

	successor := resp.Membership
	s.NotEqual("memb_old", successor.ID)
	s.Equal(types.MembershipStateActive, successor.State)
	s.Equal(asOf, successor.StartDate)
	s.Equal(testDate(2025, time.June, 1), *successor.EndDate)

	// The terminated record keeps its state and gains the link
	old, _ := s.GetStores().MembershipRepo.Get(s.GetContext(), "memb_old")
	s.Equal(types.MembershipStateTerminated, old.State)
	s.Equal(successor.ID, *old.NextMembershipID)
}

func (s *RenewalServiceSuite) TestRenewBuildsScheduleForNewPaymentOnly() {
	p := annualPlan("plan_deferred")
	p.DeferredRevenueEnabled = true
	p.DeferredRevenuePeriods = 12
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))

	m := activeMembership("memb_1", "holder_1", p,
		testDate(2024, time.January, 1), testDate(2025, time.January, 1))
	// Cumulative history from earlier periods must not leak into the
	// new schedule
	m.AmountPaid = decimal.NewFromInt(999)
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	asOf := testDate(2024, time.December, 1)
	_, err := s.service.Renew(s.GetContext(), dto.RenewRequest{
		MembershipID: "memb_1",
		AsOf:         &asOf,
	})
	s.NoError(err)

	entries, err := s.GetStores().RevenueRepo.ListByMembership(s.GetContext(), "memb_1")
	s.NoError(err)
	s.Len(entries, 12)

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	s.True(decimal.NewFromInt(120).Equal(total), total.String())
}

// Renewal accumulates collections, so recognizing the second period
// after the first was fully recognized stays within the collected
// total.
func (s *RenewalServiceSuite) TestRecognizeAfterRenewal() {
	p := annualPlan("plan_deferred")
	p.DeferredRevenueEnabled = true
	p.DeferredRevenuePeriods = 12
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))

	m := activeMembership("memb_1", "holder_1", p,
		testDate(2024, time.January, 1), testDate(2025, time.January, 1))
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))

	revenueSvc := NewRevenueRecognitionService(newTestServiceParams(&s.BaseServiceTestSuite))
	_, err := revenueSvc.BuildSchedule(s.GetContext(), m, p.Price, 12)
	s.NoError(err)

	entries, err := s.GetStores().RevenueRepo.ListByMembership(s.GetContext(), "memb_1")
	s.NoError(err)
	s.Len(entries, 12)
	for _, e := range entries {
		_, err := revenueSvc.Recognize(s.GetContext(), e.ID)
		s.NoError(err)
	}

	asOf := testDate(2024, time.December, 1)
	resp, err := s.service.Renew(s.GetContext(), dto.RenewRequest{
		MembershipID: "memb_1",
		AsOf:         &asOf,
	})
	s.NoError(err)
	s.True(decimal.NewFromInt(240).Equal(resp.Membership.AmountPaid),
		resp.Membership.AmountPaid.String())

	entries, err = s.GetStores().RevenueRepo.ListByMembership(s.GetContext(), "memb_1")
	s.NoError(err)
	s.Len(entries, 24)

	for _, e := range entries {
		if e.State != types.RecognitionEntryStateScheduled {
			continue
		}
		_, err := revenueSvc.Recognize(s.GetContext(), e.ID)
		s.NoError(err)
	}

	recognized := decimal.Zero
	entries, err = s.GetStores().RevenueRepo.ListByMembership(s.GetContext(), "memb_1")
	s.NoError(err)
	for _, e := range entries {
		s.Equal(types.RecognitionEntryStateProcessed, e.State)
		recognized = recognized.Add(e.Amount)
	}
	s.True(decimal.NewFromInt(240).Equal(recognized), recognized.String())
}

func (s *RenewalServiceSuite) TestSweepDueRenewals() {
	p := annualPlan("plan_annual")
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))

	duesPlan := annualPlan("plan_dues")
	duesPlan.PaymentRequiredForRenewal = true
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), duesPlan))

	// Due and eligible
	due := activeMembership("memb_due", "holder_1", p,
		testDate(2023, time.January, 1), testDate(2024, time.January, 1))
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), due))

	// Due but blocked on dues
	blocked := activeMembership("memb_blocked", "holder_2", duesPlan,
		testDate(2023, time.January, 1), testDate(2024, time.January, 1))
	blocked.BalanceDue = decimal.NewFromInt(40)
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), blocked))

	// Not yet due
	current := activeMembership("memb_current", "holder_3", p,
		testDate(2024, time.January, 1), testDate(2025, time.January, 1))
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), current))

	// Due but auto renew disabled
	manual := activeMembership("memb_manual", "holder_4", p,
		testDate(2023, time.January, 1), testDate(2024, time.January, 1))
	manual.AutoRenew = false
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), manual))

	resp, err := s.service.SweepDueRenewals(s.GetContext(), testDate(2024, time.January, 15))
	s.NoError(err)
	s.Len(resp.Items, 2)
	s.Equal(1, resp.TotalSuccess)
	s.Equal(1, resp.TotalSkipped)
	s.Equal(0, resp.TotalFailed)

	renewed, _ := s.GetStores().MembershipRepo.Get(s.GetContext(), "memb_due")
	s.Equal(testDate(2025, time.January, 15), *renewed.EndDate)

	untouched, _ := s.GetStores().MembershipRepo.Get(s.GetContext(), "memb_blocked")
	s.Equal(testDate(2024, time.January, 1), *untouched.EndDate)

	notDue, _ := s.GetStores().MembershipRepo.Get(s.GetContext(), "memb_current")
	s.Equal(testDate(2025, time.January, 1), *notDue.EndDate)
}
