package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/amshq/amscore/internal/api/dto"
	"github.com/amshq/amscore/internal/domain/membership"
	ierr "github.com/amshq/amscore/internal/errors"
	"github.com/amshq/amscore/internal/testutil"
	"github.com/amshq/amscore/internal/types"
)

type RevenueRecognitionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service RevenueRecognitionService
}

func TestRevenueRecognitionService(t *testing.T) {
	suite.Run(t, new(RevenueRecognitionServiceSuite))
}

func (s *RevenueRecognitionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewRevenueRecognitionService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *RevenueRecognitionServiceSuite) seedMembership(id string, amountPaid int64) *membership.Membership {
	p := annualPlan("plan_annual")
	_ = s.GetStores().PlanRepo.Create(s.GetContext(), p)

	m := activeMembership(id, "holder_1", p,
		testDate(2024, time.January, 1), testDate(2025, time.January, 1))
	m.AmountPaid = decimal.NewFromInt(amountPaid)
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), m))
	return m
}

func (s *RevenueRecognitionServiceSuite) TestBuildScheduleEvenSplit() {
	m := s.seedMembership("memb_1", 1200)

	entries, err := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)
	s.NoError(err)
	s.Len(entries, 12)

	for i, entry := range entries {
		s.True(decimal.NewFromInt(100).Equal(entry.Amount), entry.Amount.String())
		s.Equal(types.RecognitionEntryStateScheduled, entry.State)
		s.Equal(testDate(2024, time.January, 1).AddDate(0, i+1, 0), entry.RecognitionDate)
		s.False(entry.IsAdjustment)
	}
}

func (s *RevenueRecognitionServiceSuite) TestBuildScheduleRemainderOnFinalEntry() {
	m := s.seedMembership("memb_1", 100)

	entries, err := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(100), 3)
	s.NoError(err)
	s.Len(entries, 3)

	s.True(decimal.NewFromFloat(33.33).Equal(entries[0].Amount))
	s.True(decimal.NewFromFloat(33.33).Equal(entries[1].Amount))
	s.True(decimal.NewFromFloat(33.34).Equal(entries[2].Amount))

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	s.True(decimal.NewFromInt(100).Equal(total))
}

func (s *RevenueRecognitionServiceSuite) TestBuildScheduleRejectsBadInput() {
	m := s.seedMembership("memb_1", 100)

	_, err := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(100), 0)
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.BuildSchedule(s.GetContext(), m, decimal.Zero, 3)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *RevenueRecognitionServiceSuite) TestRecognizePostsAndMarksProcessed() {
	m := s.seedMembership("memb_1", 1200)
	entries, err := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)
	s.NoError(err)

	entry, err := s.service.Recognize(s.GetContext(), entries[0].ID)
	s.NoError(err)
	s.Equal(types.RecognitionEntryStateProcessed, entry.State)
	s.NotNil(entry.PostingID)

	postings := s.GetStores().Ledger.Postings()
	s.Len(postings, 1)
	s.Equal(entries[0].ID, postings[0].EntryID)
	s.True(decimal.NewFromInt(100).Equal(postings[0].Amount))
}

func (s *RevenueRecognitionServiceSuite) TestRecognizeProcessedEntryRejected() {
	m := s.seedMembership("memb_1", 1200)
	entries, _ := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)

	_, err := s.service.Recognize(s.GetContext(), entries[0].ID)
	s.NoError(err)

	_, err = s.service.Recognize(s.GetContext(), entries[0].ID)
	s.Error(err)
	s.True(ierr.IsInvalidState(err))
}

func (s *RevenueRecognitionServiceSuite) TestRecognizeLedgerFailureLeavesEntryScheduled() {
	m := s.seedMembership("memb_1", 1200)
	entries, _ := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)

	s.GetStores().Ledger.FailPostings = 1
	_, err := s.service.Recognize(s.GetContext(), entries[0].ID)
	s.Error(err)
	s.True(ierr.IsCollaborator(err))

	stored, err := s.GetStores().RevenueRepo.Get(s.GetContext(), entries[0].ID)
	s.NoError(err)
	s.Equal(types.RecognitionEntryStateScheduled, stored.State)
	s.Nil(stored.PostingID)
	s.Empty(s.GetStores().Ledger.Postings())

	// The next attempt succeeds
	_, err = s.service.Recognize(s.GetContext(), entries[0].ID)
	s.NoError(err)
}

func (s *RevenueRecognitionServiceSuite) TestRecognizeCannotExceedAmountPaid() {
	// Only 100 was collected but the schedule claims 300
	m := s.seedMembership("memb_1", 100)
	entries, _ := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(300), 3)

	_, err := s.service.Recognize(s.GetContext(), entries[0].ID)
	s.NoError(err)

	_, err = s.service.Recognize(s.GetContext(), entries[1].ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *RevenueRecognitionServiceSuite) TestReverseCreatesNegatedLinkedEntry() {
	m := s.seedMembership("memb_1", 1200)
	entries, _ := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)

	_, err := s.service.Recognize(s.GetContext(), entries[0].ID)
	s.NoError(err)

	reversal, err := s.service.Reverse(s.GetContext(), entries[0].ID, "billing correction")
	s.NoError(err)
	s.True(decimal.NewFromInt(-100).Equal(reversal.Amount))
	s.True(reversal.IsAdjustment)
	s.Equal(entries[0].ID, *reversal.OriginalEntryID)
	s.Equal(types.RecognitionEntryStateProcessed, reversal.State)
	s.NotNil(reversal.PostingID)

	// The original entry is retained, and the pair nets to zero
	original, err := s.GetStores().RevenueRepo.Get(s.GetContext(), entries[0].ID)
	s.NoError(err)
	s.Equal(types.RecognitionEntryStateProcessed, original.State)
	s.True(original.Amount.Add(reversal.Amount).IsZero())

	s.Len(s.GetStores().Ledger.Postings(), 2)
}

func (s *RevenueRecognitionServiceSuite) TestReverseScheduledEntryRejected() {
	m := s.seedMembership("memb_1", 1200)
	entries, _ := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)

	_, err := s.service.Reverse(s.GetContext(), entries[0].ID, "too early")
	s.Error(err)
	s.True(ierr.IsInvalidState(err))
}

func (s *RevenueRecognitionServiceSuite) TestAdjustScheduledEntryInPlace() {
	m := s.seedMembership("memb_1", 1200)
	entries, _ := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)

	newAmount := decimal.NewFromInt(90)
	newDate := testDate(2024, time.June, 15)
	adjusted, err := s.service.Adjust(s.GetContext(), entries[0].ID, dto.AdjustEntryRequest{
		NewAmount: &newAmount,
		NewDate:   &newDate,
		Reason:    "partial refund issued",
	})
	s.NoError(err)
	s.Equal(entries[0].ID, adjusted.ID)
	s.True(newAmount.Equal(adjusted.Amount))
	s.Equal(newDate, adjusted.RecognitionDate)
	s.Equal(types.RecognitionEntryStateScheduled, adjusted.State)
}

func (s *RevenueRecognitionServiceSuite) TestAdjustAboveThresholdRequiresApproval() {
	m := s.seedMembership("memb_1", 1200)
	entries, _ := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)

	// Delta of 150 exceeds the default threshold of 100
	newAmount := decimal.NewFromInt(250)
	_, err := s.service.Adjust(s.GetContext(), entries[0].ID, dto.AdjustEntryRequest{
		NewAmount: &newAmount,
	})
	s.Error(err)
	s.True(ierr.IsApprovalRequired(err))

	// Approved, the same change applies
	adjusted, err := s.service.Adjust(s.GetContext(), entries[0].ID, dto.AdjustEntryRequest{
		NewAmount: &newAmount,
		Approved:  true,
	})
	s.NoError(err)
	s.True(newAmount.Equal(adjusted.Amount))
}

func (s *RevenueRecognitionServiceSuite) TestAdjustProcessedEntryReversesAndReplaces() {
	m := s.seedMembership("memb_1", 1200)
	entries, _ := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)

	_, err := s.service.Recognize(s.GetContext(), entries[0].ID)
	s.NoError(err)

	newAmount := decimal.NewFromInt(80)
	replacement, err := s.service.Adjust(s.GetContext(), entries[0].ID, dto.AdjustEntryRequest{
		NewAmount: &newAmount,
		Reason:    "rate corrected",
	})
	s.NoError(err)
	s.NotEqual(entries[0].ID, replacement.ID)
	s.True(newAmount.Equal(replacement.Amount))
	s.True(replacement.IsAdjustment)
	s.Equal(entries[0].ID, *replacement.OriginalEntryID)
	s.Equal(types.RecognitionEntryStateScheduled, replacement.State)

	// Full schedule now holds original, reversal and replacement
	all, err := s.GetStores().RevenueRepo.ListByMembership(s.GetContext(), "memb_1")
	s.NoError(err)
	s.Len(all, 14)
}

func (s *RevenueRecognitionServiceSuite) TestAdjustEmptyRequestRejected() {
	m := s.seedMembership("memb_1", 1200)
	entries, _ := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)

	_, err := s.service.Adjust(s.GetContext(), entries[0].ID, dto.AdjustEntryRequest{})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *RevenueRecognitionServiceSuite) TestSweepDueRecognitions() {
	m := s.seedMembership("memb_1", 1200)
	_, err := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)
	s.NoError(err)

	// Six months in, six entries are due
	resp, err := s.service.SweepDueRecognitions(s.GetContext(), testDate(2024, time.July, 1))
	s.NoError(err)
	s.Len(resp.Items, 6)
	s.Equal(6, resp.TotalSuccess)
	s.Equal(0, resp.TotalFailed)

	// Re-running the sweep finds nothing left to do
	resp, err = s.service.SweepDueRecognitions(s.GetContext(), testDate(2024, time.July, 1))
	s.NoError(err)
	s.Empty(resp.Items)
}

func (s *RevenueRecognitionServiceSuite) TestSweepIsolatesPerEntryFailures() {
	m := s.seedMembership("memb_1", 1200)
	_, err := s.service.BuildSchedule(s.GetContext(), m, decimal.NewFromInt(1200), 12)
	s.NoError(err)

	// The first posting fails; the rest of the batch continues
	s.GetStores().Ledger.FailPostings = 1

	resp, err := s.service.SweepDueRecognitions(s.GetContext(), testDate(2024, time.July, 1))
	s.NoError(err)
	s.Len(resp.Items, 6)
	s.Equal(5, resp.TotalSuccess)
	s.Equal(1, resp.TotalFailed)

	// The failed entry is picked up on the next run
	resp, err = s.service.SweepDueRecognitions(s.GetContext(), testDate(2024, time.July, 1))
	s.NoError(err)
	s.Len(resp.Items, 1)
	s.Equal(1, resp.TotalSuccess)
}
