package proration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amshq/amscore/internal/types"
)

// Params holds all necessary input for calculating proration.
type Params struct {
	// Membership context
	MembershipID       string    // ID of the instance being changed (empty for mid-period starts)
	CurrentPeriodStart time.Time // Start of the current billing period
	CurrentPeriodEnd   time.Time // End of the current billing period
	EffectiveDate      time.Time // Effective date of the change

	// Change details
	Action types.ProrationAction

	// OldAmountPaid is the amount paid for the current period on the
	// instance being credited (upgrade, downgrade, cancellation)
	OldAmountPaid decimal.Decimal

	// PreviousCreditsIssued is the sum of credits already issued
	// against OldAmountPaid in this period
	PreviousCreditsIssued decimal.Decimal

	// NewPlanPrice is the full-period price of the incoming plan
	// (mid-period start, upgrade, downgrade)
	NewPlanPrice decimal.Decimal

	// Alignment selects whether the new plan is priced to end at the
	// current period end or as a fresh full period from the effective
	// date. FreshPeriodEnd must be set when AlignFreshPeriod is used.
	Alignment      types.ChangeAlignment
	FreshPeriodEnd time.Time

	Currency string
}

// LineItem represents a single credit or charge line item.
type LineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`     // Positive for charge, negative for credit
	StartDate   time.Time       `json:"start_date"` // Period this line item covers
	EndDate     time.Time       `json:"end_date"`   // Period this line item covers
	IsCredit    bool            `json:"is_credit"`
}

// Result holds the output of a proration calculation.
type Result struct {
	CreditItems   []LineItem            // Items crediting the member for unused time
	ChargeItems   []LineItem            // Items charging the member for the new holding
	NetAmount     decimal.Decimal       // Sum of charges plus (negative) credits; may be negative
	Action        types.ProrationAction // The action that produced this result
	EffectiveDate time.Time             // When the change takes effect
	Currency      string
}

// Calculator defines the interface for proration calculations
type Calculator interface {
	Calculate(ctx context.Context, params Params) (*Result, error)
}
