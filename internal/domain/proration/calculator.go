package proration

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/amshq/amscore/internal/errors"
	"github.com/amshq/amscore/internal/types"
)

// NewCalculator creates the default day-based proration calculator.
func NewCalculator() Calculator {
	return &dayBasedCalculator{}
}

// Fraction computes the remaining share of a billing period as of the
// effective date, clamped to [0, 1]. A zero-length period counts as a
// whole remaining period rather than dividing by zero.
func Fraction(periodStart, periodEnd, effectiveDate time.Time) decimal.Decimal {
	totalDays := types.DaysBetween(periodStart, periodEnd)
	if totalDays <= 0 {
		return decimal.NewFromInt(1)
	}

	remainingDays := types.DaysBetween(effectiveDate, periodEnd)
	if remainingDays <= 0 {
		return decimal.Zero
	}
	if remainingDays > totalDays {
		remainingDays = totalDays
	}

	return decimal.NewFromInt(int64(remainingDays)).
		Div(decimal.NewFromInt(int64(totalDays)))
}

// Prorate applies the remaining-period fraction to an amount.
func Prorate(amount decimal.Decimal, periodStart, periodEnd, effectiveDate time.Time) decimal.Decimal {
	return amount.Mul(Fraction(periodStart, periodEnd, effectiveDate))
}

// dayBasedCalculator implements the default day-based proration logic.
type dayBasedCalculator struct{}

func (c *dayBasedCalculator) Calculate(ctx context.Context, params Params) (*Result, error) {
	if err := validateParams(params); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("invalid proration params: %v", err).
			Mark(ierr.ErrValidation)
	}

	coefficient := Fraction(params.CurrentPeriodStart, params.CurrentPeriodEnd, params.EffectiveDate)

	result := &Result{
		NetAmount:     decimal.Zero,
		Action:        params.Action,
		EffectiveDate: params.EffectiveDate,
		Currency:      params.Currency,
		CreditItems:   []LineItem{},
		ChargeItems:   []LineItem{},
	}

	// Credits are issued for the unused remainder of the period already
	// paid for when the change replaces or ends the current holding.
	shouldIssueCredit := params.Action == types.ProrationActionUpgrade ||
		params.Action == types.ProrationActionDowngrade ||
		params.Action == types.ProrationActionCancellation

	if shouldIssueCredit {
		potentialCredit := params.OldAmountPaid.Mul(coefficient)
		cappedCredit := capCreditAmount(potentialCredit, params.OldAmountPaid, params.PreviousCreditsIssued)

		if cappedCredit.GreaterThan(decimal.Zero) {
			creditItem := LineItem{
				Description: creditDescription(params.Action),
				Amount:      cappedCredit.Neg(),
				StartDate:   params.EffectiveDate,
				EndDate:     params.CurrentPeriodEnd,
				IsCredit:    true,
			}
			result.CreditItems = append(result.CreditItems, creditItem)
			result.NetAmount = result.NetAmount.Add(creditItem.Amount)
		}
	}

	// Charges are issued for the incoming holding on mid-period starts
	// and plan changes.
	shouldIssueCharge := params.Action == types.ProrationActionMidPeriodStart ||
		params.Action == types.ProrationActionUpgrade ||
		params.Action == types.ProrationActionDowngrade

	if shouldIssueCharge {
		var charge decimal.Decimal
		chargeEnd := params.CurrentPeriodEnd

		if params.Alignment == types.AlignFreshPeriod {
			// Fresh full period from the effective date; no proration.
			charge = params.NewPlanPrice
			chargeEnd = params.FreshPeriodEnd
		} else {
			charge = params.NewPlanPrice.Mul(coefficient)
		}

		if charge.GreaterThan(decimal.Zero) {
			chargeItem := LineItem{
				Description: chargeDescription(params.Action),
				Amount:      charge,
				StartDate:   params.EffectiveDate,
				EndDate:     chargeEnd,
				IsCredit:    false,
			}
			result.ChargeItems = append(result.ChargeItems, chargeItem)
			result.NetAmount = result.NetAmount.Add(chargeItem.Amount)
		}
	}

	return result, nil
}

// capCreditAmount ensures credits do not exceed the original amount
// paid, considering any previous credits already issued against it.
func capCreditAmount(potentialCredit, originalAmountPaid, previousCreditsIssued decimal.Decimal) decimal.Decimal {
	if potentialCredit.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	if potentialCredit.GreaterThan(originalAmountPaid) {
		potentialCredit = originalAmountPaid
	}

	availableCredit := originalAmountPaid.Sub(previousCreditsIssued)
	if potentialCredit.GreaterThan(availableCredit) {
		potentialCredit = availableCredit
	}

	if potentialCredit.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	return potentialCredit
}

func creditDescription(action types.ProrationAction) string {
	switch action {
	case types.ProrationActionCancellation:
		return "Credit for unused time on cancelled membership"
	case types.ProrationActionDowngrade:
		return "Credit for unused time on previous plan before downgrade"
	case types.ProrationActionUpgrade:
		return "Credit for unused time on previous plan before upgrade"
	default:
		return "Credit for unused time"
	}
}

func chargeDescription(action types.ProrationAction) string {
	switch action {
	case types.ProrationActionUpgrade:
		return "Prorated charge for upgrade"
	case types.ProrationActionDowngrade:
		return "Prorated charge for downgrade"
	case types.ProrationActionMidPeriodStart:
		return "Prorated charge for mid-period start"
	default:
		return "Prorated charge"
	}
}

// validateParams checks if essential parameters are provided.
func validateParams(params Params) error {
	if err := params.Action.Validate(); err != nil {
		return err
	}
	if params.EffectiveDate.IsZero() {
		return fmt.Errorf("effective date is required")
	}
	if params.CurrentPeriodStart.IsZero() || params.CurrentPeriodEnd.IsZero() {
		return fmt.Errorf("billing period start and end dates are required")
	}
	if params.CurrentPeriodEnd.Before(params.CurrentPeriodStart) {
		return fmt.Errorf("billing period end date cannot be before start date")
	}

	switch params.Action {
	case types.ProrationActionMidPeriodStart:
		if params.NewPlanPrice.IsNegative() {
			return fmt.Errorf("new plan price cannot be negative for mid_period_start action")
		}
	case types.ProrationActionUpgrade, types.ProrationActionDowngrade:
		if params.OldAmountPaid.IsNegative() || params.NewPlanPrice.IsNegative() {
			return fmt.Errorf("amounts cannot be negative for plan change actions")
		}
		if params.Alignment == types.AlignFreshPeriod && params.FreshPeriodEnd.IsZero() {
			return fmt.Errorf("fresh period end is required when aligning to a fresh period")
		}
	case types.ProrationActionCancellation:
		if params.OldAmountPaid.IsNegative() {
			return fmt.Errorf("amount paid cannot be negative for cancellation action")
		}
	}

	return nil
}
