package types

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	ierr "github.com/amshq/amscore/internal/errors"
)

// BillingPeriodUnit is the calendar unit of a billing period
type BillingPeriodUnit string

const (
	BillingPeriodUnitDays   BillingPeriodUnit = "days"
	BillingPeriodUnitWeeks  BillingPeriodUnit = "weeks"
	BillingPeriodUnitMonths BillingPeriodUnit = "months"
	BillingPeriodUnitYears  BillingPeriodUnit = "years"
)

func (u BillingPeriodUnit) String() string {
	return string(u)
}

func (u BillingPeriodUnit) Validate() error {
	allowed := []BillingPeriodUnit{
		BillingPeriodUnitDays,
		BillingPeriodUnitWeeks,
		BillingPeriodUnitMonths,
		BillingPeriodUnitYears,
	}
	if !lo.Contains(allowed, u) {
		return ierr.NewError("invalid billing period unit").
			WithHint("Billing period unit must be days, weeks, months or years").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": u,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Display approximations only. Exact calendar arithmetic is used for
// NextDate.
var (
	approxDaysPerMonth = decimal.NewFromFloat(30.44)
	approxDaysPerYear  = decimal.NewFromFloat(365.25)
)

// BillingPeriod is a named duration used to compute the next billing
// date. The zero value denotes a lifetime holding (no renewal cycle).
type BillingPeriod struct {
	Value int               `json:"value" db:"billing_period_value"`
	Unit  BillingPeriodUnit `json:"unit" db:"billing_period_unit"`
}

// NewBillingPeriod creates a validated billing period
func NewBillingPeriod(value int, unit BillingPeriodUnit) (BillingPeriod, error) {
	p := BillingPeriod{Value: value, Unit: unit}
	if err := p.Validate(); err != nil {
		return BillingPeriod{}, err
	}
	return p, nil
}

// LifetimeBillingPeriod returns the zero period used by lifetime plans
func LifetimeBillingPeriod() BillingPeriod {
	return BillingPeriod{}
}

// IsLifetime reports whether the period denotes a lifetime holding
func (p BillingPeriod) IsLifetime() bool {
	return p.Value == 0 && p.Unit == ""
}

func (p BillingPeriod) String() string {
	if p.IsLifetime() {
		return "lifetime"
	}
	return fmt.Sprintf("%d %s", p.Value, p.Unit)
}

func (p BillingPeriod) Validate() error {
	if p.IsLifetime() {
		return nil
	}
	if p.Value <= 0 {
		return ierr.NewError("invalid billing period").
			WithHint("Billing period value must be a positive integer").
			WithReportableDetails(map[string]any{
				"value": p.Value,
				"unit":  p.Unit,
			}).
			Mark(ierr.ErrValidation)
	}
	return p.Unit.Validate()
}

// NextDate computes the billing date one period after start using
// exact calendar arithmetic with month-end clamping, so Jan 31 plus
// one month lands on the last day of February.
func (p BillingPeriod) NextDate(start time.Time) time.Time {
	switch p.Unit {
	case BillingPeriodUnitDays:
		return AddClampedDate(start, 0, 0, p.Value)
	case BillingPeriodUnitWeeks:
		return AddClampedDate(start, 0, 0, 7*p.Value)
	case BillingPeriodUnitMonths:
		return AddClampedDate(start, 0, p.Value, 0)
	case BillingPeriodUnitYears:
		return AddClampedDate(start, p.Value, 0, 0)
	default:
		return start
	}
}

// TotalDays returns the approximate length of the period in days,
// for display and reporting only: months count as 30.44 days and
// years as 365.25.
func (p BillingPeriod) TotalDays() decimal.Decimal {
	value := decimal.NewFromInt(int64(p.Value))
	switch p.Unit {
	case BillingPeriodUnitDays:
		return value
	case BillingPeriodUnitWeeks:
		return value.Mul(decimal.NewFromInt(7))
	case BillingPeriodUnitMonths:
		return value.Mul(approxDaysPerMonth)
	case BillingPeriodUnitYears:
		return value.Mul(approxDaysPerYear)
	default:
		return decimal.Zero
	}
}
