package plan

import (
	"github.com/shopspring/decimal"

	ierr "github.com/amshq/amscore/internal/errors"
	"github.com/amshq/amscore/internal/types"
)

// Plan is the static configuration for a membership or subscription
// product: price, billing cycle and lifecycle windows. Immutable once
// referenced by active instances except for forward-looking fields
// (auto renewal, proration and deferred revenue flags).
type Plan struct {
	// ID is the unique identifier for the plan
	ID string `db:"id" json:"id"`

	// Name is the display name of the plan
	Name string `db:"name" json:"name"`

	// Category determines uniqueness semantics: parent plans allow a
	// single active holding per member
	Category types.MembershipCategory `db:"category" json:"category"`

	// Price is the full-period price of the plan
	Price decimal.Decimal `db:"price" json:"price"`

	// Currency is the lowercase 3 letter ISO code
	Currency string `db:"currency" json:"currency"`

	// BillingPeriod is the renewal cycle; the zero value means lifetime
	BillingPeriod types.BillingPeriod `db:"billing_period" json:"billing_period"`

	// Lifecycle windows in days, measured from the previous boundary:
	// grace starts at expiry, suspension at grace end, termination at
	// suspension end. Zero values fall back to configured defaults.
	GraceDays     int `db:"grace_days" json:"grace_days"`
	SuspendDays   int `db:"suspend_days" json:"suspend_days"`
	TerminateDays int `db:"terminate_days" json:"terminate_days"`

	// AutoRenewal enables the renewal sweep for instances of this plan
	AutoRenewal bool `db:"auto_renewal" json:"auto_renewal"`

	// ProrationEnabled allows partial-period pricing on mid-period
	// starts and plan changes
	ProrationEnabled bool `db:"proration_enabled" json:"proration_enabled"`

	// DeferredRevenueEnabled builds a recognition schedule on
	// activation and renewal instead of recognizing at payment time
	DeferredRevenueEnabled bool `db:"deferred_revenue_enabled" json:"deferred_revenue_enabled"`

	// DeferredRevenuePeriods is the number of monthly recognition
	// entries per collected payment; 0 uses the configured default
	DeferredRevenuePeriods int `db:"deferred_revenue_periods" json:"deferred_revenue_periods"`

	// PaymentRequiredForRenewal blocks renewal while dues are
	// outstanding
	PaymentRequiredForRenewal bool `db:"payment_required_for_renewal" json:"payment_required_for_renewal"`

	types.BaseModel
}

// IsLifetime reports whether instances of this plan never expire
func (p *Plan) IsLifetime() bool {
	return p.BillingPeriod.IsLifetime()
}

// HasLifecycleOverride reports whether the plan carries its own
// grace/suspend/terminate windows instead of the configured defaults.
// Plan-level overrides always win.
func (p *Plan) HasLifecycleOverride() bool {
	return p.GraceDays > 0 || p.SuspendDays > 0 || p.TerminateDays > 0
}

// Validate enforces configuration invariants at creation time so they
// can never reach an instance.
func (p *Plan) Validate() error {
	if p.Name == "" {
		return ierr.NewError("plan name is required").
			WithHint("Plan name is required").
			Mark(ierr.ErrValidation)
	}

	if err := p.Category.Validate(); err != nil {
		return err
	}

	if p.Price.IsNegative() {
		return ierr.NewError("plan price cannot be negative").
			WithHint("Plan price cannot be negative").
			WithReportableDetails(map[string]any{
				"price": p.Price.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if len(p.Currency) != 3 {
		return ierr.NewError("invalid currency").
			WithHint("Currency must be a 3 letter ISO code").
			WithReportableDetails(map[string]any{
				"currency": p.Currency,
			}).
			Mark(ierr.ErrValidation)
	}

	if err := p.BillingPeriod.Validate(); err != nil {
		return err
	}

	if p.HasLifecycleOverride() {
		if p.GraceDays <= 0 || p.SuspendDays <= 0 || p.TerminateDays <= 0 ||
			p.GraceDays >= p.SuspendDays || p.SuspendDays >= p.TerminateDays {
			return ierr.NewError("invalid lifecycle windows").
				WithHint("Grace days must be less than suspend days, which must be less than terminate days").
				WithReportableDetails(map[string]any{
					"grace_days":     p.GraceDays,
					"suspend_days":   p.SuspendDays,
					"terminate_days": p.TerminateDays,
				}).
				Mark(ierr.ErrValidation)
		}
	}

	if p.DeferredRevenuePeriods < 0 {
		return ierr.NewError("invalid deferred revenue periods").
			WithHint("Deferred revenue periods cannot be negative").
			Mark(ierr.ErrValidation)
	}

	return nil
}
