package dto

import (
	"github.com/shopspring/decimal"

	"github.com/amshq/amscore/internal/domain/plan"
	"github.com/amshq/amscore/internal/types"
)

// CreatePlanRequest carries the administrator-supplied plan
// configuration. Lifecycle windows may be omitted entirely to inherit
// the configured defaults; partial overrides are rejected.
type CreatePlanRequest struct {
	Name     string                   `json:"name" validate:"required"`
	Category types.MembershipCategory `json:"category" validate:"required"`
	Price    decimal.Decimal          `json:"price"`
	Currency string                   `json:"currency" validate:"required,len=3"`

	BillingPeriodValue int                     `json:"billing_period_value"`
	BillingPeriodUnit  types.BillingPeriodUnit `json:"billing_period_unit"`

	GraceDays     int `json:"grace_days"`
	SuspendDays   int `json:"suspend_days"`
	TerminateDays int `json:"terminate_days"`

	AutoRenewal               bool `json:"auto_renewal"`
	ProrationEnabled          bool `json:"proration_enabled"`
	DeferredRevenueEnabled    bool `json:"deferred_revenue_enabled"`
	DeferredRevenuePeriods    int  `json:"deferred_revenue_periods"`
	PaymentRequiredForRenewal bool `json:"payment_required_for_renewal"`
}

// ToPlan converts the request into an unvalidated domain plan
func (r *CreatePlanRequest) ToPlan() *plan.Plan {
	return &plan.Plan{
		ID:       types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:     r.Name,
		Category: r.Category,
		Price:    r.Price,
		Currency: r.Currency,
		BillingPeriod: types.BillingPeriod{
			Value: r.BillingPeriodValue,
			Unit:  r.BillingPeriodUnit,
		},
		GraceDays:                 r.GraceDays,
		SuspendDays:               r.SuspendDays,
		TerminateDays:             r.TerminateDays,
		AutoRenewal:               r.AutoRenewal,
		ProrationEnabled:          r.ProrationEnabled,
		DeferredRevenueEnabled:    r.DeferredRevenueEnabled,
		DeferredRevenuePeriods:    r.DeferredRevenuePeriods,
		PaymentRequiredForRenewal: r.PaymentRequiredForRenewal,
	}
}

// PlanResponse wraps a plan definition
type PlanResponse struct {
	*plan.Plan
}
