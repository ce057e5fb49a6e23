package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/amshq/amscore/internal/domain/membership"
	"github.com/amshq/amscore/internal/types"
)

// CreateMembershipRequest records a purchase event as a draft instance
type CreateMembershipRequest struct {
	HolderID  string     `json:"holder_id" validate:"required"`
	PlanID    string     `json:"plan_id" validate:"required"`
	AutoRenew *bool      `json:"auto_renew,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
}

// ActivateMembershipRequest activates a draft instance. When
// PeriodStart/PeriodEnd are both set and the plan allows proration,
// the instance is aligned to that period and charged a prorated
// amount for the remainder.
type ActivateMembershipRequest struct {
	MembershipID string     `json:"membership_id" validate:"required"`
	AsOf         *time.Time `json:"as_of,omitempty"`
	PeriodStart  *time.Time `json:"period_start,omitempty"`
	PeriodEnd    *time.Time `json:"period_end,omitempty"`
}

// MembershipResponse wraps a membership instance
type MembershipResponse struct {
	*membership.Membership

	// InvoiceID is set when the operation raised an invoice
	InvoiceID string `json:"invoice_id,omitempty"`

	// AmountInvoiced is the amount of the raised invoice
	AmountInvoiced decimal.Decimal `json:"amount_invoiced,omitempty"`
}

// LifecycleSweepResponseItem reports the outcome for one instance
type LifecycleSweepResponseItem struct {
	MembershipID string                  `json:"membership_id"`
	FromState    types.MembershipState   `json:"from_state"`
	ToState      types.MembershipState   `json:"to_state"`
	Transitions  []types.MembershipState `json:"transitions,omitempty"`
	Success      bool                    `json:"success"`
	Error        string                  `json:"error,omitempty"`
}

// LifecycleSweepResponse is the per-record outcome list of a lifecycle
// sweep; the sweep itself never raises to the caller
type LifecycleSweepResponse struct {
	Items        []*LifecycleSweepResponseItem `json:"items"`
	TotalSuccess int                           `json:"total_success"`
	TotalFailed  int                           `json:"total_failed"`
	StartAt      time.Time                     `json:"start_at"`
}
