package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/amshq/amscore/internal/domain/membership"
	"github.com/amshq/amscore/internal/types"
)

// Eligibility reason codes
const (
	EligibilityReasonState    = "state_not_renewable"
	EligibilityReasonDues     = "dues_not_current"
	EligibilityReasonLifetime = "lifetime_plan"
	EligibilityReasonWindow   = "renewal_window_closed"
)

// EligibilityReason is one blocking reason preventing a renewal
type EligibilityReason struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RenewalEligibility is the structured result of an is-renewable check
type RenewalEligibility struct {
	MembershipID string              `json:"membership_id"`
	Eligible     bool                `json:"eligible"`
	Reasons      []EligibilityReason `json:"reasons,omitempty"`
}

// RenewRequest renews an instance, optionally changing the plan. When
// NewPlanID is set, a linked successor instance is created; Alignment
// chooses whether the successor keeps the current period end or starts
// a fresh full period.
type RenewRequest struct {
	MembershipID string                `json:"membership_id" validate:"required"`
	AsOf         *time.Time            `json:"as_of,omitempty"`
	NewPlanID    *string               `json:"new_plan_id,omitempty"`
	Alignment    types.ChangeAlignment `json:"alignment,omitempty"`
}

// RenewalResponse is the outcome of a renewal attempt. When the
// instance is not eligible, Eligibility carries the blocking reasons
// and no state was mutated.
type RenewalResponse struct {
	Membership     *membership.Membership `json:"membership,omitempty"`
	Eligibility    *RenewalEligibility    `json:"eligibility,omitempty"`
	InvoiceID      string                 `json:"invoice_id,omitempty"`
	AmountInvoiced decimal.Decimal        `json:"amount_invoiced,omitempty"`
}

// RenewalSweepResponseItem reports the outcome for one instance
type RenewalSweepResponseItem struct {
	MembershipID string `json:"membership_id"`
	Renewed      bool   `json:"renewed"`
	Skipped      bool   `json:"skipped"`
	Reason       string `json:"reason,omitempty"`
	Error        string `json:"error,omitempty"`
}

// RenewalSweepResponse is the per-record outcome list of a renewal sweep
type RenewalSweepResponse struct {
	Items        []*RenewalSweepResponseItem `json:"items"`
	TotalSuccess int                         `json:"total_success"`
	TotalSkipped int                         `json:"total_skipped"`
	TotalFailed  int                         `json:"total_failed"`
	StartAt      time.Time                   `json:"start_at"`
}
