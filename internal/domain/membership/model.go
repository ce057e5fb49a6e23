package membership

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/amshq/amscore/internal/types"
)

// Membership is a concrete holding of a plan by a member. All state
// mutations go through the lifecycle service; the derived dates
// (end, grace end, suspension end) are owned by the sweep.
type Membership struct {
	// ID is the unique identifier for the membership instance
	ID string `db:"id" json:"id"`

	// HolderID identifies the member holding this instance
	HolderID string `db:"holder_id" json:"holder_id"`

	// PlanID references the plan definition this instance was sold under
	PlanID string `db:"plan_id" json:"plan_id"`

	// Category is denormalized from the plan so uniqueness checks do
	// not need a plan lookup
	Category types.MembershipCategory `db:"category" json:"category"`

	// State is the current lifecycle state
	State types.MembershipState `db:"state" json:"state"`

	// StartDate is when the current paid period began
	StartDate time.Time `db:"start_date" json:"start_date"`

	// EndDate is when the current paid period ends; nil for lifetime
	EndDate *time.Time `db:"end_date" json:"end_date"`

	// GraceEndDate is when the grace window closes and the instance
	// moves to suspended; set on the active -> grace transition
	GraceEndDate *time.Time `db:"grace_end_date" json:"grace_end_date"`

	// SuspendEndDate is when the suspension window closes and the
	// instance is terminated; set on the grace -> suspended transition
	SuspendEndDate *time.Time `db:"suspend_end_date" json:"suspend_end_date"`

	// AmountPaid is the amount collected for the current period
	AmountPaid decimal.Decimal `db:"amount_paid" json:"amount_paid"`

	// BalanceDue is the outstanding amount on the member's account for
	// this instance, as last reported by invoicing
	BalanceDue decimal.Decimal `db:"balance_due" json:"balance_due"`

	// Currency is the lowercase 3 letter ISO code
	Currency string `db:"currency" json:"currency"`

	// AutoRenew mirrors the plan flag at purchase time and is cleared
	// on cancellation
	AutoRenew bool `db:"auto_renew" json:"auto_renew"`

	// PreviousMembershipID links to the instance this one replaced on
	// an upgrade or plan change
	PreviousMembershipID *string `db:"previous_membership_id" json:"previous_membership_id"`

	// NextMembershipID links to the successor instance, if any
	NextMembershipID *string `db:"next_membership_id" json:"next_membership_id"`

	// CancelledAt is when the instance was explicitly cancelled
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at"`

	// LastInvoiceID is the most recent invoice raised for this instance
	LastInvoiceID *string `db:"last_invoice_id" json:"last_invoice_id"`

	types.BaseModel
}

// IsLifetime reports whether the instance never expires
func (m *Membership) IsLifetime() bool {
	return m.EndDate == nil
}

// IsExpired reports whether the paid period has lapsed as of the
// given date
func (m *Membership) IsExpired(asOf time.Time) bool {
	return m.EndDate != nil && asOf.After(*m.EndDate)
}

// Snapshot returns the audit-relevant fields as a flat map. Mutating
// operations capture one before and one after the change and hand the
// pair to the audit recorder.
func (m *Membership) Snapshot() map[string]any {
	snap := map[string]any{
		"state":       m.State.String(),
		"start_date":  m.StartDate,
		"amount_paid": m.AmountPaid.String(),
		"auto_renew":  m.AutoRenew,
	}
	if m.EndDate != nil {
		snap["end_date"] = *m.EndDate
	}
	if m.GraceEndDate != nil {
		snap["grace_end_date"] = *m.GraceEndDate
	}
	if m.SuspendEndDate != nil {
		snap["suspend_end_date"] = *m.SuspendEndDate
	}
	return snap
}
