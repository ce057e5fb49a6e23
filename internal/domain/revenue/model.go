package revenue

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/amshq/amscore/internal/types"
)

// RecognitionEntry is one dated slice of a collected payment,
// representing when that revenue is earned independent of when the
// cash was received. Entries are never physically deleted; reversals
// and cancellations are retained for audit.
type RecognitionEntry struct {
	// ID is the unique identifier for the entry
	ID string `db:"id" json:"id"`

	// MembershipID is the instance whose payment this entry splits
	MembershipID string `db:"membership_id" json:"membership_id"`

	// RecognitionDate is when this slice of revenue is earned
	RecognitionDate time.Time `db:"recognition_date" json:"recognition_date"`

	// Amount is the slice value; negative for reversals
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// Currency is the lowercase 3 letter ISO code
	Currency string `db:"currency" json:"currency"`

	// State is scheduled until recognized, processed afterwards;
	// cancelled entries were voided before recognition
	State types.RecognitionEntryState `db:"state" json:"state"`

	// IsAdjustment marks reversals and replacement entries
	IsAdjustment bool `db:"is_adjustment" json:"is_adjustment"`

	// OriginalEntryID links an adjustment back to the entry it
	// reverses or replaces
	OriginalEntryID *string `db:"original_entry_id" json:"original_entry_id"`

	// PostingID is the ledger posting created when the entry was
	// processed
	PostingID *string `db:"posting_id" json:"posting_id"`

	types.BaseModel
}

// IsDue reports whether a scheduled entry should be recognized as of
// the given date
func (e *RecognitionEntry) IsDue(asOf time.Time) bool {
	return e.State == types.RecognitionEntryStateScheduled &&
		!e.RecognitionDate.After(asOf)
}
