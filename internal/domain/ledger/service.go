package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Posting is the minimum the core needs to describe a recognition
// movement: a recognition debits the deferred revenue liability and
// credits income; a reversal does the opposite.
type Posting struct {
	EntryID      string          `json:"entry_id"`
	MembershipID string          `json:"membership_id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	PostedAt     time.Time       `json:"posted_at"`
	Memo         string          `json:"memo,omitempty"`
}

// Service is the accounting collaborator. Entry transitions must be
// atomic with their posting: the scheduler posts first and only then
// marks the entry, so a posting failure leaves the entry untouched.
type Service interface {
	PostRecognition(ctx context.Context, posting Posting) (string, error)
	PostReversal(ctx context.Context, posting Posting) (string, error)
}
