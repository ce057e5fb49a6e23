package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustEntryRequest changes the amount or date of a recognition
// entry. Adjustments above the configured materiality threshold
// require Approved to be set by a second party before they apply.
type AdjustEntryRequest struct {
	NewAmount *decimal.Decimal `json:"new_amount,omitempty"`
	NewDate   *time.Time       `json:"new_date,omitempty"`
	Approved  bool             `json:"approved"`
	Reason    string           `json:"reason,omitempty"`
}

// RecognitionSweepResponseItem reports the outcome for one entry
type RecognitionSweepResponseItem struct {
	EntryID      string          `json:"entry_id"`
	MembershipID string          `json:"membership_id"`
	Amount       decimal.Decimal `json:"amount"`
	Success      bool            `json:"success"`
	Error        string          `json:"error,omitempty"`
}

// RecognitionSweepResponse is the per-entry outcome list of a
// recognition sweep; a failure on one entry never blocks the others
type RecognitionSweepResponse struct {
	Items        []*RecognitionSweepResponseItem `json:"items"`
	TotalSuccess int                             `json:"total_success"`
	TotalFailed  int                             `json:"total_failed"`
	StartAt      time.Time                       `json:"start_at"`
}
