package invoicing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/amshq/amscore/internal/types"
)

// LineItem is a single line on an invoice raised by the core. Negative
// amounts represent credits applied against the invoice.
type LineItem struct {
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	MembershipID string          `json:"membership_id,omitempty"`
}

// Service is the narrow contract with the invoicing collaborator. The
// core knows nothing about invoice internals, only the returned
// identifier and a payment status it can poll.
type Service interface {
	CreateInvoice(ctx context.Context, holderID string, lineItems []LineItem) (string, error)
	PaymentStatus(ctx context.Context, invoiceID string) (types.PaymentStatus, error)
}
