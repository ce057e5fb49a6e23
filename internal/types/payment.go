package types

import (
	"github.com/samber/lo"

	ierr "github.com/amshq/amscore/internal/errors"
)

// PaymentStatus is the payment state of an invoice as reported by the
// invoicing collaborator
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
)

func (p PaymentStatus) String() string {
	return string(p)
}

func (p PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusPaid,
		PaymentStatusUnpaid,
		PaymentStatusPartial,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid payment status").
			WithHint("Payment status must be paid, unpaid or partial").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
