package testutil

import (
	"context"
	"sync"

	"github.com/amshq/amscore/internal/domain/audit"
	"github.com/amshq/amscore/internal/domain/invoicing"
	"github.com/amshq/amscore/internal/domain/ledger"
	ierr "github.com/amshq/amscore/internal/errors"
	"github.com/amshq/amscore/internal/types"
)

// RecordedInvoice captures one CreateInvoice call
type RecordedInvoice struct {
	ID       string
	HolderID string
	Items    []invoicing.LineItem
}

// InMemoryInvoicer is a fake invoicing collaborator. Invoices are paid
// immediately unless a status override is set; FailCreates makes the
// next N CreateInvoice calls fail so retry behavior can be exercised.
type InMemoryInvoicer struct {
	mu          sync.Mutex
	invoices    []RecordedInvoice
	statuses    map[string]types.PaymentStatus
	FailCreates int
}

func NewInMemoryInvoicer() *InMemoryInvoicer {
	return &InMemoryInvoicer{statuses: make(map[string]types.PaymentStatus)}
}

func (s *InMemoryInvoicer) CreateInvoice(ctx context.Context, holderID string, items []invoicing.LineItem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCreates > 0 {
		s.FailCreates--
		return "", ierr.NewError("invoicing unavailable").Mark(ierr.ErrCollaborator)
	}

	id := types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INVOICE)
	s.invoices = append(s.invoices, RecordedInvoice{ID: id, HolderID: holderID, Items: items})
	if _, ok := s.statuses[id]; !ok {
		s.statuses[id] = types.PaymentStatusPaid
	}
	return id, nil
}

func (s *InMemoryInvoicer) PaymentStatus(ctx context.Context, invoiceID string) (types.PaymentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.statuses[invoiceID]
	if !ok {
		return "", ierr.NewErrorf("invoice not found with id %s", invoiceID).Mark(ierr.ErrNotFound)
	}
	return status, nil
}

// SetStatus overrides the payment status reported for an invoice
func (s *InMemoryInvoicer) SetStatus(invoiceID string, status types.PaymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[invoiceID] = status
}

// MarkAllUnpaid flips every known invoice to unpaid
func (s *InMemoryInvoicer) MarkAllUnpaid() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.statuses {
		s.statuses[id] = types.PaymentStatusUnpaid
	}
}

func (s *InMemoryInvoicer) Invoices() []RecordedInvoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedInvoice(nil), s.invoices...)
}

func (s *InMemoryInvoicer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = nil
	s.statuses = make(map[string]types.PaymentStatus)
	s.FailCreates = 0
}

// RecordedNotification captures one Notify call
type RecordedNotification struct {
	HolderID    string
	TemplateKey string
	Payload     map[string]any
}

// InMemoryNotifier is a fake notification collaborator
type InMemoryNotifier struct {
	mu            sync.Mutex
	notifications []RecordedNotification
}

func NewInMemoryNotifier() *InMemoryNotifier {
	return &InMemoryNotifier{}
}

func (s *InMemoryNotifier) Notify(ctx context.Context, holderID, templateKey string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, RecordedNotification{
		HolderID:    holderID,
		TemplateKey: templateKey,
		Payload:     payload,
	})
	return nil
}

func (s *InMemoryNotifier) Notifications() []RecordedNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedNotification(nil), s.notifications...)
}

func (s *InMemoryNotifier) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nil
}

// InMemoryAuditRecorder is a fake audit recorder
type InMemoryAuditRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func NewInMemoryAuditRecorder() *InMemoryAuditRecorder {
	return &InMemoryAuditRecorder{}
}

func (s *InMemoryAuditRecorder) RecordEvent(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryAuditRecorder) Events() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...)
}

func (s *InMemoryAuditRecorder) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// InMemoryLedger is a fake accounting collaborator. FailPostings makes
// the next N posting calls fail so atomicity behavior can be
// exercised.
type InMemoryLedger struct {
	mu           sync.Mutex
	postings     []ledger.Posting
	FailPostings int
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{}
}

func (s *InMemoryLedger) post(posting ledger.Posting) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPostings > 0 {
		s.FailPostings--
		return "", ierr.NewError("ledger unavailable").Mark(ierr.ErrCollaborator)
	}

	s.postings = append(s.postings, posting)
	return types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_POSTING), nil
}

func (s *InMemoryLedger) PostRecognition(ctx context.Context, posting ledger.Posting) (string, error) {
	return s.post(posting)
}

func (s *InMemoryLedger) PostReversal(ctx context.Context, posting ledger.Posting) (string, error) {
	return s.post(posting)
}

func (s *InMemoryLedger) Postings() []ledger.Posting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.Posting(nil), s.postings...)
}

func (s *InMemoryLedger) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postings = nil
	s.FailPostings = 0
}
