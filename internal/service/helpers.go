package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/amshq/amscore/internal/domain/audit"
	"github.com/amshq/amscore/internal/domain/invoicing"
	"github.com/amshq/amscore/internal/domain/plan"
)

// invoiceRetryTimeout and invoiceMaxRetries bound the immediate retry
// window around an invoicing call. Failures past the budget are logged
// and left for the next sweep; they never roll back a lifecycle
// transition.
const (
	invoiceRetryTimeout     = 15 * time.Second
	invoiceRetryBaseBackoff = 100 * time.Millisecond
	invoiceMaxRetries       = 3
)

// createInvoiceWithRetry calls the invoicing collaborator under a
// bounded exponential backoff.
func createInvoiceWithRetry(ctx context.Context, svc invoicing.Service, holderID string, items []invoicing.LineItem) (string, error) {
	var invoiceID string

	operation := func() error {
		id, err := svc.CreateInvoice(ctx, holderID, items)
		if err != nil {
			return err
		}
		invoiceID = id
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(invoiceRetryBaseBackoff),
				backoff.WithMaxElapsedTime(invoiceRetryTimeout),
			),
			invoiceMaxRetries,
		),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return invoiceID, nil
}

// recordAuditQuietly records an audit event and downgrades failures to
// a warning; audit unavailability never blocks an operation that
// already succeeded.
func recordAuditQuietly(ctx context.Context, params ServiceParams, event audit.Event) {
	if err := params.Auditor.RecordEvent(ctx, event); err != nil {
		params.Logger.Warnw("failed to record audit event",
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
			"action", event.Action,
			"error", err)
	}
}

// notifyQuietly sends a fire-and-forget notification
func notifyQuietly(ctx context.Context, params ServiceParams, holderID, templateKey string, payload map[string]any) {
	if err := params.Notifier.Notify(ctx, holderID, templateKey, payload); err != nil {
		params.Logger.Warnw("failed to send notification",
			"holder_id", holderID,
			"template_key", templateKey,
			"error", err)
	}
}

// lifecycleWindows resolves the grace/suspend/terminate windows for a
// plan. A plan-level override wins; zero-valued plans fall back to the
// configured defaults.
func lifecycleWindows(params ServiceParams, p *plan.Plan) (graceDays, suspendDays, terminateDays int) {
	if p.HasLifecycleOverride() {
		return p.GraceDays, p.SuspendDays, p.TerminateDays
	}
	lc := params.Config.Lifecycle
	return lc.DefaultGraceDays, lc.DefaultSuspendDays, lc.DefaultTerminateDays
}
