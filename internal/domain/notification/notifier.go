package notification

import (
	"context"
)

// Template keys understood by the notification collaborator
const (
	TemplateMembershipActivated  = "membership_activated"
	TemplateMembershipCancelled  = "membership_cancelled"
	TemplateMembershipExpired    = "membership_expired"
	TemplateMembershipSuspended  = "membership_suspended"
	TemplateMembershipTerminated = "membership_terminated"
	TemplateRenewalCompleted     = "renewal_completed"
	TemplateRenewalReminder      = "renewal_reminder"
	TemplateRecognitionAdjusted  = "recognition_adjusted"
)

// Notifier is the fire-and-forget notification collaborator. Errors
// are logged by callers and never block a lifecycle transition.
type Notifier interface {
	Notify(ctx context.Context, holderID string, templateKey string, payload map[string]any) error
}
