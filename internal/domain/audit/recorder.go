package audit

import (
	"context"
)

// Entity types recorded by the core
const (
	EntityTypeMembership       = "membership"
	EntityTypePlan             = "plan"
	EntityTypeRecognitionEntry = "recognition_entry"
)

// Actions recorded by the core
const (
	ActionActivated  = "activated"
	ActionTransition = "state_transition"
	ActionCancelled  = "cancelled"
	ActionRenewed    = "renewed"
	ActionRecognized = "recognized"
	ActionReversed   = "reversed"
	ActionAdjusted   = "adjusted"
	ActionCreated    = "created"
)

// Event is a structured audit record. Mutating operations produce an
// explicit before/after snapshot pair; nothing is inferred by
// reflective diffing at runtime.
type Event struct {
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Action     string         `json:"action"`
	Before     map[string]any `json:"before,omitempty"`
	After      map[string]any `json:"after,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// Recorder is the audit collaborator, called on every state transition
// and every recognition entry mutation.
type Recorder interface {
	RecordEvent(ctx context.Context, event Event) error
}
