package revenue

import (
	"context"
	"time"
)

// Repository provides access to the recognition entry store
type Repository interface {
	Create(ctx context.Context, entry *RecognitionEntry) error
	CreateBulk(ctx context.Context, entries []*RecognitionEntry) error
	Get(ctx context.Context, id string) (*RecognitionEntry, error)
	Update(ctx context.Context, entry *RecognitionEntry) error

	// ListByMembership returns the full schedule for an instance,
	// ordered by recognition date
	ListByMembership(ctx context.Context, membershipID string) ([]*RecognitionEntry, error)

	// ListDue returns scheduled entries with recognition date on or
	// before asOf, ordered by recognition date
	ListDue(ctx context.Context, asOf time.Time) ([]*RecognitionEntry, error)
}
