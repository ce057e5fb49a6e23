package membership

import (
	"context"
	"time"

	"github.com/amshq/amscore/internal/types"
)

// Repository provides access to the membership instance store.
// Instances are never deleted; terminal states are retained.
type Repository interface {
	Create(ctx context.Context, membership *Membership) error
	Get(ctx context.Context, id string) (*Membership, error)
	Update(ctx context.Context, membership *Membership) error
	ListByHolder(ctx context.Context, holderID string) ([]*Membership, error)
	ListByStates(ctx context.Context, states []types.MembershipState) ([]*Membership, error)

	// CountHoldings counts active/grace instances of the category for
	// the holder, used to enforce the single parent membership rule
	CountHoldings(ctx context.Context, holderID string, category types.MembershipCategory) (int, error)

	// ListAutoRenewDue lists instances with auto renew enabled whose
	// paid period has ended on or before asOf
	ListAutoRenewDue(ctx context.Context, asOf time.Time) ([]*Membership, error)
}
