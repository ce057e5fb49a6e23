package plan

import (
	"context"

	"github.com/amshq/amscore/internal/types"
)

// Repository provides access to the plan definition store
type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	Update(ctx context.Context, plan *Plan) error
	List(ctx context.Context) ([]*Plan, error)
	ListByCategory(ctx context.Context, category types.MembershipCategory) ([]*Plan, error)
}
