package testutil

import (
	"context"

	"github.com/amshq/amscore/internal/types"
)

// GetContext returns a context carrying a test user for attribution
func GetContext() context.Context {
	ctx := context.Background()
	ctx = types.SetUserID(ctx, "user_test")
	ctx = types.SetRequestID(ctx, "req_test")
	return ctx
}
