package backend

import (
	"context"
	"log/slog"

	"github.com/bookbay/storefront/internal/core/cart"
)

// attempt is one tier of an endpoint-variance cascade.
type attempt struct {
	name string
	run  func(ctx context.Context) (*cart.Cart, error)
}

// runFallback tries each attempt in order and returns the first snapshot
// that resolves. This is a correctness fallback for historically inconsistent
// backend endpoint naming, not a resilience retry: every tier is a different
// endpoint, and a tier that fails is logged and abandoned.
func runFallback(ctx context.Context, op string, attempts []attempt) (*cart.Cart, error) {
	var lastErr error
	for _, a := range attempts {
		snapshot, err := a.run(ctx)
		if err == nil {
			if lastErr != nil {
				slog.InfoContext(ctx, "fallback tier succeeded", "op", op, "tier", a.name)
			}
			return snapshot, nil
		}
		slog.WarnContext(ctx, "fallback tier failed", "op", op, "tier", a.name, "error", err)
		lastErr = err
	}
	return nil, lastErr
}
