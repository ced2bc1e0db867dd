// Package ports defines the interfaces the cart flow depends on. The service
// layer is written against these abstractions so the REST and Redis adapters
// can be swapped for in-memory fakes in tests.
package ports

import (
	"context"

	"github.com/bookbay/storefront/internal/core/cart"
	"github.com/bookbay/storefront/internal/core/coupon"
)

// CartBackend is the bookstore backend's cart surface. Every call returns a
// fresh, normalized snapshot; local state is replaced wholesale, never
// patched.
type CartBackend interface {
	GetCart(ctx context.Context) (*cart.Cart, error)
	AddItem(ctx context.Context, bookID int64, quantity int, variationID int64) (*cart.Cart, error)
	UpdateItem(ctx context.Context, lineID int64, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, lineID int64) (*cart.Cart, error)

	// RemoveItems removes several lines at once, tolerating backend endpoint
	// variance via a fallback cascade. ids must be non-empty; the service
	// layer short-circuits the empty case without a network call.
	RemoveItems(ctx context.Context, ids []int64) (*cart.Cart, error)

	// MergeCart reconciles an anonymous session's lines into the
	// authenticated user's server-side cart. Called exactly once, at login.
	MergeCart(ctx context.Context, lines []cart.GuestLine) (*cart.Cart, error)

	ClearCart(ctx context.Context) (*cart.Cart, error)

	// ListCoupons fetches the coupons the selector widget offers up front.
	ListCoupons(ctx context.Context) ([]coupon.Coupon, error)
}

// GuestCartRepository persists the anonymous cart for a session until the
// user logs in and the lines are merged server-side.
type GuestCartRepository interface {
	Save(ctx context.Context, sessionID string, lines []cart.GuestLine) error
	Load(ctx context.Context, sessionID string) ([]cart.GuestLine, error)
	Clear(ctx context.Context, sessionID string) error
}
