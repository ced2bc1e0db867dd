// Package session persists guest carts between visits. The browser client
// kept the anonymous cart in localStorage; the gateway keeps it in Redis,
// keyed by session ID and bounded by a TTL, until login merges it into the
// user's server-side cart.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bookbay/storefront/internal/core/cart"
	"github.com/bookbay/storefront/internal/core/ports"
	"github.com/bookbay/storefront/internal/pkg/cache"
)

const guestCartOp = "guest_cart"

// DefaultTTL matches how long the storefront keeps an anonymous cart alive.
const DefaultTTL = 30 * 24 * time.Hour

type GuestCarts struct {
	cache cache.Cache
	ttl   time.Duration
}

var _ ports.GuestCartRepository = (*GuestCarts)(nil)

func NewGuestCarts(c cache.Cache, ttl time.Duration) *GuestCarts {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &GuestCarts{cache: c, ttl: ttl}
}

func (g *GuestCarts) Save(ctx context.Context, sessionID string, lines []cart.GuestLine) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshaling guest cart: %w", err)
	}
	return g.cache.Set(ctx, g.cache.GenerateKey(guestCartOp, sessionID), payload, g.ttl)
}

// Load returns nil lines for an unknown session.
func (g *GuestCarts) Load(ctx context.Context, sessionID string) ([]cart.GuestLine, error) {
	raw, err := g.cache.Get(ctx, g.cache.GenerateKey(guestCartOp, sessionID))
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var lines []cart.GuestLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("unmarshaling guest cart: %w", err)
	}
	return lines, nil
}

func (g *GuestCarts) Clear(ctx context.Context, sessionID string) error {
	return g.cache.Delete(ctx, g.cache.GenerateKey(guestCartOp, sessionID))
}
