package coupon

import (
	"context"
	"errors"
	"sync"
)

// Validator is the remote validation call. Implemented by the backend REST
// adapter. Business rejections come back as *Error; anything else is a
// transport or server fault.
type Validator interface {
	ValidateCoupon(ctx context.Context, code string, orderAmount int64) (*Applied, error)
}

// Gate sits in front of the remote validator. When the coupon is already
// known (the selector variant lists coupons with their minimums up front),
// an order below the minimum is rejected locally without a round trip.
// Free-text codes are always sent to the validator.
type Gate struct {
	validator Validator

	mu    sync.RWMutex
	known map[string]Coupon
}

func NewGate(v Validator, known []Coupon) *Gate {
	g := &Gate{validator: v, known: make(map[string]Coupon)}
	g.SetKnown(known)
	return g
}

// SetKnown replaces the pre-listed coupon set used for local pre-checks.
func (g *Gate) SetKnown(coupons []Coupon) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.known = make(map[string]Coupon, len(coupons))
	for _, c := range coupons {
		g.known[c.Code] = c
	}
}

// Known returns the pre-listed coupon, if the gate has seen it.
func (g *Gate) Known(code string) (Coupon, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.known[code]
	return c, ok
}

// Eligibility reports whether the coupon would pass the local minimum-amount
// check for the given order amount. Returns nil when eligible.
func (g *Gate) Eligibility(c Coupon, orderAmount int64) *Error {
	if c.MinimumAmount > 0 && orderAmount < c.MinimumAmount {
		return &Error{
			Code:        CodeMinAmount,
			CouponCode:  c.Code,
			Minimum:     c.MinimumAmount,
			OrderAmount: orderAmount,
		}
	}
	return nil
}

// Apply validates a coupon code against the given order amount. For known
// coupons an ineligible order is rejected locally; otherwise the remote
// validator decides. Rejections are returned as *Error.
func (g *Gate) Apply(ctx context.Context, code string, orderAmount int64) (*Applied, error) {
	if c, ok := g.Known(code); ok {
		if rejection := g.Eligibility(c, orderAmount); rejection != nil {
			return nil, rejection
		}
	}

	applied, err := g.validator.ValidateCoupon(ctx, code, orderAmount)
	if err != nil {
		return nil, err
	}
	applied.OrderAmount = orderAmount
	return applied, nil
}

// Revalidate re-runs validation for an already-applied coupon after the
// order amount changed. A no-op when the amount is unchanged.
func (g *Gate) Revalidate(ctx context.Context, applied *Applied, orderAmount int64) (*Applied, error) {
	if applied.OrderAmount == orderAmount {
		return applied, nil
	}
	return g.Apply(ctx, applied.Coupon.Code, orderAmount)
}

// IsRejection reports whether err is a business-rule rejection rather than
// a transport or server fault.
func IsRejection(err error) bool {
	var cerr *Error
	return errors.As(err, &cerr)
}
