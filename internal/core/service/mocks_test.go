package service

import (
	"context"

	"github.com/bookbay/storefront/internal/core/cart"
	"github.com/bookbay/storefront/internal/core/coupon"
)

// backendMock records calls and answers from pluggable functions, so each
// test scripts exactly the behavior it needs.
type backendMock struct {
	calls []string

	getCartFn    func() (*cart.Cart, error)
	addFn        func(bookID int64, quantity int, variationID int64) (*cart.Cart, error)
	updateFn     func(lineID int64, quantity int) (*cart.Cart, error)
	removeFn     func(lineID int64) (*cart.Cart, error)
	removeManyFn func(ids []int64) (*cart.Cart, error)
	mergeFn      func(lines []cart.GuestLine) (*cart.Cart, error)
	clearFn      func() (*cart.Cart, error)
	listFn       func() ([]coupon.Coupon, error)
}

func emptyCart() *cart.Cart {
	return &cart.Cart{Items: []cart.Line{}}
}

func (m *backendMock) GetCart(ctx context.Context) (*cart.Cart, error) {
	m.calls = append(m.calls, "GetCart")
	if m.getCartFn != nil {
		return m.getCartFn()
	}
	return emptyCart(), nil
}

func (m *backendMock) AddItem(ctx context.Context, bookID int64, quantity int, variationID int64) (*cart.Cart, error) {
	m.calls = append(m.calls, "AddItem")
	if m.addFn != nil {
		return m.addFn(bookID, quantity, variationID)
	}
	return emptyCart(), nil
}

func (m *backendMock) UpdateItem(ctx context.Context, lineID int64, quantity int) (*cart.Cart, error) {
	m.calls = append(m.calls, "UpdateItem")
	if m.updateFn != nil {
		return m.updateFn(lineID, quantity)
	}
	return emptyCart(), nil
}

func (m *backendMock) RemoveItem(ctx context.Context, lineID int64) (*cart.Cart, error) {
	m.calls = append(m.calls, "RemoveItem")
	if m.removeFn != nil {
		return m.removeFn(lineID)
	}
	return emptyCart(), nil
}

func (m *backendMock) RemoveItems(ctx context.Context, ids []int64) (*cart.Cart, error) {
	m.calls = append(m.calls, "RemoveItems")
	if m.removeManyFn != nil {
		return m.removeManyFn(ids)
	}
	return emptyCart(), nil
}

func (m *backendMock) MergeCart(ctx context.Context, lines []cart.GuestLine) (*cart.Cart, error) {
	m.calls = append(m.calls, "MergeCart")
	if m.mergeFn != nil {
		return m.mergeFn(lines)
	}
	return emptyCart(), nil
}

func (m *backendMock) ClearCart(ctx context.Context) (*cart.Cart, error) {
	m.calls = append(m.calls, "ClearCart")
	if m.clearFn != nil {
		return m.clearFn()
	}
	return emptyCart(), nil
}

func (m *backendMock) ListCoupons(ctx context.Context) ([]coupon.Coupon, error) {
	m.calls = append(m.calls, "ListCoupons")
	if m.listFn != nil {
		return m.listFn()
	}
	return nil, nil
}

// validatorMock replays scripted results in order; the last one repeats.
type validatorMock struct {
	calls   int
	results []validatorResult
}

type validatorResult struct {
	applied *coupon.Applied
	err     error
}

func (v *validatorMock) ValidateCoupon(ctx context.Context, code string, orderAmount int64) (*coupon.Applied, error) {
	idx := v.calls
	if idx >= len(v.results) {
		idx = len(v.results) - 1
	}
	v.calls++
	r := v.results[idx]
	if r.err != nil {
		return nil, r.err
	}
	a := *r.applied
	a.OrderAmount = orderAmount
	return &a, nil
}

// guestsMock is an in-memory guest cart repository.
type guestsMock struct {
	saved  map[string][]cart.GuestLine
	clears []string
}

func newGuestsMock() *guestsMock {
	return &guestsMock{saved: make(map[string][]cart.GuestLine)}
}

func (g *guestsMock) Save(ctx context.Context, sessionID string, lines []cart.GuestLine) error {
	g.saved[sessionID] = lines
	return nil
}

func (g *guestsMock) Load(ctx context.Context, sessionID string) ([]cart.GuestLine, error) {
	return g.saved[sessionID], nil
}

func (g *guestsMock) Clear(ctx context.Context, sessionID string) error {
	g.clears = append(g.clears, sessionID)
	delete(g.saved, sessionID)
	return nil
}
