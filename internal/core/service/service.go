// Package service orchestrates the cart flow for one storefront session:
// backend calls, snapshot/selection state, guest cart persistence and coupon
// application. It enforces the policies the UI widgets used to improvise
// per call site, so every caller gets the same behavior.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bookbay/storefront/internal/core/cart"
	"github.com/bookbay/storefront/internal/core/cartstore"
	"github.com/bookbay/storefront/internal/core/coupon"
	"github.com/bookbay/storefront/internal/core/ports"
)

// ErrInvalidQuantity rejects non-positive quantities uniformly. Removing a
// line is always an explicit RemoveItem, never an update to zero.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// View is what the storefront renders after any operation: the reconciled
// lines, the selection and its derived total, and the applied coupon.
// CouponNotice is set when the operation invalidated a previously applied
// coupon.
type View struct {
	Lines         []cart.Line
	Subtotal      int64
	SelectedIDs   []int64
	SelectedTotal int64
	Coupon        *coupon.Applied
	CouponNotice  *coupon.Error
}

// CouponOffer is one entry of the coupon selector: the coupon plus the local
// eligibility verdict and a display-only discount estimate for the current
// selection.
type CouponOffer struct {
	Coupon   coupon.Coupon
	Eligible bool
	Estimate int64
	Reason   *coupon.Error
}

type CartService struct {
	backend ports.CartBackend
	gate    *coupon.Gate
	guests  ports.GuestCartRepository
	store   *cartstore.Store
}

func New(backend ports.CartBackend, gate *coupon.Gate, guests ports.GuestCartRepository) *CartService {
	return &CartService{
		backend: backend,
		gate:    gate,
		guests:  guests,
		store:   cartstore.New(),
	}
}

func (s *CartService) view(notice *coupon.Error) *View {
	c := s.store.Cart()
	return &View{
		Lines:         c.Items,
		Subtotal:      c.Sum(),
		SelectedIDs:   s.store.SelectedIDs(),
		SelectedTotal: s.store.SelectedTotal(),
		Coupon:        s.store.Applied(),
		CouponNotice:  notice,
	}
}

// Snapshot returns the current view without any network interaction.
func (s *CartService) Snapshot() *View {
	return s.view(nil)
}

// Refresh loads the cart from the backend and replaces local state.
func (s *CartService) Refresh(ctx context.Context) (*View, error) {
	t := s.store.BeginCart()
	c, err := s.backend.GetCart(ctx)
	if err != nil {
		return nil, err
	}
	s.store.Commit(t, c)
	return s.view(s.revalidateCoupon(ctx)), nil
}

func (s *CartService) AddItem(ctx context.Context, bookID int64, quantity int, variationID int64) (*View, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	t := s.store.BeginCart()
	c, err := s.backend.AddItem(ctx, bookID, quantity, variationID)
	if err != nil {
		return nil, err
	}
	s.store.Commit(t, c)
	return s.view(s.revalidateCoupon(ctx)), nil
}

// UpdateQuantity sets the absolute quantity for one line. Responses of
// superseded updates on the same line are discarded, so rapid +/- clicks
// cannot overwrite fresher state with a stale snapshot.
func (s *CartService) UpdateQuantity(ctx context.Context, lineID int64, quantity int) (*View, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	t := s.store.BeginLine(lineID)
	c, err := s.backend.UpdateItem(ctx, lineID, quantity)
	if err != nil {
		return nil, err
	}
	if !s.store.Commit(t, c) {
		slog.DebugContext(ctx, "discarded stale quantity update response", "line_id", lineID)
	}
	return s.view(s.revalidateCoupon(ctx)), nil
}

func (s *CartService) RemoveItem(ctx context.Context, lineID int64) (*View, error) {
	t := s.store.BeginCart()
	c, err := s.backend.RemoveItem(ctx, lineID)
	if err != nil {
		return nil, err
	}
	s.store.Commit(t, c)
	return s.view(s.revalidateCoupon(ctx)), nil
}

// RemoveSelected removes every selected line. With an empty selection the
// current view is returned as-is, without a network call.
func (s *CartService) RemoveSelected(ctx context.Context) (*View, error) {
	ids := s.store.SelectedIDs()
	if len(ids) == 0 {
		return s.view(nil), nil
	}
	t := s.store.BeginCart()
	c, err := s.backend.RemoveItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.store.Commit(t, c)
	return s.view(s.revalidateCoupon(ctx)), nil
}

func (s *CartService) Clear(ctx context.Context) (*View, error) {
	t := s.store.BeginCart()
	c, err := s.backend.ClearCart(ctx)
	if err != nil {
		return nil, err
	}
	s.store.Commit(t, c)
	return s.view(s.revalidateCoupon(ctx)), nil
}

// SetSelection replaces the checkout selection. Selection is purely local,
// but it changes the order amount, so an applied coupon is re-validated.
func (s *CartService) SetSelection(ctx context.Context, ids []int64) *View {
	s.store.SetSelection(ids)
	return s.view(s.revalidateCoupon(ctx))
}

func (s *CartService) SelectAll(ctx context.Context, selected bool) *View {
	s.store.SelectAll(selected)
	return s.view(s.revalidateCoupon(ctx))
}

func (s *CartService) SelectLine(ctx context.Context, lineID int64, selected bool) *View {
	if selected {
		s.store.Select(lineID)
	} else {
		s.store.Deselect(lineID)
	}
	return s.view(s.revalidateCoupon(ctx))
}

// ApplyCoupon runs the gate against the current selected total. Rejections
// come back as *coupon.Error with structured fields.
func (s *CartService) ApplyCoupon(ctx context.Context, code string) (*View, error) {
	applied, err := s.gate.Apply(ctx, code, s.store.SelectedTotal())
	if err != nil {
		return nil, err
	}
	s.store.SetApplied(applied)
	return s.view(nil), nil
}

func (s *CartService) RemoveCoupon() *View {
	s.store.SetApplied(nil)
	return s.view(nil)
}

// AvailableCoupons fetches the selector's coupon list, refreshes the gate's
// known set, and annotates each coupon with its local eligibility and a
// display-only estimate for the current selected total.
func (s *CartService) AvailableCoupons(ctx context.Context) ([]CouponOffer, error) {
	coupons, err := s.backend.ListCoupons(ctx)
	if err != nil {
		return nil, err
	}
	s.gate.SetKnown(coupons)

	total := s.store.SelectedTotal()
	offers := make([]CouponOffer, 0, len(coupons))
	for _, c := range coupons {
		reason := s.gate.Eligibility(c, total)
		offers = append(offers, CouponOffer{
			Coupon:   c,
			Eligible: reason == nil,
			Estimate: c.Estimate(total),
			Reason:   reason,
		})
	}
	return offers, nil
}

// MergeAtLogin reconciles the anonymous session's cart into the
// authenticated user's server-side cart. Lines can be supplied by the client
// (a storefront that kept them locally) or loaded from the guest cart store;
// the guest copy is cleared once the merge lands.
func (s *CartService) MergeAtLogin(ctx context.Context, sessionID string, lines []cart.GuestLine) (*View, error) {
	if len(lines) == 0 {
		stored, err := s.guests.Load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		lines = stored
	}
	if len(lines) == 0 {
		return s.Refresh(ctx)
	}

	t := s.store.BeginCart()
	c, err := s.backend.MergeCart(ctx, lines)
	if err != nil {
		return nil, err
	}
	s.store.Commit(t, c)

	if err := s.guests.Clear(ctx, sessionID); err != nil {
		slog.WarnContext(ctx, "failed to clear guest cart after merge", "session_id", sessionID, "error", err)
	}
	return s.view(s.revalidateCoupon(ctx)), nil
}

func (s *CartService) SaveGuestLines(ctx context.Context, sessionID string, lines []cart.GuestLine) error {
	return s.guests.Save(ctx, sessionID, lines)
}

func (s *CartService) GuestLines(ctx context.Context, sessionID string) ([]cart.GuestLine, error) {
	return s.guests.Load(ctx, sessionID)
}

// revalidateCoupon re-checks the applied coupon whenever the selected total
// may have changed. A business rejection removes the coupon and is surfaced
// as the view's notice; a transport fault keeps the coupon (the next change
// will try again).
func (s *CartService) revalidateCoupon(ctx context.Context) *coupon.Error {
	applied := s.store.Applied()
	if applied == nil {
		return nil
	}

	fresh, err := s.gate.Revalidate(ctx, applied, s.store.SelectedTotal())
	if err == nil {
		s.store.SetApplied(fresh)
		return nil
	}

	var rejection *coupon.Error
	if errors.As(err, &rejection) {
		s.store.SetApplied(nil)
		slog.InfoContext(ctx, "applied coupon invalidated by amount change",
			"code", applied.Coupon.Code, "reason", rejection.Code)
		return rejection
	}

	slog.WarnContext(ctx, "coupon revalidation failed, keeping coupon",
		"code", applied.Coupon.Code, "error", err)
	return nil
}
