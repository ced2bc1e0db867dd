package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookbay/storefront/internal/core/cart"
	"github.com/bookbay/storefront/internal/core/coupon"
	"github.com/bookbay/storefront/internal/core/service"
	"github.com/bookbay/storefront/internal/infra/backend"
	"github.com/bookbay/storefront/internal/pkg/clientmeta"
)

// Flow is the per-session cart flow the handler drives. *service.CartService
// satisfies it.
type Flow interface {
	Refresh(ctx context.Context) (*service.View, error)
	AddItem(ctx context.Context, bookID int64, quantity int, variationID int64) (*service.View, error)
	UpdateQuantity(ctx context.Context, lineID int64, quantity int) (*service.View, error)
	RemoveItem(ctx context.Context, lineID int64) (*service.View, error)
	RemoveSelected(ctx context.Context) (*service.View, error)
	Clear(ctx context.Context) (*service.View, error)
	SetSelection(ctx context.Context, ids []int64) *service.View
	SelectAll(ctx context.Context, selected bool) *service.View
	SelectLine(ctx context.Context, lineID int64, selected bool) *service.View
	ApplyCoupon(ctx context.Context, code string) (*service.View, error)
	RemoveCoupon() *service.View
	AvailableCoupons(ctx context.Context) ([]service.CouponOffer, error)
	MergeAtLogin(ctx context.Context, sessionID string, lines []cart.GuestLine) (*service.View, error)
	SaveGuestLines(ctx context.Context, sessionID string, lines []cart.GuestLine) error
	GuestLines(ctx context.Context, sessionID string) ([]cart.GuestLine, error)
}

// FlowResolver maps a session ID to its Flow. In production this is backed by
// service.Manager.
type FlowResolver func(sessionID string) Flow

// Handler handles incoming HTTP requests from the storefront UI.
type Handler struct {
	flows FlowResolver
}

func NewHandler(flows FlowResolver) *Handler {
	return &Handler{flows: flows}
}

func (h *Handler) flow(r *http.Request) Flow {
	return h.flows(clientmeta.SessionID(r.Context()))
}

// GetCart refreshes the cart from the backend and returns the reconciled view.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.flow(r).Refresh(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.BookID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "book_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	view, err := h.flow(r).AddItem(r.Context(), req.BookID, quantity, req.VariationID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	view, err := h.flow(r).UpdateQuantity(r.Context(), lineID, req.Quantity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	view, err := h.flow(r).RemoveItem(r.Context(), lineID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

// RemoveSelected removes every line in the current checkout selection.
func (h *Handler) RemoveSelected(w http.ResponseWriter, r *http.Request) {
	view, err := h.flow(r).RemoveSelected(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.flow(r).Clear(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	view := h.flow(r).SetSelection(r.Context(), req.IDs)
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

func (h *Handler) SelectAll(w http.ResponseWriter, r *http.Request) {
	var req SelectAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	view := h.flow(r).SelectAll(r.Context(), req.Selected)
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

func (h *Handler) SelectLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	var req SelectLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	view := h.flow(r).SelectLine(r.Context(), lineID, req.Selected)
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	view, err := h.flow(r).ApplyCoupon(r.Context(), req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	view := h.flow(r).RemoveCoupon()
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

// ListCoupons returns the coupon selector entries with per-coupon eligibility
// for the current selection.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	offers, err := h.flow(r).AvailableCoupons(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]CouponOfferResponse, 0, len(offers))
	for _, o := range offers {
		resp := CouponOfferResponse{
			Code:            o.Coupon.Code,
			Type:            string(o.Coupon.Type),
			Value:           o.Coupon.Value,
			MinimumAmount:   o.Coupon.MinimumAmount,
			MaximumDiscount: o.Coupon.MaximumDiscount,
			Eligible:        o.Eligible,
			Estimate:        o.Estimate,
		}
		if o.Reason != nil {
			resp.Reason = &CouponNoticeResponse{
				Code:        o.Reason.Code,
				Message:     o.Reason.Error(),
				Minimum:     o.Reason.Minimum,
				OrderAmount: o.Reason.OrderAmount,
			}
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// MergeCart folds the guest cart into the authenticated user's server cart.
func (h *Handler) MergeCart(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
	}

	sessionID := clientmeta.SessionID(r.Context())
	view, err := h.flow(r).MergeAtLogin(r.Context(), sessionID, mapGuestLines(req.Items))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapViewToResponse(view))
}

func (h *Handler) SaveGuestCart(w http.ResponseWriter, r *http.Request) {
	var req GuestCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	sessionID := clientmeta.SessionID(r.Context())
	if err := h.flow(r).SaveGuestLines(r.Context(), sessionID, mapGuestLines(req.Items)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetGuestCart(w http.ResponseWriter, r *http.Request) {
	sessionID := clientmeta.SessionID(r.Context())
	lines, err := h.flow(r).GuestLines(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GuestCartRequest{Items: mapGuestLinesToDTO(lines)})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_item_id", "item id must be a positive integer")
		return 0, false
	}
	return id, true
}

// writeServiceError translates flow errors into HTTP responses: coupon
// rejections carry their structured fields, validation errors are 400s, and
// backend faults surface as the upstream status for 4xx or 502 otherwise.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rejection *coupon.Error
	if errors.As(err, &rejection) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:       rejection.Code,
			Message:     rejection.Error(),
			Minimum:     rejection.Minimum,
			OrderAmount: rejection.OrderAmount,
		})
		return
	}

	if errors.Is(err, service.ErrInvalidQuantity) {
		writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
		return
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		code := apiErr.Code
		if code == "" {
			code = "cart_backend_error"
		}
		writeError(w, status, code, apiErr.Message)
		return
	}

	slog.ErrorContext(r.Context(), "cart flow failed", "error", err)
	writeError(w, http.StatusBadGateway, "cart_backend_error", err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
