package httpx

import (
	"github.com/bookbay/storefront/internal/core/cart"
	"github.com/bookbay/storefront/internal/core/service"
)

// AddItemRequest's quantity is optional and defaults to 1; an explicit
// non-positive value is rejected.
type AddItemRequest struct {
	BookID      int64 `json:"book_id"`
	Quantity    *int  `json:"quantity"`
	VariationID int64 `json:"variation_id"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type SelectionRequest struct {
	IDs []int64 `json:"ids"`
}

type SelectAllRequest struct {
	Selected bool `json:"selected"`
}

type SelectLineRequest struct {
	Selected bool `json:"selected"`
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}

type GuestLineDTO struct {
	ID          int64 `json:"id,omitempty"`
	BookID      int64 `json:"book_id,omitempty"`
	VariationID int64 `json:"variation_id,omitempty"`
	Quantity    int   `json:"quantity"`
}

type GuestCartRequest struct {
	Items []GuestLineDTO `json:"items"`
}

// MergeRequest may carry the guest lines inline (clients that kept the cart
// locally); with an empty body the gateway merges the lines stored for the
// session.
type MergeRequest struct {
	Items []GuestLineDTO `json:"items"`
}

type CartItemResponse struct {
	ID          int64  `json:"id"`
	BookID      int64  `json:"book_id"`
	VariationID int64  `json:"variation_id,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
	ClientKey   string `json:"client_key"`
	Selected    bool   `json:"selected"`
}

type AppliedCouponResponse struct {
	Code           string `json:"code"`
	Type           string `json:"type"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalAmount    int64  `json:"final_amount"`
}

type CouponNoticeResponse struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Minimum     int64  `json:"minimum,omitempty"`
	OrderAmount int64  `json:"order_amount,omitempty"`
}

type CartResponse struct {
	Items         []CartItemResponse     `json:"items"`
	Subtotal      int64                  `json:"subtotal"`
	SelectedTotal int64                  `json:"selected_total"`
	Coupon        *AppliedCouponResponse `json:"coupon,omitempty"`
	CouponNotice  *CouponNoticeResponse  `json:"coupon_notice,omitempty"`
}

type CouponOfferResponse struct {
	Code            string                `json:"code"`
	Type            string                `json:"type"`
	Value           int64                 `json:"value"`
	MinimumAmount   int64                 `json:"minimum_amount,omitempty"`
	MaximumDiscount int64                 `json:"maximum_discount,omitempty"`
	Eligible        bool                  `json:"eligible"`
	Estimate        int64                 `json:"estimate"`
	Reason          *CouponNoticeResponse `json:"reason,omitempty"`
}

type ErrorResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message,omitempty"`
	Minimum     int64  `json:"minimum,omitempty"`
	OrderAmount int64  `json:"order_amount,omitempty"`
}

func mapViewToResponse(v *service.View) CartResponse {
	selected := make(map[int64]struct{}, len(v.SelectedIDs))
	for _, id := range v.SelectedIDs {
		selected[id] = struct{}{}
	}

	items := make([]CartItemResponse, 0, len(v.Lines))
	for _, l := range v.Lines {
		_, isSelected := selected[l.ID]
		items = append(items, CartItemResponse{
			ID:          l.ID,
			BookID:      l.BookID,
			VariationID: l.VariationID,
			SKU:         l.SKU,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal(),
			ClientKey:   l.ClientKey,
			Selected:    isSelected,
		})
	}

	resp := CartResponse{
		Items:         items,
		Subtotal:      v.Subtotal,
		SelectedTotal: v.SelectedTotal,
	}
	if v.Coupon != nil {
		resp.Coupon = &AppliedCouponResponse{
			Code:           v.Coupon.Coupon.Code,
			Type:           string(v.Coupon.Coupon.Type),
			DiscountAmount: v.Coupon.DiscountAmount,
			FinalAmount:    v.Coupon.FinalAmount,
		}
	}
	if v.CouponNotice != nil {
		resp.CouponNotice = &CouponNoticeResponse{
			Code:        v.CouponNotice.Code,
			Message:     v.CouponNotice.Error(),
			Minimum:     v.CouponNotice.Minimum,
			OrderAmount: v.CouponNotice.OrderAmount,
		}
	}
	return resp
}

func mapGuestLines(dtos []GuestLineDTO) []cart.GuestLine {
	lines := make([]cart.GuestLine, 0, len(dtos))
	for _, d := range dtos {
		lines = append(lines, cart.GuestLine{
			ID:          d.ID,
			BookID:      d.BookID,
			VariationID: d.VariationID,
			Quantity:    d.Quantity,
		})
	}
	return lines
}

func mapGuestLinesToDTO(lines []cart.GuestLine) []GuestLineDTO {
	dtos := make([]GuestLineDTO, 0, len(lines))
	for _, l := range lines {
		dtos = append(dtos, GuestLineDTO{
			ID:          l.ID,
			BookID:      l.BookID,
			VariationID: l.VariationID,
			Quantity:    l.Quantity,
		})
	}
	return dtos
}
