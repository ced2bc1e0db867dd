package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bookbay/storefront/internal/core/coupon"
)

var _ coupon.Validator = (*Client)(nil)

type couponPayload struct {
	Code            string `json:"code"`
	Type            string `json:"type"`
	Value           int64  `json:"value"`
	MinimumAmount   int64  `json:"minimum_amount"`
	MaximumDiscount int64  `json:"maximum_discount"`
}

func (p couponPayload) toEntity() coupon.Coupon {
	return coupon.Coupon{
		Code:            p.Code,
		Type:            coupon.Type(p.Type),
		Value:           p.Value,
		MinimumAmount:   p.MinimumAmount,
		MaximumDiscount: p.MaximumDiscount,
	}
}

type validateCouponRequest struct {
	Code        string `json:"code"`
	OrderAmount int64  `json:"order_amount"`
}

type validateCouponResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Coupon         couponPayload `json:"coupon"`
		DiscountAmount int64         `json:"discount_amount"`
		FinalAmount    int64         `json:"final_amount"`
	} `json:"data"`
}

// ValidateCoupon asks the backend to validate a code against an order
// amount. The backend's figures are authoritative; the client never computes
// the applied discount itself. Business rejections come back as
// *coupon.Error built from the structured payload.
func (c *Client) ValidateCoupon(ctx context.Context, code string, orderAmount int64) (*coupon.Applied, error) {
	body, err := c.doJSON(ctx, http.MethodPost, "/coupons/validate", validateCouponRequest{
		Code:        code,
		OrderAmount: orderAmount,
	})
	if err != nil {
		if rejection := couponRejection(err, code, orderAmount); rejection != nil {
			return nil, rejection
		}
		return nil, err
	}

	var resp validateCouponResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing coupon validation response: %w", err)
	}
	if !resp.Success {
		return nil, &coupon.Error{
			Code:       coupon.CodeInvalidCode,
			CouponCode: code,
			Message:    resp.Message,
		}
	}

	return &coupon.Applied{
		Coupon:         resp.Data.Coupon.toEntity(),
		DiscountAmount: resp.Data.DiscountAmount,
		FinalAmount:    resp.Data.FinalAmount,
		OrderAmount:    orderAmount,
	}, nil
}

// couponRejection converts a structured backend rejection into the domain
// error the gate and the UI work with. Returns nil for anything that is not
// a coupon business rejection.
func couponRejection(err error, code string, orderAmount int64) *coupon.Error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	switch apiErr.Code {
	case coupon.CodeMinAmount:
		return &coupon.Error{
			Code:        coupon.CodeMinAmount,
			CouponCode:  code,
			Minimum:     apiErr.Minimum,
			OrderAmount: orderAmount,
			Message:     apiErr.Message,
		}
	case coupon.CodeInvalidCode, coupon.CodeExpired:
		return &coupon.Error{
			Code:       apiErr.Code,
			CouponCode: code,
			Message:    apiErr.Message,
		}
	}
	return nil
}

type listCouponsResponse struct {
	Coupons []couponPayload `json:"coupons"`
}

// ListCoupons fetches the coupons offered up front by the selector widget,
// minimums included, so the gate can pre-check eligibility locally.
func (c *Client) ListCoupons(ctx context.Context) ([]coupon.Coupon, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/coupons", nil)
	if err != nil {
		return nil, err
	}

	var resp listCouponsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing coupon list: %w", err)
	}

	coupons := make([]coupon.Coupon, 0, len(resp.Coupons))
	for _, p := range resp.Coupons {
		coupons = append(coupons, p.toEntity())
	}
	return coupons, nil
}
