// Package coupon implements the client side of coupon application: a local
// eligibility gate in front of the backend validator, and structured errors
// the UI can localize without parsing message text.
//
// The backend remains the authority for discount amounts. Estimate exists for
// display only and must never be written back as the applied discount.
package coupon

import "fmt"

type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

// Coupon is immutable once fetched from the backend; the client only reads
// it to gate eligibility and to render.
type Coupon struct {
	Code            string
	Type            Type
	Value           int64
	MinimumAmount   int64 // 0 means no minimum
	MaximumDiscount int64 // 0 means uncapped; applies to percentage coupons
}

// Estimate computes a display-only discount preview for the given order
// amount. The authoritative amount is always the backend's.
func (c Coupon) Estimate(orderAmount int64) int64 {
	var discount int64
	switch c.Type {
	case TypePercentage:
		discount = orderAmount * c.Value / 100
		if c.MaximumDiscount > 0 && discount > c.MaximumDiscount {
			discount = c.MaximumDiscount
		}
	case TypeFixed:
		discount = c.Value
	}
	if discount > orderAmount {
		discount = orderAmount
	}
	return discount
}

// Applied is the ephemeral result of a successful validation. DiscountAmount
// and FinalAmount are the backend's figures for the order amount that was
// validated.
type Applied struct {
	Coupon         Coupon
	DiscountAmount int64
	FinalAmount    int64
	OrderAmount    int64
}

// Rejection codes carried in Error.Code. These mirror the backend's
// structured validation payload; messages are rendered from the fields,
// never matched against server text.
const (
	CodeMinAmount   = "MIN_AMOUNT"
	CodeInvalidCode = "INVALID_CODE"
	CodeExpired     = "EXPIRED"
)

// Error is a business-rule rejection: an expected outcome, not a fault.
// Minimum and OrderAmount are populated for MIN_AMOUNT rejections so the UI
// can localize the message with both figures.
type Error struct {
	Code        string
	CouponCode  string
	Minimum     int64
	OrderAmount int64
	Message     string
}

func (e *Error) Error() string {
	if e.Code == CodeMinAmount {
		return fmt.Sprintf("coupon %s requires a minimum order of %d, current order is %d",
			e.CouponCode, e.Minimum, e.OrderAmount)
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("coupon %s rejected: %s", e.CouponCode, e.Code)
}
