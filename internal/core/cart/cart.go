// Package cart holds the storefront's view of a shopping cart.
//
// A cart is always a fresh snapshot returned by the bookstore backend after
// each mutation; nothing in this package talks to the network.
package cart

import "strconv"

// Line is one row in a cart: a book (optionally a specific variation) and a
// quantity. ID is the server-assigned line identity; ClientKey is derived
// locally and never sent back to the server.
type Line struct {
	ID          int64
	BookID      int64
	VariationID int64 // 0 when the line has no variation
	SKU         string
	VariantSKU  string
	Quantity    int
	UnitPrice   int64
	ClientKey   string
}

// Subtotal is the line's contribution to the cart total.
func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Cart is a normalized snapshot of the server-side cart.
// Items is never nil. Totals are the server-reported amounts.
type Cart struct {
	Items    []Line
	Subtotal int64
	Discount int64
	Total    int64
}

// Sum recomputes the cart total from its lines. Order-independent.
func (c *Cart) Sum() int64 {
	var total int64
	for _, l := range c.Items {
		total += l.Subtotal()
	}
	return total
}

// Line returns the line with the given server ID, if present.
func (c *Cart) Line(id int64) (Line, bool) {
	for _, l := range c.Items {
		if l.ID == id {
			return l, true
		}
	}
	return Line{}, false
}

// ClientKey derives a stable local identity for a cart line. The SKU wins,
// then the variant SKU, then a key built from the server line ID. The server
// guarantees the ID is present on every line it returns, so the result is
// never empty.
func ClientKey(sku, variantSKU string, id int64) string {
	switch {
	case sku != "":
		return sku
	case variantSKU != "":
		return variantSKU
	default:
		return "server_" + strconv.FormatInt(id, 10)
	}
}

// GuestLine is a cart line kept locally for an anonymous session, before the
// user logs in. Older storefront clients stored the book ID under a generic
// "id" field, so BookID may be zero with ID carrying the book identity.
type GuestLine struct {
	ID          int64 `json:"id,omitempty"`
	BookID      int64 `json:"book_id,omitempty"`
	VariationID int64 `json:"variation_id,omitempty"`
	Quantity    int   `json:"quantity"`
}
