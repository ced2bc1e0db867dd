package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bookbay/storefront/internal/core/cart"
	"github.com/bookbay/storefront/internal/core/ports"
)

var _ ports.CartBackend = (*Client)(nil)

type linePayload struct {
	ID          int64  `json:"id"`
	BookID      int64  `json:"book_id"`
	VariationID int64  `json:"variation_id"`
	SKU         string `json:"sku"`
	VariantSKU  string `json:"variant_sku"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

type cartPayload struct {
	Items    []linePayload `json:"items"`
	Subtotal int64         `json:"subtotal"`
	Discount int64         `json:"discount"`
	Total    int64         `json:"total"`
}

// decodeCart accepts both response shapes the backend has shipped over time:
// a {"cart": {...}} envelope and a bare cart object.
func decodeCart(body []byte) (*cart.Cart, error) {
	raw := body
	var env struct {
		Cart json.RawMessage `json:"cart"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Cart) > 0 && string(env.Cart) != "null" {
		raw = env.Cart
	}

	var payload cartPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parsing cart payload: %w", err)
	}
	return normalizeCart(&payload), nil
}

// normalizeCart maps a raw payload to the canonical entity: Items is always
// a slice even when the field was missing or null, and every line gets its
// derived client key. Normalizing an already-normalized cart is a no-op
// because the key derivation is stable.
func normalizeCart(p *cartPayload) *cart.Cart {
	items := make([]cart.Line, 0, len(p.Items))
	for _, l := range p.Items {
		items = append(items, cart.Line{
			ID:          l.ID,
			BookID:      l.BookID,
			VariationID: l.VariationID,
			SKU:         l.SKU,
			VariantSKU:  l.VariantSKU,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			ClientKey:   cart.ClientKey(l.SKU, l.VariantSKU, l.ID),
		})
	}
	return &cart.Cart{
		Items:    items,
		Subtotal: p.Subtotal,
		Discount: p.Discount,
		Total:    p.Total,
	}
}

func (c *Client) getCart(ctx context.Context, method, path string, body any) (*cart.Cart, error) {
	respBody, err := c.doJSON(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return decodeCart(respBody)
}

func (c *Client) GetCart(ctx context.Context) (*cart.Cart, error) {
	return c.getCart(ctx, http.MethodGet, "/cart", nil)
}

type addItemRequest struct {
	BookID      int64  `json:"book_id"`
	Quantity    int    `json:"quantity"`
	VariationID *int64 `json:"variation_id"`
}

// optionalID maps the zero value to an explicit JSON null.
func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func (c *Client) AddItem(ctx context.Context, bookID int64, quantity int, variationID int64) (*cart.Cart, error) {
	return c.getCart(ctx, http.MethodPost, "/cart/items", addItemRequest{
		BookID:      bookID,
		Quantity:    quantity,
		VariationID: optionalID(variationID),
	})
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (c *Client) UpdateItem(ctx context.Context, lineID int64, quantity int) (*cart.Cart, error) {
	return c.getCart(ctx, http.MethodPut, fmt.Sprintf("/cart/items/%d", lineID), updateItemRequest{Quantity: quantity})
}

func (c *Client) RemoveItem(ctx context.Context, lineID int64) (*cart.Cart, error) {
	return c.getCart(ctx, http.MethodDelete, fmt.Sprintf("/cart/items/%d", lineID), nil)
}

type bulkRemoveRequest struct {
	IDs []int64 `json:"ids"`
}

// RemoveItems removes several lines with a three-tier cascade: the primary
// bulk endpoint, its historical naming variant, and finally one delete per
// line followed by a single re-fetch. Whichever tier succeeds, the caller
// gets a fresh snapshot with all ids removed.
func (c *Client) RemoveItems(ctx context.Context, ids []int64) (*cart.Cart, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("remove items: empty id list")
	}

	return runFallback(ctx, "remove items", []attempt{
		{"bulk-delete", func(ctx context.Context) (*cart.Cart, error) {
			return c.getCart(ctx, http.MethodPost, "/cart/items/bulk-delete", bulkRemoveRequest{IDs: ids})
		}},
		{"batch-delete", func(ctx context.Context) (*cart.Cart, error) {
			return c.getCart(ctx, http.MethodPost, "/cart/items/batch-delete", bulkRemoveRequest{IDs: ids})
		}},
		{"sequential", func(ctx context.Context) (*cart.Cart, error) {
			return c.removeSequential(ctx, ids)
		}},
	})
}

// removeSequential is the last tier: per-id deletes, then one re-fetch.
// Individual misses are tolerated (the line may already be gone).
func (c *Client) removeSequential(ctx context.Context, ids []int64) (*cart.Cart, error) {
	for _, id := range ids {
		if _, err := c.RemoveItem(ctx, id); err != nil && !IsNotFound(err) {
			slog.WarnContext(ctx, "sequential remove failed for line", "line_id", id, "error", err)
		}
	}
	return c.GetCart(ctx)
}

type mergeItem struct {
	BookID      int64  `json:"book_id"`
	Quantity    int    `json:"quantity"`
	VariationID *int64 `json:"variation_id"`
}

type mergeRequest struct {
	Items []mergeItem `json:"items"`
}

// MergeCart posts an anonymous session's lines into the authenticated cart.
// Guest lines may carry the book identity under either book_id or a generic
// id; quantity defaults to 1 and variation_id to null when absent.
func (c *Client) MergeCart(ctx context.Context, lines []cart.GuestLine) (*cart.Cart, error) {
	items := make([]mergeItem, 0, len(lines))
	for _, l := range lines {
		bookID := l.BookID
		if bookID == 0 {
			bookID = l.ID
		}
		quantity := l.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		items = append(items, mergeItem{
			BookID:      bookID,
			Quantity:    quantity,
			VariationID: optionalID(l.VariationID),
		})
	}
	return c.getCart(ctx, http.MethodPost, "/cart/merge", mergeRequest{Items: items})
}

// ClearCart empties the cart, tolerating the same backend endpoint variance
// as RemoveItems: the POST-based endpoint first, then the DELETE-based one.
func (c *Client) ClearCart(ctx context.Context) (*cart.Cart, error) {
	return runFallback(ctx, "clear cart", []attempt{
		{"post-clear", func(ctx context.Context) (*cart.Cart, error) {
			return c.getCart(ctx, http.MethodPost, "/cart/clear", nil)
		}},
		{"delete-cart", func(ctx context.Context) (*cart.Cart, error) {
			return c.getCart(ctx, http.MethodDelete, "/cart", nil)
		}},
	})
}
