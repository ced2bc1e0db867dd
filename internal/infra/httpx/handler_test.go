package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookbay/storefront/internal/core/cart"
	"github.com/bookbay/storefront/internal/core/coupon"
	"github.com/bookbay/storefront/internal/core/service"
	"github.com/bookbay/storefront/internal/infra/backend"
	"github.com/bookbay/storefront/internal/pkg/clientmeta"
)

// flowStub records calls and replays a canned view or error.
type flowStub struct {
	view  *service.View
	err   error
	calls []string

	offers []service.CouponOffer
	lines  []cart.GuestLine

	gotBookID   int64
	gotLineID   int64
	gotQuantity int64
	gotCode     string
	gotIDs      []int64
	gotSession  string
	gotLines    []cart.GuestLine
}

func (f *flowStub) record(name string) { f.calls = append(f.calls, name) }

func (f *flowStub) Refresh(context.Context) (*service.View, error) {
	f.record("Refresh")
	return f.view, f.err
}

func (f *flowStub) AddItem(_ context.Context, bookID int64, quantity int, _ int64) (*service.View, error) {
	f.record("AddItem")
	f.gotBookID, f.gotQuantity = bookID, int64(quantity)
	return f.view, f.err
}

func (f *flowStub) UpdateQuantity(_ context.Context, lineID int64, quantity int) (*service.View, error) {
	f.record("UpdateQuantity")
	f.gotLineID, f.gotQuantity = lineID, int64(quantity)
	return f.view, f.err
}

func (f *flowStub) RemoveItem(_ context.Context, lineID int64) (*service.View, error) {
	f.record("RemoveItem")
	f.gotLineID = lineID
	return f.view, f.err
}

func (f *flowStub) RemoveSelected(context.Context) (*service.View, error) {
	f.record("RemoveSelected")
	return f.view, f.err
}

func (f *flowStub) Clear(context.Context) (*service.View, error) {
	f.record("Clear")
	return f.view, f.err
}

func (f *flowStub) SetSelection(_ context.Context, ids []int64) *service.View {
	f.record("SetSelection")
	f.gotIDs = ids
	return f.view
}

func (f *flowStub) SelectAll(_ context.Context, selected bool) *service.View {
	f.record("SelectAll")
	return f.view
}

func (f *flowStub) SelectLine(_ context.Context, lineID int64, selected bool) *service.View {
	f.record("SelectLine")
	f.gotLineID = lineID
	return f.view
}

func (f *flowStub) ApplyCoupon(_ context.Context, code string) (*service.View, error) {
	f.record("ApplyCoupon")
	f.gotCode = code
	return f.view, f.err
}

func (f *flowStub) RemoveCoupon() *service.View {
	f.record("RemoveCoupon")
	return f.view
}

func (f *flowStub) AvailableCoupons(context.Context) ([]service.CouponOffer, error) {
	f.record("AvailableCoupons")
	return f.offers, f.err
}

func (f *flowStub) MergeAtLogin(_ context.Context, sessionID string, lines []cart.GuestLine) (*service.View, error) {
	f.record("MergeAtLogin")
	f.gotSession, f.gotLines = sessionID, lines
	return f.view, f.err
}

func (f *flowStub) SaveGuestLines(_ context.Context, sessionID string, lines []cart.GuestLine) error {
	f.record("SaveGuestLines")
	f.gotSession, f.gotLines = sessionID, lines
	return f.err
}

func (f *flowStub) GuestLines(_ context.Context, sessionID string) ([]cart.GuestLine, error) {
	f.record("GuestLines")
	f.gotSession = sessionID
	return f.lines, f.err
}

func sampleView() *service.View {
	return &service.View{
		Lines: []cart.Line{
			{ID: 1, BookID: 10, SKU: "BK-10", Quantity: 2, UnitPrice: 100, ClientKey: "BK-10"},
			{ID: 2, BookID: 11, Quantity: 1, UnitPrice: 50, ClientKey: "server_2"},
		},
		Subtotal:      250,
		SelectedIDs:   []int64{1},
		SelectedTotal: 200,
	}
}

func newTestRouter(stub *flowStub) (http.Handler, *[]string) {
	sessions := []string{}
	h := NewHandler(func(sessionID string) Flow {
		sessions = append(sessions, sessionID)
		return stub
	})
	return NewRouter(h), &sessions
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetCart_MapsViewWithSelection(t *testing.T) {
	stub := &flowStub{view: sampleView()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet, "/cart", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].Selected)
	assert.False(t, resp.Items[1].Selected)
	assert.Equal(t, int64(200), resp.Items[0].Subtotal)
	assert.Equal(t, "server_2", resp.Items[1].ClientKey)
	assert.Equal(t, int64(250), resp.Subtotal)
	assert.Equal(t, int64(200), resp.SelectedTotal)
	assert.Nil(t, resp.Coupon)
}

func TestSessionHeader_MintedWhenAbsent(t *testing.T) {
	stub := &flowStub{view: sampleView()}
	router, sessions := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet, "/cart", "", nil)

	minted := rec.Header().Get(clientmeta.HeaderXSessionID)
	require.NotEmpty(t, minted)
	require.Len(t, *sessions, 1)
	assert.Equal(t, minted, (*sessions)[0])
}

func TestSessionHeader_EchoedWhenPresent(t *testing.T) {
	stub := &flowStub{view: sampleView()}
	router, sessions := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet, "/cart", "", map[string]string{
		clientmeta.HeaderXSessionID: "sess-42",
	})

	assert.Equal(t, "sess-42", rec.Header().Get(clientmeta.HeaderXSessionID))
	require.Len(t, *sessions, 1)
	assert.Equal(t, "sess-42", (*sessions)[0])
}

func TestAddItem_InvalidJSON(t *testing.T) {
	stub := &flowStub{}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPost, "/cart/items", "{not json", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, stub.calls)
}

func TestAddItem_InvalidQuantityFromFlow(t *testing.T) {
	stub := &flowStub{err: service.ErrInvalidQuantity}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPost, "/cart/items", `{"book_id":10,"quantity":0}`, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_quantity", resp.Error)
}

func TestAddItem_DefaultsQuantityToOne(t *testing.T) {
	stub := &flowStub{view: sampleView()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPost, "/cart/items", `{"book_id":10}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(10), stub.gotBookID)
	assert.Equal(t, int64(1), stub.gotQuantity)
}

func TestUpdateQuantity_BadItemID(t *testing.T) {
	stub := &flowStub{}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPut, "/cart/items/abc", `{"quantity":2}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, stub.calls)
}

func TestUpdateQuantity_PassesPathID(t *testing.T) {
	stub := &flowStub{view: sampleView()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPut, "/cart/items/7", `{"quantity":3}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), stub.gotLineID)
	assert.Equal(t, int64(3), stub.gotQuantity)
}

func TestApplyCoupon_RejectionCarriesStructuredFields(t *testing.T) {
	stub := &flowStub{err: &coupon.Error{
		Code:        coupon.CodeMinAmount,
		Minimum:     9999,
		OrderAmount: 5000,
	}}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPost, "/coupons/apply", `{"code":"SAVE10"}`, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, coupon.CodeMinAmount, resp.Error)
	assert.Equal(t, int64(9999), resp.Minimum)
	assert.Equal(t, int64(5000), resp.OrderAmount)
	assert.Equal(t, "SAVE10", stub.gotCode)
}

func TestBackendFault_MapsToBadGateway(t *testing.T) {
	stub := &flowStub{err: &backend.APIError{Status: http.StatusInternalServerError, Message: "boom"}}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet, "/cart", "", nil)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cart_backend_error", resp.Error)
}

func TestBackendClientError_PassesStatusThrough(t *testing.T) {
	stub := &flowStub{err: &backend.APIError{Status: http.StatusNotFound, Code: "ITEM_NOT_FOUND", Message: "gone"}}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodDelete, "/cart/items/4", "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ITEM_NOT_FOUND", resp.Error)
}

func TestSetSelection_ForwardsIDs(t *testing.T) {
	stub := &flowStub{view: sampleView()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPut, "/cart/selection", `{"ids":[1,2]}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{1, 2}, stub.gotIDs)
}

func TestMergeCart_EmptyBodyUsesStoredGuestLines(t *testing.T) {
	stub := &flowStub{view: sampleView()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPost, "/cart/merge", "", map[string]string{
		clientmeta.HeaderXSessionID: "sess-9",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"MergeAtLogin"}, stub.calls)
	assert.Equal(t, "sess-9", stub.gotSession)
	assert.Empty(t, stub.gotLines)
}

func TestMergeCart_InlineLines(t *testing.T) {
	stub := &flowStub{view: sampleView()}
	router, _ := newTestRouter(stub)

	body := `{"items":[{"book_id":10,"quantity":2},{"id":7,"quantity":1}]}`
	rec := doRequest(t, router, http.MethodPost, "/cart/merge", body, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, stub.gotLines, 2)
	assert.Equal(t, int64(10), stub.gotLines[0].BookID)
	assert.Equal(t, int64(7), stub.gotLines[1].ID)
}

func TestGuestCart_SaveAndLoad(t *testing.T) {
	stub := &flowStub{lines: []cart.GuestLine{{BookID: 3, Quantity: 2}}, view: sampleView()}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPut, "/guest-cart", `{"items":[{"book_id":3,"quantity":2}]}`, map[string]string{
		clientmeta.HeaderXSessionID: "sess-3",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "sess-3", stub.gotSession)

	rec = doRequest(t, router, http.MethodGet, "/guest-cart", "", map[string]string{
		clientmeta.HeaderXSessionID: "sess-3",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp GuestCartRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(3), resp.Items[0].BookID)
}

func TestListCoupons_AnnotatesEligibility(t *testing.T) {
	stub := &flowStub{offers: []service.CouponOffer{
		{
			Coupon:   coupon.Coupon{Code: "SAVE10", Type: coupon.TypePercentage, Value: 10},
			Eligible: true,
			Estimate: 20,
		},
		{
			Coupon:   coupon.Coupon{Code: "BIG50", Type: coupon.TypeFixed, Value: 50, MinimumAmount: 9999},
			Eligible: false,
			Reason:   &coupon.Error{Code: coupon.CodeMinAmount, Minimum: 9999, OrderAmount: 200},
		},
	}}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet, "/coupons", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []CouponOfferResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.True(t, resp[0].Eligible)
	assert.Equal(t, int64(20), resp[0].Estimate)
	assert.False(t, resp[1].Eligible)
	require.NotNil(t, resp[1].Reason)
	assert.Equal(t, int64(9999), resp[1].Reason.Minimum)
}

func TestCouponNotice_SurfacedInCartResponse(t *testing.T) {
	view := sampleView()
	view.CouponNotice = &coupon.Error{Code: coupon.CodeMinAmount, Minimum: 9999, OrderAmount: 100}
	stub := &flowStub{view: view}
	router, _ := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPut, "/cart/items/1/selected", `{"selected":false}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.CouponNotice)
	assert.Equal(t, coupon.CodeMinAmount, resp.CouponNotice.Code)
	assert.Equal(t, int64(9999), resp.CouponNotice.Minimum)
}
