package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
	"github.com/fjod/go_cart/settlement-service/internal/metrics"
	"github.com/fjod/go_cart/settlement-service/internal/repository"
	"github.com/fjod/go_cart/settlement-service/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	handler  http.Handler
	carts    *CartServiceMock
	checkout *CheckoutServiceMock
	payments *PaymentServiceMock
	queries  *QueryServiceMock
	metrics  *metrics.Metrics
	health   map[string]Pinger
}

func newTestServer() *testServer {
	reg := prometheus.NewRegistry()
	s := &testServer{
		carts:    &CartServiceMock{},
		checkout: &CheckoutServiceMock{},
		payments: &PaymentServiceMock{},
		queries:  &QueryServiceMock{},
		metrics:  metrics.New(reg),
		health:   map[string]Pinger{"postgres": PingerMock{}, "redis": PingerMock{}},
	}
	s.handler = NewRouter(RouterConfig{
		Carts:          s.carts,
		Checkout:       s.checkout,
		Payments:       s.payments,
		Queries:        s.queries,
		Health:         s.health,
		Metrics:        s.metrics,
		Gatherer:       reg,
		Logger:         zap.NewNop(),
		RequestTimeout: 5 * time.Second,
	})
	return s
}

func (s *testServer) do(method, path, body string, clientID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if clientID != 0 {
		req.Header.Set(ClientIDHeader, fmt.Sprint(clientID))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestGetCart_Success(t *testing.T) {
	s := newTestServer()
	s.carts.found = true
	s.carts.contents = &domain.CartContents{
		Cart: domain.Cart{ID: 3, ClientID: 7, Status: domain.CartStatusActive},
		Items: []domain.CartItem{
			{ProductID: 1, ProductName: "A", Quantity: 2, UnitPrice: 1000},
			{ProductID: 2, ProductName: "B", Quantity: 1, UnitPrice: 500},
		},
	}

	rec := s.do(http.MethodGet, "/api/v1/cart", "", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), s.carts.lastClient)

	var resp CartResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Cart)
	assert.Equal(t, int64(2500), resp.Cart.TotalCents)
	assert.Equal(t, "25.00", resp.Cart.Total)
	assert.Equal(t, "20.00", resp.Cart.Items[0].LineTotal)
}

func TestGetCart_NoCartIsNotAnError(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodGet, "/api/v1/cart", "", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cart":null}`, rec.Body.String())
}

func TestMissingClientIdentity(t *testing.T) {
	s := newTestServer()

	for _, header := range []string{"", "abc", "-4"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		if header != "" {
			req.Header.Set(ClientIDHeader, header)
		}
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
	}
}

func TestAddItem(t *testing.T) {
	s := newTestServer()
	s.carts.quantity = 5

	rec := s.do(http.MethodPost, "/api/v1/cart/items", `{"product_id":4,"quantity":2}`, 7)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"product_id":4,"quantity":5}`, rec.Body.String())
	assert.Equal(t, int64(4), s.carts.lastProduct)
	assert.Equal(t, 2, s.carts.lastQty)
}

func TestAddItem_BadBody(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/v1/cart/items", `{"product_id":"x"}`, 7)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Code)
}

func TestUpdateQuantity(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPut, "/api/v1/cart/items/4", `{"quantity":0}`, 7)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, s.carts.lastQty)
	assert.Equal(t, int64(4), s.carts.lastProduct)

	rec = s.do(http.MethodPut, "/api/v1/cart/items/4", `{}`, 7)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/v1/cart/items/zero", `{"quantity":1}`, 7)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_product_id", decodeError(t, rec).Code)
}

func TestRemoveAndClear(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodDelete, "/api/v1/cart/items/4", "", 7)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/cart", "", 7)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	s.carts.err = repository.ErrNoActiveCart
	rec = s.do(http.MethodDelete, "/api/v1/cart", "", 7)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_active_cart", decodeError(t, rec).Code)
}

func TestCartTotal(t *testing.T) {
	s := newTestServer()
	s.carts.total = 1999

	rec := s.do(http.MethodGet, "/api/v1/cart/total", "", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_cents":1999,"total_display":"19.99"}`, rec.Body.String())
}

func TestPlaceOrder(t *testing.T) {
	s := newTestServer()
	s.checkout.placement = domain.Placement{OrderID: 10, NewCartID: 4, ClientID: 7}

	rec := s.do(http.MethodPost, "/api/v1/orders", `{"cart_id":3,"address_id":1}`, 7)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp PlacementDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(10), resp.OrderID)
	assert.Equal(t, int64(3), resp.CartID)
	assert.Equal(t, int64(4), resp.NewCartID)
	assert.Equal(t, int64(7), s.checkout.lastClient, "checkout is scoped to the calling client")
}

func TestRegisterPayment(t *testing.T) {
	s := newTestServer()
	s.payments.result = domain.PaymentResult{PaymentID: 2, Debt: 0, Settled: true}

	rec := s.do(http.MethodPost, "/api/v1/orders/10/payments", `{"method":"card","amount_cents":1000}`, 7)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"payment_id":2,"debt_cents":0,"debt_display":"0.00","settled":true}`, rec.Body.String())
	assert.Equal(t, int64(10), s.payments.lastOrder)
	assert.Equal(t, domain.Money(1000), s.payments.lastAmount)
}

func TestDebtAndPaymentList(t *testing.T) {
	s := newTestServer()
	s.payments.debt = 1000
	paidAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.payments.payments = []domain.Payment{{ID: 1, OrderID: 10, Method: "card", PaidAt: paidAt, Amount: 1500}}

	rec := s.do(http.MethodGet, "/api/v1/orders/10/debt", "", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"order_id":10,"debt_cents":1000,"debt_display":"10.00"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/orders/10/payments", "", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	var payments []PaymentDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payments))
	require.Len(t, payments, 1)
	assert.Equal(t, "15.00", payments[0].Amount)
}

func TestAccountViews(t *testing.T) {
	s := newTestServer()
	s.queries.outstanding = []domain.OrderBalance{
		{Order: domain.Order{ID: 11, Status: domain.OrderStatusAwaitingPayment}, Total: 300, Debt: 300},
	}
	s.queries.settled = []domain.OrderBalance{}

	rec := s.do(http.MethodGet, "/api/v1/account/orders/outstanding", "", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []OrderBalanceDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, int64(300), orders[0].DebtCents)
	assert.Equal(t, "AWAITING_PAYMENT", orders[0].Status)

	rec = s.do(http.MethodGet, "/api/v1/account/purchases", "", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestReceipt(t *testing.T) {
	s := newTestServer()
	s.queries.receipt = &domain.Receipt{
		Balance:  domain.OrderBalance{Order: domain.Order{ID: 5, Status: domain.OrderStatusSettled}, Total: 2500, Paid: 2500},
		Lines:    []domain.CartItem{{ProductID: 1, ProductName: "A", Quantity: 2, UnitPrice: 1000}},
		Payments: []domain.Payment{{ID: 1, Amount: 2500, Method: "cash"}},
	}

	rec := s.do(http.MethodGet, "/api/v1/orders/5/receipt", "", 7)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReceiptDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "25.00", resp.Order.Total)
	assert.Equal(t, "0.00", resp.Order.Debt)
	assert.Len(t, resp.Lines, 1)
	assert.Len(t, resp.Payments, 1)
}

func TestErrorKindMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
		{service.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
		{repository.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
		{repository.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
		{repository.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
		{repository.ErrCartAlreadyCheckedOut, http.StatusConflict, "cart_already_checked_out"},
		{fmt.Errorf("%w: amount 0.01, debt 0.00", repository.ErrOverpaymentRejected), http.StatusConflict, "overpayment_rejected"},
		{fmt.Errorf("%w: pq: canceling statement due to lock timeout", repository.ErrBusy), http.StatusServiceUnavailable, "busy"},
		{errors.New("pq: password authentication failed for user settlement"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotContains(t, resp.Error, "pq:", "storage text must not leak")
			assert.NotContains(t, resp.Error, "debt 0.00")
			if tt.code == "busy" {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodGet, "/health", "", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"postgres":"ok","redis":"ok"}}`, rec.Body.String())

	s.health["redis"] = PingerMock{down: true}
	rec = s.do(http.MethodGet, "/health", "", 0)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}

func TestMetricsRecordedByRoutePattern(t *testing.T) {
	s := newTestServer()

	s.do(http.MethodGet, "/api/v1/orders/10/debt", "", 7)
	s.do(http.MethodGet, "/api/v1/orders/11/debt", "", 7)

	count := testutil.ToFloat64(s.metrics.Requests.WithLabelValues("/api/v1/orders/{order_id}/debt", "200"))
	assert.Equal(t, 2.0, count)

	rec := s.do(http.MethodGet, "/metrics", "", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "settlement_http_requests_total"))
}
