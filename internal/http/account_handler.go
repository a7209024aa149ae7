package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
)

type QueryService interface {
	OutstandingOrders(ctx context.Context, clientID int64) ([]domain.OrderBalance, error)
	SettledPurchases(ctx context.Context, clientID int64) ([]domain.OrderBalance, error)
	Receipt(ctx context.Context, orderID int64) (*domain.Receipt, error)
}

type AccountHandler struct {
	queries QueryService
	timeout time.Duration
}

func NewAccountHandler(queries QueryService, timeout time.Duration) *AccountHandler {
	return &AccountHandler{queries: queries, timeout: timeout}
}

func (h *AccountHandler) OutstandingOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, h.queries.OutstandingOrders)
}

func (h *AccountHandler) SettledPurchases(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, h.queries.SettledPurchases)
}

func (h *AccountHandler) listOrders(w http.ResponseWriter, r *http.Request,
	list func(context.Context, int64) ([]domain.OrderBalance, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	clientID := getClientIDFromContext(r.Context())
	if clientID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing client identity")
		return
	}

	orders, err := list(ctx, clientID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderBalanceDTOs(orders))
}

// Receipt serves the data an external renderer turns into a document.
func (h *AccountHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(r, "order_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a positive integer")
		return
	}

	receipt, err := h.queries.Receipt(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ReceiptDTO{
		Order:    toOrderBalanceDTO(receipt.Balance),
		Lines:    toCartItemDTOs(receipt.Lines),
		Payments: toPaymentDTOs(receipt.Payments),
	})
}
