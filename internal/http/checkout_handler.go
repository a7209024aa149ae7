package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
)

type CheckoutService interface {
	PlaceOrder(ctx context.Context, clientID, cartID, addressID int64) (domain.Placement, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, timeout: timeout}
}

// PlaceOrder is safe to replay: a second submit of the same cart gets 409.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	clientID := getClientIDFromContext(r.Context())
	if clientID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing client identity")
		return
	}

	var req PlaceOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	placement, err := h.checkout.PlaceOrder(ctx, clientID, req.CartID, req.AddressID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, PlacementDTO{
		OrderID:   placement.OrderID,
		CartID:    placement.CartID,
		NewCartID: placement.NewCartID,
		PlacedAt:  placement.PlacedAt,
	})
}
