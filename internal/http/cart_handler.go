package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
)

type CartService interface {
	GetCartContents(ctx context.Context, clientID int64) (*domain.CartContents, bool, error)
	AddItem(ctx context.Context, clientID, productID int64, quantity int) (int, error)
	SetItemQuantity(ctx context.Context, clientID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, clientID, productID int64) error
	ClearCart(ctx context.Context, clientID int64) error
	CartTotal(ctx context.Context, clientID int64) (domain.Money, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

// GetCart answers 200 with a null cart when the client has none.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	clientID := getClientIDFromContext(r.Context())
	if clientID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing client identity")
		return
	}

	contents, found, err := h.carts.GetCartContents(ctx, clientID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !found {
		respondJSON(w, http.StatusOK, CartResponseDTO{})
		return
	}
	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: toCartDTO(contents)})
}

func (h *CartHandler) GetTotal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	clientID := getClientIDFromContext(r.Context())
	if clientID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing client identity")
		return
	}

	total, err := h.carts.CartTotal(ctx, clientID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, CartTotalDTO{TotalCents: int64(total), Total: total.String()})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	clientID := getClientIDFromContext(r.Context())
	if clientID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing client identity")
		return
	}

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	quantity, err := h.carts.AddItem(ctx, clientID, req.ProductID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, AddItemResponseDTO{ProductID: req.ProductID, Quantity: quantity})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	clientID := getClientIDFromContext(r.Context())
	if clientID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing client identity")
		return
	}

	productID, ok := pathID(r, "product_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil || req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "body must carry a quantity")
		return
	}

	if err := h.carts.SetItemQuantity(ctx, clientID, productID, *req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	clientID := getClientIDFromContext(r.Context())
	if clientID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing client identity")
		return
	}

	productID, ok := pathID(r, "product_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	if err := h.carts.RemoveItem(ctx, clientID, productID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	clientID := getClientIDFromContext(r.Context())
	if clientID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing client identity")
		return
	}

	if err := h.carts.ClearCart(ctx, clientID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
