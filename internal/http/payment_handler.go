package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
)

type PaymentService interface {
	RegisterPayment(ctx context.Context, orderID int64, method string, amount domain.Money) (domain.PaymentResult, error)
	GetDebt(ctx context.Context, orderID int64) (domain.Money, error)
	GetOrderPayments(ctx context.Context, orderID int64) ([]domain.Payment, error)
}

type PaymentHandler struct {
	payments PaymentService
	timeout  time.Duration
}

func NewPaymentHandler(payments PaymentService, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{payments: payments, timeout: timeout}
}

func (h *PaymentHandler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(r, "order_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a positive integer")
		return
	}

	var req RegisterPaymentRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res, err := h.payments.RegisterPayment(ctx, orderID, req.Method, domain.Money(req.AmountCents))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, PaymentResultDTO{
		PaymentID: res.PaymentID,
		DebtCents: int64(res.Debt),
		Debt:      res.Debt.String(),
		Settled:   res.Settled,
	})
}

func (h *PaymentHandler) GetDebt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(r, "order_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a positive integer")
		return
	}

	debt, err := h.payments.GetDebt(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DebtDTO{OrderID: orderID, DebtCents: int64(debt), Debt: debt.String()})
}

func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(r, "order_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a positive integer")
		return
	}

	payments, err := h.payments.GetOrderPayments(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPaymentDTOs(payments))
}
