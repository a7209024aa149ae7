package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/settlement-service/internal/repository"
	"github.com/fjod/go_cart/settlement-service/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type errorKind struct {
	sentinel error
	status   int
	code     string
}

// errorKinds maps engine errors to what callers see. Only the sentinel's
// message is exposed, never the wrapped storage text.
var errorKinds = []errorKind{
	{service.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{service.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{service.ErrInvalidPaymentMethod, http.StatusBadRequest, "invalid_payment_method"},
	{service.ErrInvalidID, http.StatusBadRequest, "invalid_id"},
	{repository.ErrNoActiveCart, http.StatusNotFound, "no_active_cart"},
	{repository.ErrCartNotFound, http.StatusNotFound, "cart_not_found"},
	{repository.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{repository.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{repository.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{repository.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
	{repository.ErrCartAlreadyCheckedOut, http.StatusConflict, "cart_already_checked_out"},
	{repository.ErrOverpaymentRejected, http.StatusConflict, "overpayment_rejected"},
	{repository.ErrBusy, http.StatusServiceUnavailable, "busy"},
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func handleServiceError(w http.ResponseWriter, err error) {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.sentinel) {
			if kind.status == http.StatusServiceUnavailable {
				w.Header().Set("Retry-After", "1")
			}
			respondError(w, kind.status, kind.code, kind.sentinel.Error())
			return
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
		return
	}
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
