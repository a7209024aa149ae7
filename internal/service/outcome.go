package service

import (
	"errors"

	"github.com/fjod/go_cart/settlement-service/internal/metrics"
	"github.com/fjod/go_cart/settlement-service/internal/repository"
)

// outcome classifies an engine error into a metrics result label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, repository.ErrBusy):
		return metrics.ResultBusy
	case errors.Is(err, repository.ErrNoActiveCart),
		errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrEmptyCart),
		errors.Is(err, repository.ErrCartAlreadyCheckedOut),
		errors.Is(err, repository.ErrItemNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrOverpaymentRejected):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}
