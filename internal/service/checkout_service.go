package service

import (
	"context"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
	"github.com/fjod/go_cart/settlement-service/internal/metrics"
	"github.com/fjod/go_cart/settlement-service/internal/repository"
	"go.uber.org/zap"
)

// CartInvalidator drops a client's cached cart after its active cart changes.
type CartInvalidator interface {
	InvalidateCart(clientID int64)
}

type CheckoutService struct {
	repo        repository.CheckoutRepository
	invalidator CartInvalidator
	metrics     *metrics.Metrics
	log         *zap.Logger
}

func NewCheckoutService(repo repository.CheckoutRepository, invalidator CartInvalidator, m *metrics.Metrics, log *zap.Logger) *CheckoutService {
	return &CheckoutService{
		repo:        repo,
		invalidator: invalidator,
		metrics:     m,
		log:         log.Named("checkout"),
	}
}

// PlaceOrder checks out one of the client's carts. Address ownership is
// validated by the caller before this point.
func (s *CheckoutService) PlaceOrder(ctx context.Context, clientID, cartID, addressID int64) (domain.Placement, error) {
	if clientID <= 0 || cartID <= 0 || addressID <= 0 {
		return domain.Placement{}, ErrInvalidID
	}

	placement, err := s.repo.PlaceOrder(ctx, clientID, cartID, addressID)
	result := outcome(err)
	s.metrics.Checkouts.WithLabelValues(result).Inc()
	if err != nil {
		if result == metrics.ResultError {
			s.log.Error("place order failed", zap.Int64("client_id", clientID), zap.Int64("cart_id", cartID), zap.Error(err))
		} else {
			s.log.Info("place order refused", zap.Int64("client_id", clientID), zap.Int64("cart_id", cartID), zap.String("reason", err.Error()))
		}
		return domain.Placement{}, err
	}

	s.invalidator.InvalidateCart(placement.ClientID)
	s.log.Info("order placed",
		zap.Int64("order_id", placement.OrderID),
		zap.Int64("cart_id", placement.CartID),
		zap.Int64("new_cart_id", placement.NewCartID),
		zap.Int64("client_id", placement.ClientID),
	)
	return placement, nil
}
