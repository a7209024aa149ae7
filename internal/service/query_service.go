package service

import (
	"context"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
	"github.com/fjod/go_cart/settlement-service/internal/metrics"
	"github.com/fjod/go_cart/settlement-service/internal/repository"
	"go.uber.org/zap"
)

// QueryService serves read-only views. Every total, paid and debt figure it
// returns comes from the store's single balance definition.
type QueryService struct {
	repo repository.QueryRepository
	log  *zap.Logger
}

func NewQueryService(repo repository.QueryRepository, log *zap.Logger) *QueryService {
	return &QueryService{repo: repo, log: log.Named("query")}
}

func (s *QueryService) OutstandingOrders(ctx context.Context, clientID int64) ([]domain.OrderBalance, error) {
	return s.clientOrders(ctx, clientID, domain.OrderStatusAwaitingPayment)
}

func (s *QueryService) SettledPurchases(ctx context.Context, clientID int64) ([]domain.OrderBalance, error) {
	return s.clientOrders(ctx, clientID, domain.OrderStatusSettled)
}

func (s *QueryService) OrderDebt(ctx context.Context, orderID int64) (domain.Money, error) {
	b, err := s.OrderBalance(ctx, orderID)
	if err != nil {
		return 0, err
	}
	return b.Debt, nil
}

func (s *QueryService) OrderBalance(ctx context.Context, orderID int64) (*domain.OrderBalance, error) {
	if orderID <= 0 {
		return nil, ErrInvalidID
	}
	b, err := s.repo.OrderBalance(ctx, orderID)
	if err != nil {
		s.logFailure("order balance", orderID, err)
		return nil, err
	}
	return b, nil
}

func (s *QueryService) OrderPayments(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	if orderID <= 0 {
		return nil, ErrInvalidID
	}
	payments, err := s.repo.OrderPayments(ctx, orderID)
	if err != nil {
		s.logFailure("order payments", orderID, err)
		return nil, err
	}
	return payments, nil
}

// Receipt gathers the header, lines and payments a receipt renderer needs.
func (s *QueryService) Receipt(ctx context.Context, orderID int64) (*domain.Receipt, error) {
	balance, err := s.OrderBalance(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.OrderLines(ctx, orderID)
	if err != nil {
		s.logFailure("order lines", orderID, err)
		return nil, err
	}

	payments, err := s.OrderPayments(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &domain.Receipt{Balance: *balance, Lines: lines, Payments: payments}, nil
}

func (s *QueryService) clientOrders(ctx context.Context, clientID int64, status domain.OrderStatus) ([]domain.OrderBalance, error) {
	if clientID <= 0 {
		return nil, ErrInvalidID
	}
	orders, err := s.repo.ClientOrderBalances(ctx, clientID, status)
	if err != nil {
		s.log.Error("client orders failed",
			zap.Int64("client_id", clientID),
			zap.Stringer("status", status),
			zap.Error(err))
		return nil, err
	}
	return orders, nil
}

func (s *QueryService) logFailure(what string, orderID int64, err error) {
	if outcome(err) == metrics.ResultError {
		s.log.Error(what+" failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
}
