package service

import (
	"context"
	"strings"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
	"github.com/fjod/go_cart/settlement-service/internal/metrics"
	"github.com/fjod/go_cart/settlement-service/internal/repository"
	"go.uber.org/zap"
)

const maxMethodLen = 32

type PaymentService struct {
	repo    repository.PaymentRepository
	query   *QueryService
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewPaymentService(repo repository.PaymentRepository, query *QueryService, m *metrics.Metrics, log *zap.Logger) *PaymentService {
	return &PaymentService{
		repo:    repo,
		query:   query,
		metrics: m,
		log:     log.Named("payment"),
	}
}

// RegisterPayment records amount against the order and reports the debt left.
func (s *PaymentService) RegisterPayment(ctx context.Context, orderID int64, method string, amount domain.Money) (domain.PaymentResult, error) {
	if orderID <= 0 {
		return domain.PaymentResult{}, ErrInvalidID
	}
	method = strings.TrimSpace(method)
	if method == "" || len(method) > maxMethodLen {
		return domain.PaymentResult{}, ErrInvalidPaymentMethod
	}
	if !amount.IsPositive() {
		return domain.PaymentResult{}, ErrInvalidAmount
	}

	res, err := s.repo.RegisterPayment(ctx, orderID, method, amount)
	result := outcome(err)
	s.metrics.Payments.WithLabelValues(result).Inc()
	if err != nil {
		if result == metrics.ResultError {
			s.log.Error("register payment failed", zap.Int64("order_id", orderID), zap.Error(err))
		} else {
			s.log.Info("payment refused", zap.Int64("order_id", orderID), zap.String("reason", err.Error()))
		}
		return domain.PaymentResult{}, err
	}

	fields := []zap.Field{
		zap.Int64("order_id", orderID),
		zap.Int64("payment_id", res.PaymentID),
		zap.String("amount", amount.String()),
		zap.String("debt", res.Debt.String()),
	}
	if res.Settled {
		s.metrics.Settlements.Inc()
		s.log.Info("order settled", fields...)
	} else {
		s.log.Info("payment registered", fields...)
	}
	return res, nil
}

func (s *PaymentService) GetDebt(ctx context.Context, orderID int64) (domain.Money, error) {
	return s.query.OrderDebt(ctx, orderID)
}

func (s *PaymentService) GetOrderPayments(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	return s.query.OrderPayments(ctx, orderID)
}
