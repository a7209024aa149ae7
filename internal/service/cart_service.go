package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/cache"
	"github.com/fjod/go_cart/settlement-service/internal/domain"
	"github.com/fjod/go_cart/settlement-service/internal/metrics"
	"github.com/fjod/go_cart/settlement-service/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	metrics *metrics.Metrics
	log     *zap.Logger
	sfg     singleflight.Group
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, m *metrics.Metrics, log *zap.Logger) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		metrics: m,
		log:     log.Named("cart"),
	}
}

// GetCartContents returns the client's active cart. found is false when the
// client has none; that is not an error.
func (s *CartService) GetCartContents(ctx context.Context, clientID int64) (contents *domain.CartContents, found bool, err error) {
	if clientID <= 0 {
		return nil, false, ErrInvalidID
	}

	v, err, _ := s.sfg.Do(strconv.FormatInt(clientID, 10), func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, clientID)
		if err == nil {
			s.metrics.CacheLookup.WithLabelValues("hit").Inc()
			return cached, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.CacheLookup.WithLabelValues("miss").Inc()
		} else {
			s.metrics.CacheLookup.WithLabelValues("error").Inc()
			s.log.Warn("cache get failed", zap.Int64("client_id", clientID), zap.Error(err))
		}

		// taken before the load: a mutation that commits from here on bumps
		// it and the fill below is dropped
		generation, genErr := s.cache.Generation(ctx, clientID)

		fresh, err := s.repo.GetActiveCart(ctx, clientID)
		if err != nil {
			return nil, err
		}

		if genErr == nil {
			s.fillCache(ctx, clientID, generation, fresh)
		}
		return fresh, nil
	})
	if errors.Is(err, repository.ErrNoActiveCart) {
		return nil, false, nil
	}
	if err != nil {
		s.log.Error("get cart contents failed", zap.Int64("client_id", clientID), zap.Error(err))
		return nil, false, err
	}
	return v.(*domain.CartContents), true, nil
}

func (s *CartService) GetOrCreateActiveCart(ctx context.Context, clientID int64) (int64, error) {
	if clientID <= 0 {
		return 0, ErrInvalidID
	}
	cartID, err := s.repo.GetOrCreateActiveCart(ctx, clientID)
	s.record("get_or_create", clientID, err)
	return cartID, err
}

// AddItem adds quantity units of the product and returns the line's new quantity.
func (s *CartService) AddItem(ctx context.Context, clientID, productID int64, quantity int) (int, error) {
	if clientID <= 0 || productID <= 0 {
		return 0, ErrInvalidID
	}
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}

	_, newQuantity, err := s.repo.AddItem(ctx, clientID, productID, quantity)
	s.record("add_item", clientID, err)
	if err != nil {
		return 0, err
	}

	s.invalidateCache(clientID)
	return newQuantity, nil
}

func (s *CartService) SetItemQuantity(ctx context.Context, clientID, productID int64, quantity int) error {
	if clientID <= 0 || productID <= 0 {
		return ErrInvalidID
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	_, err := s.repo.SetItemQuantity(ctx, clientID, productID, quantity)
	s.record("set_quantity", clientID, err)
	if err != nil {
		return err
	}

	s.invalidateCache(clientID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, clientID, productID int64) error {
	if clientID <= 0 || productID <= 0 {
		return ErrInvalidID
	}

	_, err := s.repo.RemoveItem(ctx, clientID, productID)
	s.record("remove_item", clientID, err)
	if err != nil {
		return err
	}

	s.invalidateCache(clientID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, clientID int64) error {
	if clientID <= 0 {
		return ErrInvalidID
	}

	_, err := s.repo.ClearCart(ctx, clientID)
	s.record("clear", clientID, err)
	if err != nil {
		return err
	}

	s.invalidateCache(clientID)
	return nil
}

// CartTotal is zero when the client has no active cart.
func (s *CartService) CartTotal(ctx context.Context, clientID int64) (domain.Money, error) {
	if clientID <= 0 {
		return 0, ErrInvalidID
	}
	total, err := s.repo.ActiveCartTotal(ctx, clientID)
	if err != nil {
		s.log.Error("cart total failed", zap.Int64("client_id", clientID), zap.Error(err))
		return 0, err
	}
	return total, nil
}

// InvalidateCart drops the cached contents of a client's cart.
func (s *CartService) InvalidateCart(clientID int64) {
	s.invalidateCache(clientID)
}

func (s *CartService) record(op string, clientID int64, err error) {
	result := outcome(err)
	s.metrics.CartOps.WithLabelValues(op, result).Inc()
	if result == metrics.ResultError {
		s.log.Error("cart operation failed", zap.String("op", op), zap.Int64("client_id", clientID), zap.Error(err))
	}
}

func (s *CartService) fillCache(ctx context.Context, clientID, generation int64, contents *domain.CartContents) {
	err := s.cache.Set(ctx, clientID, generation, contents)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrStaleGeneration):
		s.log.Debug("cart changed during load, cache not filled", zap.Int64("client_id", clientID))
	default:
		s.log.Warn("cache set failed", zap.Int64("client_id", clientID), zap.Error(err))
	}
}

func (s *CartService) invalidateCache(clientID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, clientID); err != nil {
		s.log.Warn("cache invalidate failed", zap.Int64("client_id", clientID), zap.Error(err))
	}
}
