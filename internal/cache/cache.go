package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
)

// CartCache holds a client's active cart contents. Every cart mutation and
// checkout bumps the client's generation and drops the entry; a fill only
// lands if the generation it read before loading from the store is still
// current. The store stays authoritative.
type CartCache interface {
	Get(ctx context.Context, clientID int64) (*domain.CartContents, error)
	Generation(ctx context.Context, clientID int64) (int64, error)
	Set(ctx context.Context, clientID, generation int64, contents *domain.CartContents) error
	Delete(ctx context.Context, clientID int64) error
}

var (
	ErrCacheMiss       = errors.New("cache miss")
	ErrStaleGeneration = errors.New("cart changed since generation was read")
)
