package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, clientID int64) (*domain.CartContents, error) {
	data, err := r.client.Get(ctx, cacheKey(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var contents domain.CartContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &contents, nil
}

// Generation returns the client's invalidation counter, zero if the client
// has never been invalidated.
func (r *RedisCache) Generation(ctx context.Context, clientID int64) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(clientID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

// Set stores contents unless Delete ran after generation was read. The
// generation key is watched so a concurrent Delete aborts the write.
func (r *RedisCache) Set(ctx context.Context, clientID, generation int64, contents *domain.CartContents) error {
	data, err := json.Marshal(contents)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// jitter spreads expiry so a burst of writes does not expire together
	ttl := r.baseTTL + time.Duration(rand.Int63n(int64(r.baseTTL/3)+1))

	genKey := generationKey(clientID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return ErrStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(clientID), data, ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return ErrStaleGeneration
	default:
		return fmt.Errorf("redis set failed: %w", err)
	}
}

// Delete bumps the client's generation and drops the entry atomically.
func (r *RedisCache) Delete(ctx context.Context, clientID int64) error {
	genKey := generationKey(clientID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, r.generationTTL())
		pipe.Del(ctx, cacheKey(clientID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// generationTTL outlives any entry by a wide margin so a counter never
// expires and restarts while a fill that read it is still in flight.
func (r *RedisCache) generationTTL() time.Duration {
	return 4 * r.baseTTL
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func cacheKey(clientID int64) string {
	return fmt.Sprintf("cart:%d", clientID)
}

func generationKey(clientID int64) string {
	return fmt.Sprintf("cart:%d:gen", clientID)
}
