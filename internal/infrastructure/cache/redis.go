package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chafiq1992/order-scanner/internal/domain/upstream"
	"github.com/chafiq1992/order-scanner/internal/infrastructure/config"
)

// RedisResolutionCache implements upstream.ResolutionCache on Redis. It is
// useful when several scanner instances should share one resolution cache.
type RedisResolutionCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisResolutionCache creates a Redis-backed resolution cache and
// verifies connectivity.
func NewRedisResolutionCache(cfg config.RedisConfig) (*RedisResolutionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisResolutionCache{
		client:    client,
		keyPrefix: "scanner:resolution:",
	}, nil
}

// NewRedisResolutionCacheWithClient creates a cache with an existing client.
// Useful for testing or when sharing a client across components.
func NewRedisResolutionCacheWithClient(client *redis.Client, keyPrefix string) *RedisResolutionCache {
	if keyPrefix == "" {
		keyPrefix = "scanner:resolution:"
	}
	return &RedisResolutionCache{client: client, keyPrefix: keyPrefix}
}

// Get returns the cached resolution for an order name, if present.
func (c *RedisResolutionCache) Get(ctx context.Context, orderName string) (upstream.ResolvedOrder, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+orderName).Bytes()
	if errors.Is(err, redis.Nil) {
		return upstream.ResolvedOrder{}, false, nil
	}
	if err != nil {
		return upstream.ResolvedOrder{}, false, fmt.Errorf("failed to read resolution cache: %w", err)
	}

	var order upstream.ResolvedOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return upstream.ResolvedOrder{}, false, fmt.Errorf("failed to decode cached resolution: %w", err)
	}
	return order, true, nil
}

// Set stores a resolution under the order name with the given TTL. Redis
// owns expiry, so no clock is needed here.
func (c *RedisResolutionCache) Set(ctx context.Context, orderName string, order upstream.ResolvedOrder, ttl time.Duration) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode resolution: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+orderName, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write resolution cache: %w", err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (c *RedisResolutionCache) Close() error {
	return c.client.Close()
}

// Ensure RedisResolutionCache implements ResolutionCache
var _ upstream.ResolutionCache = (*RedisResolutionCache)(nil)
