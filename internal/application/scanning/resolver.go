// Package scanning orchestrates barcode scan submission: order resolution
// across stores, duplicate detection, persistence and export.
package scanning

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chafiq1992/order-scanner/internal/domain/shared"
	"github.com/chafiq1992/order-scanner/internal/domain/upstream"
	"github.com/chafiq1992/order-scanner/internal/infrastructure/config"
)

// Resolver finds the single best upstream order for a canonical order name
// by fanning out one lookup per configured store.
type Resolver struct {
	stores []upstream.StoreConfig
	client upstream.StoreClient
	cache  upstream.ResolutionCache
	clock  shared.Clock
	logger *zap.Logger

	cutoffDays    int
	retryAttempts int
	retryDelay    time.Duration
	cacheTTL      time.Duration
}

// ResolverOption is a functional option for configuring the resolver
type ResolverOption func(*Resolver)

// WithResolverClock overrides the clock. Tests pin it.
func WithResolverClock(clock shared.Clock) ResolverOption {
	return func(r *Resolver) {
		r.clock = clock
	}
}

// WithResolverLogger sets the logger for the resolver
func WithResolverLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver over the given store registry
func NewResolver(
	stores []upstream.StoreConfig,
	client upstream.StoreClient,
	cache upstream.ResolutionCache,
	scannerCfg config.ScannerConfig,
	cacheCfg config.CacheConfig,
	opts ...ResolverOption,
) *Resolver {
	r := &Resolver{
		stores:        stores,
		client:        client,
		cache:         cache,
		clock:         shared.SystemClock{},
		logger:        zap.NewNop(),
		cutoffDays:    scannerCfg.OrderCutoffDays,
		retryAttempts: scannerCfg.RetryAttempts,
		retryDelay:    scannerCfg.RetryDelay,
		cacheTTL:      cacheCfg.TTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// candidate pairs a found order with the index of the store that reported
// it, so ranking ties break on registry order.
type candidate struct {
	order      upstream.OrderLookupResult
	storeIndex int
}

// Resolve returns the best order for orderName across all stores. A cached
// non-expired resolution short-circuits the fan-out entirely. Store failures
// after retry exhaustion are skipped, never propagated: with every store
// failing the result is simply the not-found sentinel. The outcome, found or
// not, is cached before returning.
func (r *Resolver) Resolve(ctx context.Context, orderName string) (upstream.ResolvedOrder, error) {
	if cached, ok, err := r.cache.Get(ctx, orderName); err == nil && ok {
		return cached, nil
	} else if err != nil {
		r.logger.Warn("resolution cache read failed", zap.String("order", orderName), zap.Error(err))
	}

	results := make([]*upstream.OrderLookupResult, len(r.stores))
	var wg sync.WaitGroup
	for i, store := range r.stores {
		wg.Add(1)
		go func(i int, store upstream.StoreConfig) {
			defer wg.Done()
			order, err := r.lookupWithRetry(ctx, store, orderName)
			if err != nil {
				r.logger.Warn("store lookup failed after retries",
					zap.String("store", store.Name),
					zap.String("order", orderName),
					zap.Error(err),
				)
				return
			}
			if order.Found {
				results[i] = &order
			}
		}(i, store)
	}
	wg.Wait()

	var candidates []candidate
	for i, order := range results {
		if order != nil {
			candidates = append(candidates, candidate{order: *order, storeIndex: i})
		}
	}

	resolved := r.pickWinner(candidates)

	if err := r.cache.Set(ctx, orderName, resolved, r.cacheTTL); err != nil {
		r.logger.Warn("resolution cache write failed", zap.String("order", orderName), zap.Error(err))
	}
	return resolved, nil
}

// lookupWithRetry runs one per-store lookup with linear backoff, honoring
// context cancellation between attempts.
func (r *Resolver) lookupWithRetry(ctx context.Context, store upstream.StoreConfig, orderName string) (upstream.OrderLookupResult, error) {
	var lastErr error
	for attempt := 1; attempt <= r.retryAttempts; attempt++ {
		order, err := r.client.LookupOrder(ctx, store, orderName)
		if err == nil {
			return order, nil
		}
		lastErr = err

		if attempt == r.retryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return upstream.OrderLookupResult{}, ctx.Err()
		case <-time.After(r.retryDelay * time.Duration(attempt)):
		}
	}
	return upstream.OrderLookupResult{}, lastErr
}

// pickWinner ranks candidates newest first and skips those beyond the age
// cutoff. No survivor yields the not-found sentinel.
func (r *Resolver) pickWinner(candidates []candidate) upstream.ResolvedOrder {
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].order.CreatedAt.Equal(candidates[b].order.CreatedAt) {
			return candidates[a].storeIndex < candidates[b].storeIndex
		}
		return candidates[a].order.CreatedAt.After(candidates[b].order.CreatedAt)
	})

	cutoff := r.clock.Now().AddDate(0, 0, -r.cutoffDays)
	for _, c := range candidates {
		if c.order.CreatedAt.Before(cutoff) {
			continue
		}
		return upstream.ResolvedOrder{
			OrderLookupResult: c.order,
			Code:              upstream.DeriveCode(c.order),
		}
	}
	return upstream.NotFoundOrder()
}

// CountFulfilled sums the fulfilled order counts of every store over
// [start, end]. Per-store failures are skipped like in Resolve.
func (r *Resolver) CountFulfilled(ctx context.Context, start, end time.Time) (int, map[string]int, error) {
	counts := make([]int, len(r.stores))
	oks := make([]bool, len(r.stores))

	var wg sync.WaitGroup
	for i, store := range r.stores {
		wg.Add(1)
		go func(i int, store upstream.StoreConfig) {
			defer wg.Done()
			n, err := r.client.CountFulfilled(ctx, store, start, end)
			if err != nil {
				r.logger.Warn("store count failed",
					zap.String("store", store.Name),
					zap.Error(err),
				)
				return
			}
			counts[i] = n
			oks[i] = true
		}(i, store)
	}
	wg.Wait()

	total := 0
	perStore := make(map[string]int, len(r.stores))
	for i, store := range r.stores {
		if oks[i] {
			total += counts[i]
			perStore[store.Name] = counts[i]
		}
	}
	return total, perStore, nil
}
