package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/chafiq1992/order-scanner/internal/domain/shared"
	"github.com/chafiq1992/order-scanner/internal/domain/upstream"
)

const defaultCleanupInterval = 30 * time.Second

// MemoryResolutionCache implements upstream.ResolutionCache with a
// process-wide in-memory map. Entries expire by TTL only; there is no size
// bound. Safe for concurrent use.
type MemoryResolutionCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   shared.Clock
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

type memoryEntry struct {
	value     upstream.ResolvedOrder
	expiresAt time.Time
}

// MemoryCacheOption is a functional option for configuring the cache
type MemoryCacheOption func(*MemoryResolutionCache)

// WithClock sets the clock used for expiry decisions. Tests inject a fake
// clock to control expiry deterministically.
func WithClock(clock shared.Clock) MemoryCacheOption {
	return func(c *MemoryResolutionCache) {
		c.clock = clock
	}
}

// WithMemoryLogger sets the logger for the cache
func WithMemoryLogger(logger *zap.Logger) MemoryCacheOption {
	return func(c *MemoryResolutionCache) {
		c.logger = logger
	}
}

// NewMemoryResolutionCache creates a new in-memory resolution cache and
// starts its background cleanup goroutine.
func NewMemoryResolutionCache(opts ...MemoryCacheOption) *MemoryResolutionCache {
	c := &MemoryResolutionCache{
		entries: make(map[string]memoryEntry),
		clock:   shared.SystemClock{},
		logger:  zap.NewNop(),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupLoop()

	return c
}

// Get returns the cached resolution for an order name, if not expired.
func (c *MemoryResolutionCache) Get(ctx context.Context, orderName string) (upstream.ResolvedOrder, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[orderName]
	c.mu.RUnlock()

	if ok && c.clock.Now().Before(e.expiresAt) {
		atomic.AddInt64(&c.hits, 1)
		c.logger.Debug("resolution cache hit", zap.String("order", orderName))
		return e.value, true, nil
	}
	if ok {
		c.mu.Lock()
		// re-check under the write lock, a concurrent Set may have
		// refreshed the entry since the read
		if e, still := c.entries[orderName]; still && !c.clock.Now().Before(e.expiresAt) {
			delete(c.entries, orderName)
		}
		c.mu.Unlock()
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("resolution cache miss", zap.String("order", orderName))
	return upstream.ResolvedOrder{}, false, nil
}

// Set stores a resolution under the order name with the given TTL.
func (c *MemoryResolutionCache) Set(ctx context.Context, orderName string, order upstream.ResolvedOrder, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	c.entries[orderName] = memoryEntry{
		value:     order,
		expiresAt: c.clock.Now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

// Stats returns hit/miss counters for monitoring
func (c *MemoryResolutionCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Len returns the number of entries currently held, expired or not.
func (c *MemoryResolutionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (c *MemoryResolutionCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *MemoryResolutionCache) cleanupLoop() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *MemoryResolutionCache) removeExpired() {
	now := c.clock.Now()
	var removed int

	c.mu.Lock()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.logger.Debug("cleaned up expired resolution cache entries", zap.Int("removed", removed))
	}
}

// Ensure MemoryResolutionCache implements ResolutionCache
var _ upstream.ResolutionCache = (*MemoryResolutionCache)(nil)
