package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chafiq1992/order-scanner/internal/domain/upstream"
)

// fakeClock is a manually advanced clock for deterministic expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func resolved(store string) upstream.ResolvedOrder {
	return upstream.ResolvedOrder{
		OrderLookupResult: upstream.OrderLookupResult{
			Found:       true,
			Tags:        "fast",
			Fulfillment: upstream.FulfillmentFulfilled,
			StoreName:   store,
		},
		Code: upstream.ResultOk,
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewMemoryResolutionCache(WithClock(clock))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "#123", resolved("main"), 5*time.Minute))

	got, ok, err := c.Get(ctx, "#123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main", got.StoreName)
	assert.Equal(t, upstream.ResultOk, got.Code)
}

func TestMemoryCache_MissOnUnknownKey(t *testing.T) {
	c := NewMemoryResolutionCache()
	defer c.Close()

	_, ok, err := c.Get(context.Background(), "#999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_ExpiryIsClockDriven(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewMemoryResolutionCache(WithClock(clock))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "#123", resolved("main"), 5*time.Minute))

	clock.Advance(4 * time.Minute)
	_, ok, err := c.Get(ctx, "#123")
	require.NoError(t, err)
	assert.True(t, ok, "entry must survive until the TTL elapses")

	clock.Advance(2 * time.Minute)
	_, ok, err = c.Get(ctx, "#123")
	require.NoError(t, err)
	assert.False(t, ok, "entry must expire after the TTL")
	assert.Zero(t, c.Len(), "expired entry is dropped on access")
}

func TestMemoryCache_NotFoundResultsAreCached(t *testing.T) {
	c := NewMemoryResolutionCache()
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "#404", upstream.NotFoundOrder(), time.Minute))

	got, ok, err := c.Get(ctx, "#404")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, upstream.ResultNotFound, got.Code)
}

func TestMemoryCache_ZeroTTLNotStored(t *testing.T) {
	c := NewMemoryResolutionCache()
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "#1", resolved("main"), 0))
	_, ok, _ := c.Get(ctx, "#1")
	assert.False(t, ok)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryResolutionCache()
	defer c.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, "#7", resolved("main"), time.Minute)
		}()
		go func() {
			defer wg.Done()
			_, _, _ = c.Get(ctx, "#7")
		}()
	}
	wg.Wait()

	_, ok, err := c.Get(ctx, "#7")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_RemoveExpired(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewMemoryResolutionCache(WithClock(clock))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "#1", resolved("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "#2", resolved("b"), time.Hour))

	clock.Advance(10 * time.Minute)
	c.removeExpired()

	assert.Equal(t, 1, c.Len())
}

// gateClock blocks the first Now call until released, so a test can slip a
// Set between a Get's expiry decision and its eviction.
type gateClock struct {
	calls   int32
	base    time.Time
	late    time.Time
	expired chan struct{}
	resume  chan struct{}
}

func (c *gateClock) Now() time.Time {
	if atomic.AddInt32(&c.calls, 1) == 1 {
		c.expired <- struct{}{}
		<-c.resume
		return c.late
	}
	return c.base
}

func TestMemoryCache_GetKeepsEntryRefreshedDuringEviction(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &gateClock{
		base:    base,
		late:    base.Add(10 * time.Minute),
		expired: make(chan struct{}),
		resume:  make(chan struct{}),
	}
	c := NewMemoryResolutionCache(WithClock(clock))
	defer c.Close()

	c.mu.Lock()
	c.entries["#1"] = memoryEntry{value: resolved("stale"), expiresAt: base.Add(time.Minute)}
	c.mu.Unlock()

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ok, err := c.Get(ctx, "#1")
		assert.NoError(t, err)
		assert.False(t, ok)
	}()

	// the reader has judged the entry expired but has not evicted it yet;
	// refresh the key before letting it continue
	<-clock.expired
	require.NoError(t, c.Set(ctx, "#1", resolved("fresh"), 5*time.Minute))
	close(clock.resume)
	<-done

	got, ok, err := c.Get(ctx, "#1")
	require.NoError(t, err)
	require.True(t, ok, "refreshed entry must survive the stale read's eviction")
	assert.Equal(t, "fresh", got.StoreName)
}
