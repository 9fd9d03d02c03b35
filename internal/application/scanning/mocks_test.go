package scanning

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/chafiq1992/order-scanner/internal/domain/scan"
	"github.com/chafiq1992/order-scanner/internal/domain/shared"
	"github.com/chafiq1992/order-scanner/internal/domain/upstream"
)

// MockScanRepository is a mock implementation of scan.ScanRepository
type MockScanRepository struct {
	mock.Mock
}

func (m *MockScanRepository) FindByID(ctx context.Context, id uint) (*scan.ScanRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.ScanRecord), args.Error(1)
}

func (m *MockScanRepository) FindByOrderName(ctx context.Context, orderName string) (*scan.ScanRecord, error) {
	args := m.Called(ctx, orderName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.ScanRecord), args.Error(1)
}

func (m *MockScanRepository) FindRecentByOrderName(ctx context.Context, orderName string, since time.Time) (*scan.ScanRecord, error) {
	args := m.Called(ctx, orderName, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.ScanRecord), args.Error(1)
}

func (m *MockScanRepository) FindRecentByPhone(ctx context.Context, phone string, since time.Time) (*scan.ScanRecord, error) {
	args := m.Called(ctx, phone, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.ScanRecord), args.Error(1)
}

func (m *MockScanRepository) FindByDay(ctx context.Context, day time.Time, tagFilter string) ([]scan.ScanRecord, error) {
	args := m.Called(ctx, day, tagFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scan.ScanRecord), args.Error(1)
}

func (m *MockScanRepository) FindSince(ctx context.Context, since time.Time) ([]scan.ScanRecord, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scan.ScanRecord), args.Error(1)
}

func (m *MockScanRepository) Create(ctx context.Context, rec *scan.ScanRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockScanRepository) Update(ctx context.Context, rec *scan.ScanRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockScanRepository) Replace(ctx context.Context, rec *scan.ScanRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockScanRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockStoreClient is a mock implementation of upstream.StoreClient
type MockStoreClient struct {
	mock.Mock
}

func (m *MockStoreClient) LookupOrder(ctx context.Context, store upstream.StoreConfig, orderName string) (upstream.OrderLookupResult, error) {
	args := m.Called(ctx, store, orderName)
	return args.Get(0).(upstream.OrderLookupResult), args.Error(1)
}

func (m *MockStoreClient) CountFulfilled(ctx context.Context, store upstream.StoreConfig, start, end time.Time) (int, error) {
	args := m.Called(ctx, store, start, end)
	return args.Int(0), args.Error(1)
}

// stubCache is a minimal in-memory upstream.ResolutionCache without expiry
type stubCache struct {
	mu      sync.Mutex
	entries map[string]upstream.ResolvedOrder
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]upstream.ResolvedOrder)}
}

func (c *stubCache) Get(ctx context.Context, orderName string) (upstream.ResolvedOrder, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[orderName]
	return v, ok, nil
}

func (c *stubCache) Set(ctx context.Context, orderName string, order upstream.ResolvedOrder, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[orderName] = order
	return nil
}

// memoryScanRepository enforces order-name uniqueness under a mutex. It
// backs the tests that race concurrent submissions.
type memoryScanRepository struct {
	mu     sync.Mutex
	nextID uint
	byName map[string]*scan.ScanRecord
}

func newMemoryScanRepository() *memoryScanRepository {
	return &memoryScanRepository{nextID: 1, byName: make(map[string]*scan.ScanRecord)}
}

func (r *memoryScanRepository) FindByID(ctx context.Context, id uint) (*scan.ScanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.byName {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryScanRepository) FindByOrderName(ctx context.Context, orderName string) (*scan.ScanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byName[orderName]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *memoryScanRepository) FindRecentByOrderName(ctx context.Context, orderName string, since time.Time) (*scan.ScanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byName[orderName]
	if !ok || rec.Timestamp.Before(since) {
		return nil, shared.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *memoryScanRepository) FindRecentByPhone(ctx context.Context, phone string, since time.Time) (*scan.ScanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *scan.ScanRecord
	for _, rec := range r.byName {
		if rec.Phone != phone || rec.Timestamp.Before(since) {
			continue
		}
		if best == nil || rec.Timestamp.After(best.Timestamp) {
			best = rec
		}
	}
	if best == nil {
		return nil, shared.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *memoryScanRepository) FindByDay(ctx context.Context, day time.Time, tagFilter string) ([]scan.ScanRecord, error) {
	return nil, nil
}

func (r *memoryScanRepository) FindSince(ctx context.Context, since time.Time) ([]scan.ScanRecord, error) {
	return nil, nil
}

func (r *memoryScanRepository) Create(ctx context.Context, rec *scan.ScanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[rec.OrderName]; exists {
		return shared.ErrAlreadyExists
	}
	rec.ID = r.nextID
	r.nextID++
	cp := *rec
	r.byName[rec.OrderName] = &cp
	return nil
}

func (r *memoryScanRepository) Update(ctx context.Context, rec *scan.ScanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byName[rec.OrderName]
	if !ok || existing.ID != rec.ID {
		return shared.ErrNotFound
	}
	cp := *rec
	r.byName[rec.OrderName] = &cp
	return nil
}

func (r *memoryScanRepository) Replace(ctx context.Context, rec *scan.ScanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byName[rec.OrderName]
	if !ok {
		return shared.ErrNotFound
	}
	rec.ID = existing.ID
	cp := *rec
	r.byName[rec.OrderName] = &cp
	return nil
}

func (r *memoryScanRepository) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, rec := range r.byName {
		if rec.ID == id {
			delete(r.byName, name)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *memoryScanRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byName)
}

// nopDispatcher satisfies ExportDispatcher for tests that do not care about
// export.
type nopDispatcher struct{}

func (nopDispatcher) Enqueue(values []string) {}

// recordingDispatcher captures exported rows
type recordingDispatcher struct {
	mu   sync.Mutex
	rows [][]string
}

func (d *recordingDispatcher) Enqueue(values []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = append(d.rows, values)
}

func (d *recordingDispatcher) Rows() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]string, len(d.rows))
	copy(out, d.rows)
	return out
}
