package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chafiq1992/order-scanner/internal/domain/scan"
	"github.com/chafiq1992/order-scanner/internal/domain/shared"
)

func setupScanTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&scan.ScanRecord{})
	require.NoError(t, err)

	return db
}

func newScan(orderName, phone string, ts time.Time) *scan.ScanRecord {
	return &scan.ScanRecord{
		Timestamp:   ts,
		OrderName:   orderName,
		Phone:       phone,
		Tags:        "fast",
		Fulfillment: "fulfilled",
		Status:      "open",
		Store:       "irrakids",
		Result:      "✅ OK",
		CODAmount:   decimal.NewFromInt(100),
		COD:         true,
	}
}

func TestGormScanRepository_CreateAndFind(t *testing.T) {
	repo := NewGormScanRepository(setupScanTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	rec := newScan("#123", "212661234567", now)
	require.NoError(t, repo.Create(ctx, rec))
	assert.NotZero(t, rec.ID)

	byID, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "#123", byID.OrderName)
	assert.True(t, byID.CODAmount.Equal(decimal.NewFromInt(100)))

	byName, err := repo.FindByOrderName(ctx, "#123")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byName.ID)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormScanRepository_CreateDuplicateOrderName(t *testing.T) {
	repo := NewGormScanRepository(setupScanTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newScan("#123", "212661234567", now)))

	err := repo.Create(ctx, newScan("#123", "212600000000", now))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormScanRepository_FindRecentByOrderName(t *testing.T) {
	repo := NewGormScanRepository(setupScanTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Create(ctx, newScan("#123", "", now.AddDate(0, 0, -10))))

	// window starting after the scan excludes it
	_, err := repo.FindRecentByOrderName(ctx, "#123", now.AddDate(0, 0, -7))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// window reaching back far enough finds it
	found, err := repo.FindRecentByOrderName(ctx, "#123", now.AddDate(0, 0, -14))
	require.NoError(t, err)
	assert.Equal(t, "#123", found.OrderName)
}

func TestGormScanRepository_FindRecentByPhone(t *testing.T) {
	repo := NewGormScanRepository(setupScanTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Create(ctx, newScan("#1", "212661234567", now.Add(-48*time.Hour))))
	require.NoError(t, repo.Create(ctx, newScan("#2", "212661234567", now.Add(-2*time.Hour))))

	found, err := repo.FindRecentByPhone(ctx, "212661234567", now.Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "#2", found.OrderName, "most recent match wins")

	_, err = repo.FindRecentByPhone(ctx, "212661234567", now.Add(-time.Hour))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindRecentByPhone(ctx, "", now.Add(-72*time.Hour))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormScanRepository_FindByDay(t *testing.T) {
	repo := NewGormScanRepository(setupScanTestDB(t))
	ctx := context.Background()
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	early := newScan("#1", "", day.Add(9*time.Hour))
	late := newScan("#2", "", day.Add(17*time.Hour))
	late.Tags = "sand"
	other := newScan("#3", "", day.AddDate(0, 0, 1))
	require.NoError(t, repo.Create(ctx, early))
	require.NoError(t, repo.Create(ctx, late))
	require.NoError(t, repo.Create(ctx, other))

	recs, err := repo.FindByDay(ctx, day.Add(12*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "#2", recs[0].OrderName, "newest first")
	assert.Equal(t, "#1", recs[1].OrderName)

	filtered, err := repo.FindByDay(ctx, day, "sand")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "#2", filtered[0].OrderName)
}

func TestGormScanRepository_FindSince(t *testing.T) {
	repo := NewGormScanRepository(setupScanTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Create(ctx, newScan("#old", "", now.AddDate(0, 0, -30))))
	require.NoError(t, repo.Create(ctx, newScan("#new", "", now.Add(-time.Hour))))

	recs, err := repo.FindSince(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "#new", recs[0].OrderName)
}

func TestGormScanRepository_Update(t *testing.T) {
	repo := NewGormScanRepository(setupScanTestDB(t))
	ctx := context.Background()

	rec := newScan("#123", "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, rec))

	rec.Driver = "yassine"
	rec.Tags = "sand"
	require.NoError(t, repo.Update(ctx, rec))

	got, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "yassine", got.Driver)
	assert.Equal(t, "sand", got.Tags)
}

func TestGormScanRepository_Replace(t *testing.T) {
	repo := NewGormScanRepository(setupScanTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	stale := newScan("#123", "212661234567", now.AddDate(0, 0, -30))
	stale.Driver = "old-driver"
	require.NoError(t, repo.Create(ctx, stale))

	fresh := newScan("#123", "212600000000", now)
	require.NoError(t, repo.Replace(ctx, fresh))
	assert.Equal(t, stale.ID, fresh.ID, "row identity is kept")

	got, err := repo.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, "212600000000", got.Phone)
	assert.Empty(t, got.Driver)
	assert.WithinDuration(t, now, got.Timestamp, time.Second)
}

func TestGormScanRepository_Delete(t *testing.T) {
	repo := NewGormScanRepository(setupScanTestDB(t))
	ctx := context.Background()

	rec := newScan("#123", "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, rec))

	require.NoError(t, repo.Delete(ctx, rec.ID))

	_, err := repo.FindByID(ctx, rec.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), shared.ErrNotFound)
}
