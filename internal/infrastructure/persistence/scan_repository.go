package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/chafiq1992/order-scanner/internal/domain/scan"
	"github.com/chafiq1992/order-scanner/internal/domain/shared"
)

// GormScanRepository implements scan.ScanRepository using GORM
type GormScanRepository struct {
	db *gorm.DB
}

// NewGormScanRepository creates a new GormScanRepository
func NewGormScanRepository(db *gorm.DB) *GormScanRepository {
	return &GormScanRepository{db: db}
}

// FindByID finds a scan by its identifier
func (r *GormScanRepository) FindByID(ctx context.Context, id uint) (*scan.ScanRecord, error) {
	var rec scan.ScanRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByOrderName finds the scan recorded for an order name, regardless of age
func (r *GormScanRepository) FindByOrderName(ctx context.Context, orderName string) (*scan.ScanRecord, error) {
	var rec scan.ScanRecord
	if err := r.db.WithContext(ctx).
		Where("order_name = ?", orderName).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindRecentByOrderName finds the scan for an order name with Timestamp >= since
func (r *GormScanRepository) FindRecentByOrderName(ctx context.Context, orderName string, since time.Time) (*scan.ScanRecord, error) {
	var rec scan.ScanRecord
	if err := r.db.WithContext(ctx).
		Where("order_name = ? AND timestamp >= ?", orderName, since).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindRecentByPhone finds the most recent scan with the given phone and Timestamp >= since
func (r *GormScanRepository) FindRecentByPhone(ctx context.Context, phone string, since time.Time) (*scan.ScanRecord, error) {
	if phone == "" {
		return nil, shared.ErrNotFound
	}
	var rec scan.ScanRecord
	if err := r.db.WithContext(ctx).
		Where("phone = ? AND timestamp >= ?", phone, since).
		Order("timestamp DESC").
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByDay lists scans whose Timestamp falls on the given day, newest first,
// optionally filtered by a tag substring
func (r *GormScanRepository) FindByDay(ctx context.Context, day time.Time, tagFilter string) ([]scan.ScanRecord, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	q := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", start, end)
	if tagFilter != "" {
		q = q.Where("tags LIKE ?", "%"+tagFilter+"%")
	}

	var recs []scan.ScanRecord
	if err := q.Order("timestamp DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// FindSince lists scans with Timestamp >= since, newest first
func (r *GormScanRepository) FindSince(ctx context.Context, since time.Time) ([]scan.ScanRecord, error) {
	var recs []scan.ScanRecord
	if err := r.db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp DESC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// Create inserts a new scan, mapping a uniqueness violation on order_name to
// shared.ErrAlreadyExists
func (r *GormScanRepository) Create(ctx context.Context, rec *scan.ScanRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update persists operator edits to an existing scan
func (r *GormScanRepository) Update(ctx context.Context, rec *scan.ScanRecord) error {
	result := r.db.WithContext(ctx).Save(rec)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Replace overwrites the row holding rec.OrderName with rec's data, keeping
// the row identity. Used when a scan older than the dedup window is
// re-submitted and the old row must make way.
func (r *GormScanRepository) Replace(ctx context.Context, rec *scan.ScanRecord) error {
	existing, err := r.FindByOrderName(ctx, rec.OrderName)
	if err != nil {
		return err
	}
	rec.ID = existing.ID
	return r.db.WithContext(ctx).Save(rec).Error
}

// Delete removes a scan by id
func (r *GormScanRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&scan.ScanRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// isUniqueViolation recognizes duplicate-key errors from both the postgres
// driver and the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// Ensure GormScanRepository implements ScanRepository
var _ scan.ScanRepository = (*GormScanRepository)(nil)
