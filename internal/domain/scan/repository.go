package scan

import (
	"context"
	"time"
)

// ScanRepository defines the persistence contract for scan records.
// Implementations must translate a uniqueness violation on OrderName into
// shared.ErrAlreadyExists so callers can run the conflict-and-reread path.
type ScanRepository interface {
	// FindByID finds a scan by its identifier.
	FindByID(ctx context.Context, id uint) (*ScanRecord, error)

	// FindByOrderName finds the scan recorded for an order name,
	// regardless of age.
	FindByOrderName(ctx context.Context, orderName string) (*ScanRecord, error)

	// FindRecentByOrderName finds the scan for an order name with
	// Timestamp >= since.
	FindRecentByOrderName(ctx context.Context, orderName string, since time.Time) (*ScanRecord, error)

	// FindRecentByPhone finds the most recent scan with the given
	// normalized phone and Timestamp >= since.
	FindRecentByPhone(ctx context.Context, phone string, since time.Time) (*ScanRecord, error)

	// FindByDay lists scans whose Timestamp falls on the given day,
	// newest first, optionally filtered by a tag substring.
	FindByDay(ctx context.Context, day time.Time, tagFilter string) ([]ScanRecord, error)

	// FindSince lists scans with Timestamp >= since, newest first.
	FindSince(ctx context.Context, since time.Time) ([]ScanRecord, error)

	// Create inserts a new scan. Returns shared.ErrAlreadyExists when a
	// row with the same OrderName already exists.
	Create(ctx context.Context, rec *ScanRecord) error

	// Update persists operator edits to an existing scan.
	Update(ctx context.Context, rec *ScanRecord) error

	// Replace overwrites the existing row for rec.OrderName with rec's
	// data, keeping the row identity. Used when a stale scan beyond the
	// dedup window is re-submitted.
	Replace(ctx context.Context, rec *ScanRecord) error

	// Delete removes a scan by id. Returns shared.ErrNotFound when no
	// such row exists.
	Delete(ctx context.Context, id uint) error
}
