package scanning

import (
	"context"
	"errors"

	"github.com/chafiq1992/order-scanner/internal/domain/scan"
	"github.com/chafiq1992/order-scanner/internal/domain/shared"
)

// DuplicateGuard runs the two dedup window checks against persisted scans.
// The order-identity window is configurable; the phone window is fixed at
// three days regardless of it.
type DuplicateGuard struct {
	repo            scan.ScanRepository
	clock           shared.Clock
	recentScanDays  int
	phoneWindowDays int
}

// NewDuplicateGuard creates a duplicate guard over the scan repository
func NewDuplicateGuard(repo scan.ScanRepository, clock shared.Clock, recentScanDays, phoneWindowDays int) *DuplicateGuard {
	return &DuplicateGuard{
		repo:            repo,
		clock:           clock,
		recentScanDays:  recentScanDays,
		phoneWindowDays: phoneWindowDays,
	}
}

// CheckOrder returns the existing scan for orderName inside the
// order-identity window, or nil when there is none.
func (g *DuplicateGuard) CheckOrder(ctx context.Context, orderName string) (*scan.ScanRecord, error) {
	since := g.clock.Now().AddDate(0, 0, -g.recentScanDays)
	rec, err := g.repo.FindRecentByOrderName(ctx, orderName, since)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// CheckPhone returns the most recent scan with the same normalized phone
// inside the phone window, or nil when there is none. An empty phone never
// matches.
func (g *DuplicateGuard) CheckPhone(ctx context.Context, phone string) (*scan.ScanRecord, error) {
	if phone == "" {
		return nil, nil
	}
	since := g.clock.Now().AddDate(0, 0, -g.phoneWindowDays)
	rec, err := g.repo.FindRecentByPhone(ctx, phone, since)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}
