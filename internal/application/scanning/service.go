package scanning

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chafiq1992/order-scanner/internal/domain/scan"
	"github.com/chafiq1992/order-scanner/internal/domain/shared"
	"github.com/chafiq1992/order-scanner/internal/domain/tag"
	"github.com/chafiq1992/order-scanner/internal/domain/upstream"
	"github.com/chafiq1992/order-scanner/internal/infrastructure/config"
)

// ExportDispatcher hands a persisted scan to the best-effort export sink
// without blocking the caller.
type ExportDispatcher interface {
	Enqueue(values []string)
}

// ScanService orchestrates a scan submission end to end: barcode cleaning,
// duplicate windows, order resolution, persistence and export.
type ScanService struct {
	repo       scan.ScanRepository
	resolver   *Resolver
	guard      *DuplicateGuard
	dispatcher ExportDispatcher
	clock      shared.Clock
	logger     *zap.Logger

	maxDigits      int
	recentScanDays int
}

// ScanServiceOption is a functional option for configuring the service
type ScanServiceOption func(*ScanService)

// WithScanClock overrides the clock. Tests pin it.
func WithScanClock(clock shared.Clock) ScanServiceOption {
	return func(s *ScanService) {
		s.clock = clock
	}
}

// WithScanLogger sets the logger for the service
func WithScanLogger(logger *zap.Logger) ScanServiceOption {
	return func(s *ScanService) {
		s.logger = logger
	}
}

// NewScanService creates a new ScanService
func NewScanService(
	repo scan.ScanRepository,
	resolver *Resolver,
	dispatcher ExportDispatcher,
	cfg config.ScannerConfig,
	opts ...ScanServiceOption,
) *ScanService {
	s := &ScanService{
		repo:           repo,
		resolver:       resolver,
		dispatcher:     dispatcher,
		clock:          shared.SystemClock{},
		logger:         zap.NewNop(),
		maxDigits:      cfg.MaxDigits,
		recentScanDays: cfg.RecentScanDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.guard = NewDuplicateGuard(repo, s.clock, cfg.RecentScanDays, cfg.PhoneWindowDays)
	return s
}

// SubmitScan ingests one raw barcode. confirmDuplicate acknowledges a prior
// needs-confirmation outcome and lets the submission proceed through both
// dedup windows.
func (s *ScanService) SubmitScan(ctx context.Context, rawBarcode string, confirmDuplicate bool) (scan.ScanOutcome, error) {
	orderName, err := scan.CleanBarcode(rawBarcode, s.maxDigits)
	if err != nil {
		return scan.ScanOutcome{}, err
	}
	now := s.clock.Now()

	// Order-identity window first. A hit here skips the upstream calls
	// entirely.
	if !confirmDuplicate {
		existing, err := s.guard.CheckOrder(ctx, orderName)
		if err != nil {
			return scan.ScanOutcome{}, err
		}
		if existing != nil {
			return duplicateOutcome(existing, scan.ReasonOrderDuplicate, now), nil
		}
	}

	resolved, err := s.resolver.Resolve(ctx, orderName)
	if err != nil {
		return scan.ScanOutcome{}, err
	}

	if resolved.Code == upstream.ResultNotFound || !resolved.Found {
		return scan.ScanOutcome{
			Status:    scan.OutcomeRejected,
			Result:    resolved.Code.Label(),
			OrderName: orderName,
			Timestamp: now,
		}, nil
	}

	detectedTag := tag.DetectFirst(resolved.Tags)
	if resolved.Code == upstream.ResultUnfulfilled && strings.TrimSpace(resolved.Tags) == "" {
		return scan.ScanOutcome{
			Status:    scan.OutcomeRejected,
			Result:    scan.ResultUntaggedRefused,
			OrderName: orderName,
			Timestamp: now,
		}, nil
	}

	if !confirmDuplicate && resolved.Phone != "" {
		existing, err := s.guard.CheckPhone(ctx, resolved.Phone)
		if err != nil {
			return scan.ScanOutcome{}, err
		}
		if existing != nil {
			return duplicateOutcome(existing, scan.ReasonPhoneDuplicate, now), nil
		}
	}

	codAmount := decimal.Zero
	if resolved.CashOnDelivery {
		codAmount = resolved.TotalPrice
	}
	rec := &scan.ScanRecord{
		Timestamp:   now,
		OrderName:   orderName,
		Phone:       resolved.Phone,
		Tags:        resolved.Tags,
		Fulfillment: string(resolved.Fulfillment),
		Status:      scan.OrderStatus(resolved.Cancelled),
		Store:       resolved.StoreName,
		Result:      resolved.Code.Label(),
		CODAmount:   codAmount,
		COD:         resolved.CashOnDelivery,
	}

	outcome, err := s.persist(ctx, rec, detectedTag, confirmDuplicate)
	if err != nil {
		return scan.ScanOutcome{}, err
	}
	if outcome.Status == scan.OutcomeAccepted {
		s.export(rec)
	}
	return outcome, nil
}

// persist inserts the record and closes the dedup race: a uniqueness
// violation on the order name means another submission won between the
// guard check and the write, so re-read the winner and answer as the guard
// would have. A stale winner beyond the window, or a confirmed duplicate,
// overwrites the row in place instead.
func (s *ScanService) persist(ctx context.Context, rec *scan.ScanRecord, detectedTag string, confirmDuplicate bool) (scan.ScanOutcome, error) {
	err := s.repo.Create(ctx, rec)
	if err == nil {
		return acceptedOutcome(rec, detectedTag), nil
	}
	if !errors.Is(err, shared.ErrAlreadyExists) {
		return scan.ScanOutcome{}, err
	}

	existing, err := s.repo.FindByOrderName(ctx, rec.OrderName)
	if err != nil {
		return scan.ScanOutcome{}, err
	}

	windowStart := s.clock.Now().AddDate(0, 0, -s.recentScanDays)
	if !existing.Timestamp.Before(windowStart) && !confirmDuplicate {
		s.logger.Info("scan write lost the duplicate race",
			zap.String("order", rec.OrderName),
			zap.Uint("existing_id", existing.ID),
		)
		return duplicateOutcome(existing, scan.ReasonOrderDuplicate, s.clock.Now()), nil
	}

	if err := s.repo.Replace(ctx, rec); err != nil {
		return scan.ScanOutcome{}, err
	}
	return acceptedOutcome(rec, detectedTag), nil
}

// export queues the persisted record for the spreadsheet sink. Best-effort:
// the dispatcher drops on overflow and logs failures on its own.
func (s *ScanService) export(rec *scan.ScanRecord) {
	s.dispatcher.Enqueue([]string{
		rec.Timestamp.Format(time.RFC3339),
		rec.OrderName,
		rec.Tags,
		rec.Fulfillment,
		rec.Status,
		rec.Store,
		rec.Result,
		rec.Phone,
		rec.Driver,
		rec.CODAmount.StringFixed(2),
	})
}

func acceptedOutcome(rec *scan.ScanRecord, detectedTag string) scan.ScanOutcome {
	return scan.ScanOutcome{
		Status:    scan.OutcomeAccepted,
		Result:    rec.Result,
		OrderName: rec.OrderName,
		Tag:       detectedTag,
		RecordID:  rec.ID,
		Timestamp: rec.Timestamp,
	}
}

func duplicateOutcome(existing *scan.ScanRecord, reason scan.DuplicateReason, now time.Time) scan.ScanOutcome {
	return scan.ScanOutcome{
		Status:    scan.OutcomeNeedsConfirmation,
		Result:    scan.ResultAlreadyScanned,
		OrderName: existing.OrderName,
		Tag:       tag.DetectFirst(existing.Tags),
		Reason:    reason,
		RecordID:  existing.ID,
		Timestamp: now,
	}
}

// ListScans returns the scans of one day, newest first, optionally filtered
// by tag.
func (s *ScanService) ListScans(ctx context.Context, day time.Time, tagFilter string) ([]scan.ScanRecord, error) {
	return s.repo.FindByDay(ctx, day, tagFilter)
}

// ScanUpdate carries operator edits to an existing scan. Nil fields are
// left untouched.
type ScanUpdate struct {
	Driver *string
	Tags   *string
	Status *string
}

// UpdateScan applies operator edits to a scan by id
func (s *ScanService) UpdateScan(ctx context.Context, id uint, upd ScanUpdate) (*scan.ScanRecord, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Driver != nil {
		rec.Driver = *upd.Driver
	}
	if upd.Tags != nil {
		rec.Tags = *upd.Tags
	}
	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteScan removes a scan by id
func (s *ScanService) DeleteScan(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// CountFulfilled sums fulfilled upstream orders across all stores over the
// window, returning the total and the per-store breakdown.
func (s *ScanService) CountFulfilled(ctx context.Context, start, end time.Time) (int, map[string]int, error) {
	return s.resolver.CountFulfilled(ctx, start, end)
}
