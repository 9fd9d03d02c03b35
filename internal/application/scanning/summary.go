package scanning

import (
	"context"
	"time"

	"github.com/chafiq1992/order-scanner/internal/domain/scan"
	"github.com/chafiq1992/order-scanner/internal/domain/tag"
)

// SummaryService aggregates per-tag scan counts for the dispatch board.
type SummaryService struct {
	repo scan.ScanRepository
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(repo scan.ScanRepository) *SummaryService {
	return &SummaryService{repo: repo}
}

// TagSummary counts the scans of one day per canonical tag. Records whose
// tag text yields no canonical tag are counted under the empty key.
func (s *SummaryService) TagSummary(ctx context.Context, day time.Time) (map[string]int, error) {
	recs, err := s.repo.FindByDay(ctx, day, "")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, rec := range recs {
		tags := tag.ExtractAll(rec.Tags)
		if len(tags) == 0 {
			counts[""]++
			continue
		}
		for _, t := range tags {
			counts[t]++
		}
	}
	return counts, nil
}

// TagSummaryByStore breaks the per-tag counts of one day down by the store
// each order resolved to.
func (s *SummaryService) TagSummaryByStore(ctx context.Context, day time.Time) (map[string]map[string]int, error) {
	recs, err := s.repo.FindByDay(ctx, day, "")
	if err != nil {
		return nil, err
	}

	byStore := make(map[string]map[string]int)
	for _, rec := range recs {
		counts, ok := byStore[rec.Store]
		if !ok {
			counts = make(map[string]int)
			byStore[rec.Store] = counts
		}
		tags := tag.ExtractAll(rec.Tags)
		if len(tags) == 0 {
			counts[""]++
			continue
		}
		for _, t := range tags {
			counts[t]++
		}
	}
	return byStore, nil
}
