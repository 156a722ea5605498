package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/outbreak-atlas/atlas-server/internal/apperr"
	"github.com/outbreak-atlas/atlas-server/internal/fluview"
)

// Trend window of the flu trends endpoint.
const (
	TrendWeeks = 8
	TrendLabel = "bimonthly (8-week aggregate)"
)

// fluRangeWeeks is the number of most recent weeks per range.
var fluRangeWeeks = map[string]int{
	"week":  1,
	"month": 4,
	"year":  52,
}

// FeedFetcher retrieves raw FluView records for a region.
type FeedFetcher interface {
	Fetch(ctx context.Context, region string) ([]fluview.Record, error)
}

// FluData is the response of a flu data query. Totals is set for the month
// and year ranges when there is data.
type FluData struct {
	Range  string           `json:"range"`
	Totals *fluview.Summary `json:"totals,omitempty"`
	Weeks  []fluview.Week   `json:"weeks"`
}

// FluTrends is the recent-weeks trend of a region with its baseline.
type FluTrends struct {
	Aggregate *fluview.Summary `json:"aggregate"`
	Weeks     []fluview.Week   `json:"weeks"`
}

// FluService fetches, caches and normalizes the FluView feed
type FluService struct {
	feed   FeedFetcher
	cache  FluCache
	logger *zap.SugaredLogger
}

// NewFluService creates a flu service. cache may be nil.
func NewFluService(feed FeedFetcher, cache FluCache, logger *zap.SugaredLogger) *FluService {
	return &FluService{feed: feed, cache: cache, logger: logger}
}

func fluRegion(code string) (string, error) {
	r, ok := fluview.NormalizeRegion(code)
	if !ok {
		return "", apperr.BadRequest("Invalid state: %s", code)
	}
	return r, nil
}

// Data returns the most recent weeks of region for rangeName (week, month or
// year), most recent first.
func (s *FluService) Data(ctx context.Context, state, rangeName string) (*FluData, error) {
	r, err := fluRegion(state)
	if err != nil {
		return nil, err
	}
	rangeName = strings.ToLower(rangeName)
	n, ok := fluRangeWeeks[rangeName]
	if !ok {
		return nil, apperr.BadRequest("Invalid range: %s", rangeName)
	}

	weeks, err := s.recentWeeks(ctx, r, n)
	if err != nil {
		return nil, err
	}

	data := &FluData{Range: rangeName, Weeks: weeks}
	if rangeName != "week" {
		data.Totals = fluview.Aggregate(weeks, rangeName)
	}
	return data, nil
}

// Trends returns the TrendWeeks most recent weeks of region and their
// aggregate carrying the seasonal baseline.
func (s *FluService) Trends(ctx context.Context, state string) (*FluTrends, error) {
	r, err := fluRegion(state)
	if err != nil {
		return nil, err
	}

	weeks, err := s.recentWeeks(ctx, r, TrendWeeks)
	if err != nil {
		return nil, err
	}

	agg := fluview.Aggregate(weeks, TrendLabel)
	if agg != nil {
		if b, ok := fluview.BaselineFor(r); ok {
			agg.Baseline = &b
		}
	}
	return &FluTrends{Aggregate: agg, Weeks: weeks}, nil
}

// Refresh fetches region from the provider and stores it in the cache.
func (s *FluService) Refresh(ctx context.Context, region string) error {
	records, err := s.feed.Fetch(ctx, region)
	if err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, region, records)
}

func (s *FluService) recentWeeks(ctx context.Context, region string, n int) ([]fluview.Week, error) {
	records, err := s.records(ctx, region)
	if err != nil {
		return nil, err
	}
	weeks := fluview.NormalizeAll(records)
	if len(weeks) > n {
		weeks = weeks[:n]
	}
	return weeks, nil
}

// records reads through the cache. Cache failures are logged and bypassed.
func (s *FluService) records(ctx context.Context, region string) ([]fluview.Record, error) {
	if s.cache != nil {
		records, hit, err := s.cache.Get(ctx, region)
		switch {
		case err != nil:
			s.logger.Warnw("FluView cache read failed", "region", region, "error", err)
		case hit:
			return records, nil
		}
	}

	records, err := s.feed.Fetch(ctx, region)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("fetch fluview %s: %w", region, err))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, region, records); err != nil {
			s.logger.Warnw("FluView cache write failed", "region", region, "error", err)
		}
	}
	return records, nil
}
