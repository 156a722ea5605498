package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/outbreak-atlas/atlas-server/internal/apperr"
	"github.com/outbreak-atlas/atlas-server/internal/covidcast"
)

// covidRangeDays is the number of days, ending today, per range.
var covidRangeDays = map[string]int{
	"day":   1,
	"week":  7,
	"month": 30,
}

// CovidFetcher retrieves the daily COVIDcast series of a region.
type CovidFetcher interface {
	Fetch(ctx context.Context, region string, start, end time.Time) ([]covidcast.Record, error)
}

// CovidData is the response of a COVID query. MonthTotals is set for the
// month range when there is data.
type CovidData struct {
	Range       string            `json:"range"`
	Days        []covidcast.Day   `json:"days"`
	Weeks       []covidcast.Week  `json:"weeks"`
	MonthTotals *covidcast.Totals `json:"month_totals"`
}

// CovidService serves the COVIDcast confirmed-case series
type CovidService struct {
	feed   CovidFetcher
	loc    *time.Location
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewCovidService creates a COVID service. Date ranges end today in loc.
func NewCovidService(feed CovidFetcher, loc *time.Location, logger *zap.SugaredLogger) *CovidService {
	if loc == nil {
		loc = time.Local
	}
	return &CovidService{feed: feed, loc: loc, now: time.Now, logger: logger}
}

// Data returns the daily values of state for rangeName (day, week or month),
// oldest first, with seven-day chunks.
func (s *CovidService) Data(ctx context.Context, state, rangeName string) (*CovidData, error) {
	region, ok := covidcast.NormalizeRegion(state)
	if !ok {
		return nil, apperr.BadRequest("Invalid state: %s", state)
	}
	rangeName = strings.ToLower(rangeName)
	n, ok := covidRangeDays[rangeName]
	if !ok {
		return nil, apperr.BadRequest("Invalid range: %s", rangeName)
	}

	end := s.now().In(s.loc)
	start := end.AddDate(0, 0, -(n - 1))

	records, err := s.feed.Fetch(ctx, region, start, end)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("fetch covidcast %s: %w", region, err))
	}

	days := covidcast.Normalize(records)
	data := &CovidData{
		Range: rangeName,
		Days:  days,
		Weeks: covidcast.ChunkWeeks(days),
	}
	if rangeName == "month" {
		data.MonthTotals = covidcast.Summarize(days)
	}

	s.logger.Debugw("COVIDcast data fetched", "region", region, "range", rangeName, "days", len(days))
	return data, nil
}
