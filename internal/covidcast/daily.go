// Package covidcast fetches the Delphi COVIDcast confirmed-case series and
// groups it into days and weeks for charting.
package covidcast

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/outbreak-atlas/atlas-server/internal/fluview"
)

// Nation is the region code of the nationwide series.
const Nation = "us"

const daysPerWeek = 7

// Record is one daily row of the COVIDcast API.
type Record struct {
	GeoValue   string   `json:"geo_value"`
	Signal     string   `json:"signal"`
	TimeValue  int      `json:"time_value"`
	Issue      int      `json:"issue"`
	Lag        int      `json:"lag"`
	Value      *float64 `json:"value"`
	Stderr     *float64 `json:"stderr"`
	SampleSize *float64 `json:"sample_size"`
	Direction  *int     `json:"direction"`
}

// Day is a normalized daily value. A missing value counts as zero.
type Day struct {
	Date      int     `json:"date"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Issue     int     `json:"issue"`
	Direction *int    `json:"direction"`
}

// Week is a run of up to seven consecutive days.
type Week struct {
	StartDate    int     `json:"start_date"`
	EndDate      int     `json:"end_date"`
	AverageValue float64 `json:"average_value"`
	Days         []Day   `json:"days"`
}

// Totals is the average over every returned day.
type Totals struct {
	Label        string  `json:"label"`
	AverageValue float64 `json:"average_value"`
}

// NormalizeRegion lower-cases a region code and reports whether it is "us"
// or one of the fifty states.
func NormalizeRegion(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	return code, code == Nation || fluview.IsState(code)
}

// FormatDate renders t as YYYYMMDD.
func FormatDate(t time.Time) string {
	return t.Format("20060102")
}

// ParseDate reads a YYYYMMDD date.
func ParseDate(date int) time.Time {
	return time.Date(date/10000, time.Month(date/100%100), date%100, 0, 0, 0, 0, time.UTC)
}

// DayLabel formats a YYYYMMDD date as "Day of Jan 2, 2006".
func DayLabel(date int) string {
	return "Day of " + ParseDate(date).Format("Jan 2, 2006")
}

// Normalize maps records to days, oldest first.
func Normalize(records []Record) []Day {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TimeValue < sorted[j].TimeValue })

	return lo.Map(sorted, func(r Record, _ int) Day {
		return Day{
			Date:      r.TimeValue,
			Label:     DayLabel(r.TimeValue),
			Value:     lo.FromPtr(r.Value),
			Issue:     r.Issue,
			Direction: r.Direction,
		}
	})
}

// ChunkWeeks splits days into consecutive runs of seven counted from the
// first day; the last run may be shorter.
func ChunkWeeks(days []Day) []Week {
	return lo.Map(lo.Chunk(days, daysPerWeek), func(chunk []Day, _ int) Week {
		return Week{
			StartDate:    chunk[0].Date,
			EndDate:      chunk[len(chunk)-1].Date,
			AverageValue: average(chunk),
			Days:         chunk,
		}
	})
}

// Summarize averages every day. It returns nil when days is empty.
func Summarize(days []Day) *Totals {
	if len(days) == 0 {
		return nil
	}
	return &Totals{
		Label:        fmt.Sprintf("Last %d days average", len(days)),
		AverageValue: average(days),
	}
}

func average(days []Day) float64 {
	return lo.SumBy(days, func(d Day) float64 { return d.Value }) / float64(len(days))
}
