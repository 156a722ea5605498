package aggregate

import (
	"sort"
	"time"

	"github.com/outbreak-atlas/atlas-server/internal/models"
)

// WeekStart returns midnight of the Sunday on or before t, in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, loc)
}

// WeekLabel formats a week start as "Week of Sep 1, 2025".
func WeekLabel(start time.Time) string {
	return "Week of " + start.Format("Jan 2, 2006")
}

// GroupByWeek partitions reports into Sunday-based calendar weeks of loc and
// summarizes each week with scope "week". Buckets are ordered by week start,
// oldest first.
func GroupByWeek(reports []models.Report, loc *time.Location) []models.WeeklyBucket {
	if len(reports) == 0 {
		return []models.WeeklyBucket{}
	}

	weeks := make(map[time.Time][]models.Report)
	for _, r := range reports {
		key := WeekStart(r.CreatedAt, loc)
		weeks[key] = append(weeks[key], r)
	}

	buckets := make([]models.WeeklyBucket, 0, len(weeks))
	for start, rs := range weeks {
		buckets = append(buckets, models.WeeklyBucket{
			WeekStart:        start,
			WeekLabel:        WeekLabel(start),
			AggregateSummary: Summarize(rs, "week"),
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].WeekStart.Before(buckets[j].WeekStart)
	})
	return buckets
}
