package aggregate

import (
	"github.com/outbreak-atlas/atlas-server/internal/models"
)

// Summarize computes the roll-up of reports under the given scope label
// ("week", "month", "all", "8weeks", ...). It returns nil for an empty list
// so callers can tell "no data" apart from a summary of zeros.
//
// A missing temperature contributes 0 to the sum but still counts toward the
// denominator, so omitted readings pull the average down.
func Summarize(reports []models.Report, scope string) *models.AggregateSummary {
	if len(reports) == 0 {
		return nil
	}

	sum := &models.AggregateSummary{
		Range:               scope,
		TotalReports:        len(reports),
		SymptomCounts:       make(map[string]int),
		CategoryCounts:      make(map[string]int),
		SeverityCounts:      zeroSeverities(),
		StateLocationCounts: make(map[string]int),
		ZipLocationCounts:   make(map[string]int),
	}

	var totalTemperature float64
	for i := range reports {
		r := &reports[i]

		if r.Temperature != nil {
			totalTemperature += *r.Temperature
		}

		for _, s := range r.Symptoms {
			sum.SymptomCounts[s]++
		}
		for c, n := range categoryCounts(r.Symptoms) {
			sum.CategoryCounts[c] += n
		}

		if _, ok := sum.SeverityCounts[r.Severity]; ok {
			sum.SeverityCounts[r.Severity]++
		}

		if r.State != "" {
			sum.StateLocationCounts[r.State]++
		}
		if r.Zipcode != "" {
			sum.ZipLocationCounts[r.Zipcode]++
		}
		if r.Located() {
			sum.ReportsWithLocation++
		}
	}

	if sum.TotalReports > 0 {
		sum.AverageTemperature = totalTemperature / float64(sum.TotalReports)
	}
	return sum
}

func zeroSeverities() map[string]int {
	m := make(map[string]int, len(models.Severities))
	for _, s := range models.Severities {
		m[s] = 0
	}
	return m
}
