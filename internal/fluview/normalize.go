// Package fluview fetches the Delphi FluView influenza-like-illness feed and
// reshapes it for charting next to self-reported data.
package fluview

import (
	"math"
	"sort"

	"github.com/samber/lo"
)

// Age group labels, in provider column order num_age_0..num_age_5.
const (
	Age0to4    = "0-4 years"
	Age5to24   = "5-24 years"
	Age25to49  = "25-49 years"
	Age50to64  = "50-64 years"
	Age65Plus  = "65+ years"
	AgeUnknown = "Unknown"
)

// AgeGroups lists the age group labels in provider column order.
var AgeGroups = []string{Age0to4, Age5to24, Age25to49, Age50to64, Age65Plus, AgeUnknown}

// Record is one weekly row of the Delphi fluview source as returned by the API.
type Record struct {
	ReleaseDate  string   `json:"release_date"`
	Region       string   `json:"region"`
	Issue        int      `json:"issue"`
	Epiweek      int      `json:"epiweek"`
	Lag          int      `json:"lag"`
	NumILI       *int     `json:"num_ili"`
	NumPatients  *int     `json:"num_patients"`
	NumProviders *int     `json:"num_providers"`
	WILI         *float64 `json:"wili"`
	ILI          *float64 `json:"ili"`
	NumAge0      *int     `json:"num_age_0"`
	NumAge1      *int     `json:"num_age_1"`
	NumAge2      *int     `json:"num_age_2"`
	NumAge3      *int     `json:"num_age_3"`
	NumAge4      *int     `json:"num_age_4"`
	NumAge5      *int     `json:"num_age_5"`
}

func (r *Record) ageColumns() []*int {
	return []*int{r.NumAge0, r.NumAge1, r.NumAge2, r.NumAge3, r.NumAge4, r.NumAge5}
}

// Week is a normalized FluView week.
type Week struct {
	Epiweek            int                `json:"epiweek"`
	EpiweekLabel       string             `json:"epiweek_label"`
	ReleaseDate        string             `json:"release_date"`
	Region             string             `json:"region"`
	TotalPatients      int                `json:"total_patients"`
	TotalILICases      int                `json:"total_ILI_cases"`
	RawILIPercent      float64            `json:"raw_ILI_percent"`
	WeightedILIPercent float64            `json:"weighted_ILI_percent"`
	ReportingProviders int                `json:"reporting_providers"`
	AgeBreakdown       map[string]Measure `json:"age_breakdown"`
	AgeProportions     map[string]Measure `json:"age_proportions"`
}

// Summary is the roll-up of several normalized weeks.
type Summary struct {
	Label              string             `json:"epiweek"`
	Region             string             `json:"region"`
	Weeks              int                `json:"weeks"`
	TotalPatients      int                `json:"total_patients"`
	TotalILICases      int                `json:"total_ILI_cases"`
	RawILIPercent      float64            `json:"raw_ILI_percent"`
	WeightedILIPercent float64            `json:"weighted_ILI_percent"`
	ReportingProviders int                `json:"reporting_providers"`
	AgeBreakdown       map[string]float64 `json:"age_breakdown"`
	Baseline           *float64           `json:"baseline,omitempty"`
}

// Normalize maps a provider record to a Week. Age proportions are percentages
// of total patients rounded to two decimals; they are absent when the group
// count is absent or there are no patients. An absent 25-49 proportion is
// dropped from the map instead of being kept as absent.
func Normalize(rec *Record) *Week {
	if rec == nil {
		return nil
	}

	w := &Week{
		Epiweek:            rec.Epiweek,
		EpiweekLabel:       EpiweekLabel(rec.Epiweek),
		ReleaseDate:        rec.ReleaseDate,
		Region:             rec.Region,
		TotalPatients:      lo.FromPtr(rec.NumPatients),
		TotalILICases:      lo.FromPtr(rec.NumILI),
		RawILIPercent:      lo.FromPtr(rec.ILI),
		WeightedILIPercent: lo.FromPtr(rec.WILI),
		ReportingProviders: lo.FromPtr(rec.NumProviders),
		AgeBreakdown:       make(map[string]Measure, len(AgeGroups)),
		AgeProportions:     make(map[string]Measure, len(AgeGroups)),
	}

	for i, n := range rec.ageColumns() {
		if n == nil {
			w.AgeBreakdown[AgeGroups[i]] = None()
			continue
		}
		w.AgeBreakdown[AgeGroups[i]] = Some(float64(*n))
	}

	for _, group := range AgeGroups {
		count := w.AgeBreakdown[group]
		if !count.Valid || w.TotalPatients <= 0 {
			w.AgeProportions[group] = None()
			continue
		}
		w.AgeProportions[group] = Some(round2(count.Value / float64(w.TotalPatients) * 100))
	}

	if !w.AgeProportions[Age25to49].Valid {
		delete(w.AgeProportions, Age25to49)
	}
	return w
}

// NormalizeAll normalizes records, most recent epiweek first.
func NormalizeAll(records []Record) []Week {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Epiweek > sorted[j].Epiweek })

	return lo.Map(sorted, func(r Record, _ int) Week { return *Normalize(&r) })
}

// Aggregate rolls weeks up under label. The weighted ILI percent is the
// patient-weighted mean of the weekly values; absent age counts add nothing.
// It returns nil when weeks is empty.
func Aggregate(weeks []Week, label string) *Summary {
	if len(weeks) == 0 {
		return nil
	}

	s := &Summary{
		Label:        label,
		Region:       weeks[0].Region,
		Weeks:        len(weeks),
		AgeBreakdown: make(map[string]float64, len(AgeGroups)),
	}

	var weighted float64
	for _, w := range weeks {
		s.TotalPatients += w.TotalPatients
		s.TotalILICases += w.TotalILICases
		s.ReportingProviders += w.ReportingProviders
		weighted += w.WeightedILIPercent * float64(w.TotalPatients)

		for group, count := range w.AgeBreakdown {
			s.AgeBreakdown[group] += count.Or(0)
		}
	}

	if s.TotalPatients > 0 {
		s.RawILIPercent = float64(s.TotalILICases) / float64(s.TotalPatients) * 100
		s.WeightedILIPercent = weighted / float64(s.TotalPatients)
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
