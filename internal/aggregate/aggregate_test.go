package aggregate

import (
	"testing"
	"time"

	"github.com/outbreak-atlas/atlas-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func temp(v float64) *float64 { return &v }

func TestCategory(t *testing.T) {
	assert.Equal(t, "Respiratory", Category("cough"))
	assert.Equal(t, "Gastrointestinal", Category("nausea"))
	assert.Equal(t, "Dermal", Category("rash"))
	assert.Equal(t, "Neurological", Category("headache"))
	assert.Equal(t, "General", Category("bodyache"))
	assert.Equal(t, CategoryOther, Category("hiccups"))
	assert.Equal(t, CategoryOther, Category(""))
}

func TestSymptomsMatchTaxonomy(t *testing.T) {
	for _, s := range Symptoms() {
		assert.True(t, IsSymptom(s), s)
		assert.NotEqual(t, CategoryOther, Category(s), s)
	}
	assert.Len(t, Symptoms(), len(symptomCategories))
	assert.ElementsMatch(t,
		[]string{"Respiratory", "Gastrointestinal", "Dermal", "General", "Neurological"},
		Categories())
}

func TestSummarize_EmptyIsNil(t *testing.T) {
	assert.Nil(t, Summarize(nil, "all"))
	assert.Nil(t, Summarize([]models.Report{}, "week"))
}

func TestSummarize_Scenario(t *testing.T) {
	reports := []models.Report{
		{Symptoms: []string{"cough", "fever"}, Severity: "mild", State: "CA", Temperature: temp(99.1)},
		{Symptoms: []string{"nausea"}, Severity: "severe", State: "CA"},
	}

	got := Summarize(reports, "all")
	require.NotNil(t, got)

	assert.Equal(t, "all", got.Range)
	assert.Equal(t, 2, got.TotalReports)
	assert.Equal(t, map[string]int{"cough": 1, "fever": 1, "nausea": 1}, got.SymptomCounts)
	assert.Equal(t, map[string]int{"Respiratory": 1, "General": 1, "Gastrointestinal": 1}, got.CategoryCounts)
	assert.Equal(t, map[string]int{"mild": 1, "moderate": 0, "severe": 1}, got.SeverityCounts)
	assert.Equal(t, map[string]int{"CA": 2}, got.StateLocationCounts)
	assert.Empty(t, got.ZipLocationCounts)
	assert.Equal(t, 0, got.ReportsWithLocation)
	// missing temperature counts as zero
	assert.InDelta(t, 49.55, got.AverageTemperature, 1e-9)
}

func TestSummarize_MultipleCategoriesFromOneReport(t *testing.T) {
	got := Summarize([]models.Report{
		{Symptoms: []string{"cough", "sneezing", "rash", "hiccups"}},
	}, "week")
	require.NotNil(t, got)

	total := 0
	for _, n := range got.CategoryCounts {
		total += n
	}
	assert.Equal(t, 4, total)
	assert.Equal(t, 2, got.CategoryCounts["Respiratory"])
	assert.Equal(t, 1, got.CategoryCounts["Dermal"])
	assert.Equal(t, 1, got.CategoryCounts[CategoryOther])
}

func TestSummarize_UnknownSeverityIgnored(t *testing.T) {
	got := Summarize([]models.Report{{Severity: "critical"}, {Severity: "moderate"}}, "all")
	require.NotNil(t, got)
	assert.Equal(t, map[string]int{"mild": 0, "moderate": 1, "severe": 0}, got.SeverityCounts)
	assert.Equal(t, 2, got.TotalReports)
}

func TestSummarize_LocationCounts(t *testing.T) {
	lat, lng := 37.77, -122.41
	zero := 0.0
	got := Summarize([]models.Report{
		{Zipcode: "94103", State: "CA", Latitude: &lat, Longitude: &lng},
		{Zipcode: "94103", State: "CA", Latitude: &lat},
		{Zipcode: "10001", State: "NY", Latitude: &zero, Longitude: &zero},
	}, "all")
	require.NotNil(t, got)

	assert.Equal(t, map[string]int{"94103": 2, "10001": 1}, got.ZipLocationCounts)
	assert.Equal(t, map[string]int{"CA": 2, "NY": 1}, got.StateLocationCounts)
	assert.Equal(t, 2, got.ReportsWithLocation)
}

func TestSummarize_OrderIndependent(t *testing.T) {
	a := models.Report{Symptoms: []string{"fever"}, Severity: "mild", State: "TX", Temperature: temp(101)}
	b := models.Report{Symptoms: []string{"rash", "chills"}, Severity: "severe", State: "OK", Temperature: temp(98.6)}
	c := models.Report{Symptoms: []string{"headache"}, Severity: "moderate", State: "TX"}

	assert.Equal(t,
		Summarize([]models.Report{a, b, c}, "all"),
		Summarize([]models.Report{c, a, b}, "all"))
}

func TestWeekStart(t *testing.T) {
	// 2025-09-03 is a Wednesday
	wed := time.Date(2025, 9, 3, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), WeekStart(wed, time.UTC))

	sunday := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, sunday, WeekStart(sunday, time.UTC))

	saturdayNight := time.Date(2025, 9, 6, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, sunday, WeekStart(saturdayNight, time.UTC))
}

func TestWeekStart_UsesLocation(t *testing.T) {
	ny := time.FixedZone("EDT", -4*60*60)

	// Sunday 02:00 UTC is still Saturday evening in New York
	ts := time.Date(2025, 9, 7, 2, 0, 0, 0, time.UTC)
	got := WeekStart(ts, ny)
	assert.Equal(t, time.Date(2025, 8, 31, 0, 0, 0, 0, ny), got)
	assert.Equal(t, time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC), WeekStart(ts, time.UTC))
}

func TestWeekLabel(t *testing.T) {
	assert.Equal(t, "Week of Sep 1, 2024", WeekLabel(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Week of Dec 28, 2025", WeekLabel(time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC)))
}

func at(y int, m time.Month, d, h int) models.Report {
	return models.Report{
		CreatedAt: time.Date(y, m, d, h, 0, 0, 0, time.UTC),
		Symptoms:  []string{"cough"},
		Severity:  "mild",
		State:     "WA",
	}
}

func TestGroupByWeek_SameWeek(t *testing.T) {
	// Sunday morning and Saturday night of the same week
	buckets := GroupByWeek([]models.Report{at(2025, 9, 7, 1), at(2025, 9, 13, 23)}, time.UTC)
	require.Len(t, buckets, 1)
	assert.Equal(t, "Week of Sep 7, 2025", buckets[0].WeekLabel)
	assert.Equal(t, 2, buckets[0].TotalReports)
	assert.Equal(t, "week", buckets[0].Range)
}

func TestGroupByWeek_EightDaysApart(t *testing.T) {
	for d := 7; d <= 13; d++ {
		buckets := GroupByWeek([]models.Report{at(2025, 9, d, 12), at(2025, 9, d+8, 12)}, time.UTC)
		assert.Len(t, buckets, 2, "day %d", d)
	}
}

func TestGroupByWeek_SevenDaysApartCrossesSundayBoundary(t *testing.T) {
	// Saturday to the next Saturday crosses exactly one Sunday
	buckets := GroupByWeek([]models.Report{at(2025, 9, 6, 12), at(2025, 9, 13, 12)}, time.UTC)
	assert.Len(t, buckets, 2)

	buckets = GroupByWeek([]models.Report{at(2025, 9, 7, 0), at(2025, 9, 14, 0)}, time.UTC)
	assert.Len(t, buckets, 2)
}

func TestGroupByWeek_SortedAndTotalsAddUp(t *testing.T) {
	reports := []models.Report{
		at(2025, 9, 20, 8),
		at(2025, 9, 2, 8),
		at(2025, 9, 10, 8),
		at(2025, 9, 3, 8),
		at(2025, 9, 21, 8),
	}

	buckets := GroupByWeek(reports, time.UTC)
	require.Len(t, buckets, 4)

	total := 0
	for i, b := range buckets {
		total += b.TotalReports
		if i > 0 {
			assert.True(t, buckets[i-1].WeekStart.Before(b.WeekStart))
		}
	}
	assert.Equal(t, Summarize(reports, "all").TotalReports, total)
	assert.Equal(t, time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), buckets[0].WeekStart)
	assert.Equal(t, 2, buckets[0].TotalReports)
}

func TestGroupByWeek_Empty(t *testing.T) {
	assert.Empty(t, GroupByWeek(nil, time.UTC))
}
