// Package aggregate rolls self-reported illness records up into chart-ready
// summaries: per-symptom, per-category, per-severity and per-location counts,
// overall and per calendar week.
package aggregate

import "github.com/samber/lo"

// CategoryOther is the category of any symptom missing from the taxonomy.
const CategoryOther = "Other"

var symptomCategories = map[string]string{
	"cough":      "Respiratory",
	"congestion": "Respiratory",
	"sneezing":   "Respiratory",
	"nausea":     "Gastrointestinal",
	"vomiting":   "Gastrointestinal",
	"diarrhea":   "Gastrointestinal",
	"rash":       "Dermal",
	"fever":      "General",
	"fatigue":    "General",
	"chills":     "General",
	"bodyache":   "General",
	"headache":   "Neurological",
}

// Category returns the illness category of a symptom, or CategoryOther.
func Category(symptom string) string {
	if c, ok := symptomCategories[symptom]; ok {
		return c
	}
	return CategoryOther
}

// IsSymptom reports whether s belongs to the fixed symptom enumeration.
func IsSymptom(s string) bool {
	_, ok := symptomCategories[s]
	return ok
}

// Symptoms returns the symptom enumeration in a stable order.
func Symptoms() []string {
	return []string{
		"cough", "congestion", "sneezing",
		"nausea", "vomiting", "diarrhea",
		"rash",
		"fever", "fatigue", "headache", "chills", "bodyache",
	}
}

// Categories returns the distinct categories, Other excluded.
func Categories() []string {
	return lo.Uniq(lo.Map(Symptoms(), func(s string, _ int) string { return Category(s) }))
}

// categoryCounts tallies the categories of one report's symptoms.
func categoryCounts(symptoms []string) map[string]int {
	return lo.CountValuesBy(symptoms, Category)
}
