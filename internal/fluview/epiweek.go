package fluview

import "time"

// EpiweekDate returns the Monday of an epiweek given as YYYYWW.
func EpiweekDate(epiweek int) time.Time {
	year := epiweek / 100
	week := epiweek % 100

	approx := time.Date(year, time.January, 1+(week-1)*7, 0, 0, 0, 0, time.UTC)
	dow := int(approx.Weekday())
	shift := 8 - dow
	if dow <= 4 {
		shift = 1 - dow
	}
	return approx.AddDate(0, 0, shift)
}

// EpiweekLabel formats an epiweek as "Week of Jan 2, 2006".
func EpiweekLabel(epiweek int) string {
	return "Week of " + EpiweekDate(epiweek).Format("Jan 2, 2006")
}
