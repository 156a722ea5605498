package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/outbreak-atlas/atlas-server/internal/aggregate"
	"github.com/outbreak-atlas/atlas-server/internal/apperr"
	"github.com/outbreak-atlas/atlas-server/internal/models"
)

// Location scopes for trend and filter queries.
const (
	LocationNational = "nat"
	LocationState    = "state"
	LocationZipcode  = "zipcode"
)

// Filter paging limits.
const (
	DefaultFilterLimit = 100
	MaxFilterLimit     = 500
)

const reportColumns = `id, user_id, created_at, primary_symptom, symptoms, severity, temperature, notes,
	zipcode, state, latitude, longitude, has_location`

// orderClauses is the sort-key allowlist. %[1]s is the direction.
var orderClauses = map[string]string{
	"created_at":  "created_at %[1]s",
	"zipcode":     "zipcode %[1]s",
	"state":       "state %[1]s, zipcode %[1]s",
	"severity":    "CASE severity WHEN 'mild' THEN 1 WHEN 'moderate' THEN 2 WHEN 'severe' THEN 3 END %[1]s",
	"temperature": "temperature %[1]s",
}

// Location is a validated location scope.
type Location struct {
	Type  string
	Value string
}

// ParseLocation validates a location type and value. "national" is accepted
// as an alias of "nat"; state codes are upper-cased.
func ParseLocation(typ, value string) (Location, error) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	value = strings.TrimSpace(value)

	switch typ {
	case LocationNational, "national":
		return Location{Type: LocationNational}, nil
	case LocationState:
		if value == "" {
			return Location{}, apperr.BadRequest("locationValue is required for state or zipcode")
		}
		return Location{Type: LocationState, Value: strings.ToUpper(value)}, nil
	case LocationZipcode:
		if value == "" {
			return Location{}, apperr.BadRequest("locationValue is required for state or zipcode")
		}
		return Location{Type: LocationZipcode, Value: value}, nil
	default:
		return Location{}, apperr.BadRequest("locationType must be one of: nat, state, zipcode")
	}
}

// clause returns the SQL condition for l using placeholder $n, or "" for
// the national scope.
func (l Location) clause(n int) (string, []any) {
	switch l.Type {
	case LocationState:
		return fmt.Sprintf("state = $%d", n), []any{l.Value}
	case LocationZipcode:
		return fmt.Sprintf("zipcode = $%d", n), []any{l.Value}
	}
	return "", nil
}

// DateRange maps week, month or year to [start, now], start being local
// midnight one week, one month or one year before today.
func DateRange(name string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	y, m, d := local.Date()

	var start time.Time
	switch name {
	case "week":
		start = time.Date(y, m, d-7, 0, 0, 0, 0, loc)
	case "month":
		start = time.Date(y, m-1, d, 0, 0, 0, 0, loc)
	case "year":
		start = time.Date(y-1, m, d, 0, 0, 0, 0, loc)
	default:
		return time.Time{}, time.Time{}, apperr.BadRequest("range must be one of: week, month, year")
	}
	return start, now, nil
}

// FilterCriteria are the parameters of a historical report query.
type FilterCriteria struct {
	Range          string
	LocationType   string
	LocationValue  string
	Severity       string
	Symptom        string
	PrimarySymptom string
	MinTemp        *float64
	MaxTemp        *float64
	HasLocation    *bool
	Order          string
	Direction      string
	Limit          int
	Page           int
}

type filterQuery struct {
	where  string
	args   []any
	order  string
	limit  int
	offset int
	page   int
}

// pageOffset returns the row offset of page. Pages whose offset does not fit
// in an int are rejected.
func pageOffset(page, limit int) (int, error) {
	if page > math.MaxInt/limit {
		return 0, apperr.BadRequest("page out of range")
	}
	return (page - 1) * limit, nil
}

func (q *filterQuery) countSQL() string {
	return "SELECT COUNT(*) FROM reports WHERE " + q.where
}

func (q *filterQuery) selectSQL() (string, []any) {
	n := len(q.args)
	sql := fmt.Sprintf("SELECT %s FROM reports WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		reportColumns, q.where, q.order, n+1, n+2)
	args := append(append([]any{}, q.args...), q.limit, q.offset)
	return sql, args
}

func (q *filterQuery) totalPages(total int) int {
	return int(math.Ceil(float64(total) / float64(q.limit)))
}

// buildFilterQuery validates c and turns it into parameterized SQL. Every
// rejection happens here, before any query runs.
func buildFilterQuery(c FilterCriteria, now time.Time, loc *time.Location) (*filterQuery, error) {
	if c.Range == "" {
		return nil, apperr.BadRequest("range is required")
	}
	start, end, err := DateRange(c.Range, now, loc)
	if err != nil {
		return nil, err
	}
	if c.LocationType == "" {
		return nil, apperr.BadRequest("locationType is required")
	}
	location, err := ParseLocation(c.LocationType, c.LocationValue)
	if err != nil {
		return nil, err
	}

	order := c.Order
	if order == "" {
		order = "created_at"
	}
	orderTmpl, ok := orderClauses[order]
	if !ok {
		return nil, apperr.BadRequest("invalid order field: %s", order)
	}
	direction := "DESC"
	if strings.EqualFold(c.Direction, "asc") {
		direction = "ASC"
	}

	if c.Severity != "" && !lo.Contains(models.Severities, c.Severity) {
		return nil, apperr.BadRequest("severity must be one of: %s", strings.Join(models.Severities, ", "))
	}
	if c.Symptom != "" && !aggregate.IsSymptom(c.Symptom) {
		return nil, apperr.BadRequest("unknown symptom: %s", c.Symptom)
	}
	if c.PrimarySymptom != "" && !aggregate.IsSymptom(c.PrimarySymptom) {
		return nil, apperr.BadRequest("unknown primary_symptom: %s", c.PrimarySymptom)
	}

	var (
		conds []string
		args  []any
	)
	add := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	add("created_at >= $%d", start)
	add("created_at <= $%d", end)
	if cond, vals := location.clause(len(args) + 1); cond != "" {
		conds = append(conds, cond)
		args = append(args, vals...)
	}
	if c.Severity != "" {
		add("severity = $%d", c.Severity)
	}
	if c.Symptom != "" {
		add("symptoms @> ARRAY[$%d]::text[]", c.Symptom)
	}
	if c.PrimarySymptom != "" {
		add("primary_symptom = $%d", c.PrimarySymptom)
	}
	if c.MinTemp != nil {
		add("temperature >= $%d", *c.MinTemp)
	}
	if c.MaxTemp != nil {
		add("temperature <= $%d", *c.MaxTemp)
	}
	if c.HasLocation != nil {
		add("has_location = $%d", *c.HasLocation)
	}

	limit := c.Limit
	if limit <= 0 {
		limit = DefaultFilterLimit
	}
	if limit > MaxFilterLimit {
		limit = MaxFilterLimit
	}
	page := c.Page
	if page <= 0 {
		page = 1
	}
	offset, err := pageOffset(page, limit)
	if err != nil {
		return nil, err
	}

	return &filterQuery{
		where:  strings.Join(conds, " AND "),
		args:   args,
		order:  fmt.Sprintf(orderTmpl, direction) + ", id " + direction,
		limit:  limit,
		offset: offset,
		page:   page,
	}, nil
}

// assignment is one column of a partial update.
type assignment struct {
	column string
	value  any
}

// setClause renders assignments as "col = $1, col = $2" and returns the
// values in the same order. Placeholders start at $1.
func setClause(assignments []assignment) (string, []any) {
	cols := make([]string, len(assignments))
	vals := make([]any, len(assignments))
	for i, a := range assignments {
		cols[i] = fmt.Sprintf("%s = $%d", a.column, i+1)
		vals[i] = a.value
	}
	return strings.Join(cols, ", "), vals
}

func reportAssignments(p *models.ReportPatch) []assignment {
	var out []assignment
	if p.PrimarySymptom != nil {
		out = append(out, assignment{"primary_symptom", *p.PrimarySymptom})
	}
	if p.Symptoms != nil {
		out = append(out, assignment{"symptoms", *p.Symptoms})
	}
	if p.Severity != nil {
		out = append(out, assignment{"severity", *p.Severity})
	}
	if p.Temperature != nil {
		out = append(out, assignment{"temperature", *p.Temperature})
	}
	if p.Notes != nil {
		out = append(out, assignment{"notes", *p.Notes})
	}
	if p.Zipcode != nil {
		out = append(out, assignment{"zipcode", *p.Zipcode})
	}
	if p.State != nil {
		out = append(out, assignment{"state", *p.State})
	}
	if p.Latitude != nil {
		out = append(out, assignment{"latitude", *p.Latitude})
	}
	if p.Longitude != nil {
		out = append(out, assignment{"longitude", *p.Longitude})
	}
	return out
}
