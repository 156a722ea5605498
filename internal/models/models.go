// Package models defines the data structures used across the application.
// Report and User map to the PostgreSQL schema; the remaining types are
// derived views computed per request.
package models

import (
	"time"
)

// Severity levels a report may carry.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// Severities lists the known severity levels in ascending order.
var Severities = []string{SeverityMild, SeverityModerate, SeveritySevere}

// Report is a single self-reported illness event
type Report struct {
	ID             int64     `json:"id" db:"id"`
	UserID         *int64    `json:"user_id" db:"user_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	PrimarySymptom string    `json:"primary_symptom" db:"primary_symptom"`
	Symptoms       []string  `json:"symptoms" db:"symptoms"`
	Severity       string    `json:"severity" db:"severity"`
	Temperature    *float64  `json:"temperature" db:"temperature"`
	Notes          *string   `json:"notes" db:"notes"`
	Zipcode        string    `json:"zipcode" db:"zipcode"`
	State          string    `json:"state" db:"state"`
	Latitude       *float64  `json:"latitude" db:"latitude"`
	Longitude      *float64  `json:"longitude" db:"longitude"`
	HasLocation    bool      `json:"has_location" db:"has_location"`
}

// Located reports whether both coordinates are present.
func (r *Report) Located() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// ReportSubmission is the request body for filing a new report
type ReportSubmission struct {
	PrimarySymptom string   `json:"primary_symptom" validate:"required,symptom"`
	Symptoms       []string `json:"symptoms" validate:"required,min=1,dive,symptom"`
	Severity       string   `json:"severity" validate:"required,oneof=mild moderate severe"`
	Temperature    *float64 `json:"temperature" validate:"omitempty,gte=90,lte=110"`
	Notes          *string  `json:"notes" validate:"omitempty,max=1000"`
	Zipcode        string   `json:"zipcode" validate:"required,zipcode"`
	State          string   `json:"state" validate:"required,statecode"`
	Latitude       *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// ReportPatch is the request body for a partial report update.
// Nil fields are left untouched.
type ReportPatch struct {
	PrimarySymptom *string   `json:"primary_symptom" validate:"omitempty,symptom"`
	Symptoms       *[]string `json:"symptoms" validate:"omitempty,min=1,dive,symptom"`
	Severity       *string   `json:"severity" validate:"omitempty,oneof=mild moderate severe"`
	Temperature    *float64  `json:"temperature" validate:"omitempty,gte=90,lte=110"`
	Notes          *string   `json:"notes" validate:"omitempty,max=1000"`
	Zipcode        *string   `json:"zipcode" validate:"omitempty,zipcode"`
	State          *string   `json:"state" validate:"omitempty,statecode"`
	Latitude       *float64  `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64  `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// User is a registered account. The password hash never leaves the services layer.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Age       int       `json:"age" db:"age"`
	Zipcode   string    `json:"zipcode" db:"zipcode"`
	State     string    `json:"state" db:"state"`
	Country   string    `json:"country" db:"country"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Reports   []Report  `json:"reports,omitempty" db:"-"`
}

// Registration is the request body for POST /auth/register
type Registration struct {
	Username  string `json:"username" validate:"required,min=4,max=15"`
	Password  string `json:"password" validate:"required,min=7,password"`
	FirstName string `json:"first_name" validate:"required,min=2,max=20"`
	LastName  string `json:"last_name" validate:"required,min=2,max=20"`
	Age       *int   `json:"age" validate:"required,gte=0,lte=120"`
	Zipcode   string `json:"zipcode" validate:"required,zipcode"`
	State     string `json:"state" validate:"required,statecode"`
}

// Credentials is the request body for POST /auth/login
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserPatch is the request body for a partial user update
type UserPatch struct {
	Username  *string `json:"username" validate:"omitempty,min=4,max=15"`
	Password  *string `json:"password" validate:"omitempty,min=7,password"`
	FirstName *string `json:"first_name" validate:"omitempty,min=2,max=20"`
	LastName  *string `json:"last_name" validate:"omitempty,min=2,max=20"`
	Age       *int    `json:"age" validate:"omitempty,gte=0,lte=120"`
	Zipcode   *string `json:"zipcode" validate:"omitempty,zipcode"`
	State     *string `json:"state" validate:"omitempty,statecode"`
}

// AggregateSummary is the roll-up of a set of reports for charting
type AggregateSummary struct {
	Range               string         `json:"range"`
	TotalReports        int            `json:"totalReports"`
	AverageTemperature  float64        `json:"averageTemperature"`
	SymptomCounts       map[string]int `json:"symptomCounts"`
	CategoryCounts      map[string]int `json:"categoryCounts"`
	SeverityCounts      map[string]int `json:"severityCounts"`
	StateLocationCounts map[string]int `json:"stateLocationCounts"`
	ZipLocationCounts   map[string]int `json:"zipLocationCounts"`
	ReportsWithLocation int            `json:"reportsWithLocation"`
}

// WeeklyBucket is the summary of the reports filed in one Sunday-based week
type WeeklyBucket struct {
	WeekStart time.Time `json:"weekStart"`
	WeekLabel string    `json:"weekLabel"`
	*AggregateSummary
}

// ReportBundle is a report list with its overall and weekly roll-ups
type ReportBundle struct {
	Reports    []Report          `json:"reports"`
	Aggregated *AggregateSummary `json:"aggregated"`
	WeeklyData []WeeklyBucket    `json:"weeklyData"`
	TotalCount int               `json:"totalCount"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

// ReportPage is one page of a report listing
type ReportPage struct {
	Reports    []Report `json:"reports"`
	TotalCount int      `json:"totalCount"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
}

// FilteredReports is a page of filter results with the roll-up of that page.
// Aggregated is null when the page is empty.
type FilteredReports struct {
	ReportPage
	Aggregated *AggregateSummary `json:"aggregated"`
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime,omitempty"`
	Database string `json:"database,omitempty"`
	Cache    string `json:"cache,omitempty"`
}
