package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/outbreak-atlas/atlas-server/internal/apperr"
	"github.com/outbreak-atlas/atlas-server/internal/auth"
	"github.com/outbreak-atlas/atlas-server/internal/events"
	"github.com/outbreak-atlas/atlas-server/internal/middleware"
	"github.com/outbreak-atlas/atlas-server/internal/models"
	"github.com/outbreak-atlas/atlas-server/internal/services"
	"github.com/outbreak-atlas/atlas-server/internal/validate"
)

const publishTimeout = 5 * time.Second

// Paging defaults for per-user listings.
const (
	defaultUserPageLimit = 10
	maxUserPageLimit     = 100
)

// ReportHandler handles report submission, retrieval and aggregation
type ReportHandler struct {
	reports ReportStore
	events  events.Publisher
	logger  *zap.SugaredLogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports ReportStore, publisher events.Publisher, logger *zap.SugaredLogger) *ReportHandler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ReportHandler{reports: reports, events: publisher, logger: logger}
}

type deletedReport struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Create handles POST /reports. The report is owned by the caller.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondErr(w, r, h.logger, apperr.Unauthorized("Authorization required"))
		return
	}

	var req models.ReportSubmission
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	report, err := h.reports.Create(r.Context(), claims.ID, &req)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	h.publish(r.Context(), events.ReportCreated, report)
	respondJSON(w, http.StatusCreated, map[string]*models.Report{"report": report})
}

// Get handles GET /reports/{id}. Callers other than the owner or an admin
// do not see the owner id or the notes.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.load(r)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	claims, _ := middleware.ClaimsFrom(r.Context())
	if !canModify(claims, report) {
		report.UserID = nil
		report.Notes = nil
	}
	respondJSON(w, http.StatusOK, map[string]*models.Report{"report": report})
}

// Update handles PATCH /reports/{id}
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.loadOwned(r)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	var patch models.ReportPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	if err := validate.Struct(patch); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	report, err := h.reports.Update(r.Context(), existing.ID, &patch)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	h.publish(r.Context(), events.ReportUpdated, report)
	respondJSON(w, http.StatusOK, map[string]*models.Report{"report": report})
}

// Delete handles DELETE /reports/{id}
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.loadOwned(r)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	report, err := h.reports.Delete(r.Context(), existing.ID)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	h.publish(r.Context(), events.ReportDeleted, report)
	respondJSON(w, http.StatusOK, map[string]deletedReport{
		"deleted": {ID: report.ID, CreatedAt: report.CreatedAt},
	})
}

// All handles GET /reports/all (admin)
func (h *ReportHandler) All(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.reports.All(r.Context())
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, bundle)
}

// Trending handles GET /reports/trending?locationType=&locationValue=
func (h *ReportHandler) Trending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location, err := services.ParseLocation(q.Get("locationType"), q.Get("locationValue"))
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	bundle, err := h.reports.Trending(r.Context(), location)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, bundle)
}

// Filter handles GET /reports/filter
func (h *ReportHandler) Filter(w http.ResponseWriter, r *http.Request) {
	criteria, err := filterCriteria(r)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	result, err := h.reports.Filter(r.Context(), criteria)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ByUser handles GET /reports/user/{userId}
func (h *ReportHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := validate.ID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	q := r.URL.Query()
	page, err := validate.PositiveInt(q, "page", 1, 0)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	limit, err := validate.PositiveInt(q, "limit", defaultUserPageLimit, maxUserPageLimit)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	result, err := h.reports.ByUserPaginated(r.Context(), userID, page, limit)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// UserAggregated handles GET /reports/user/{userId}/aggregated
func (h *ReportHandler) UserAggregated(w http.ResponseWriter, r *http.Request) {
	userID, err := validate.ID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	bundle, err := h.reports.UserAggregated(r.Context(), userID)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, bundle)
}

func (h *ReportHandler) load(r *http.Request) (*models.Report, error) {
	id, err := validate.ID(chi.URLParam(r, "id"), "id")
	if err != nil {
		return nil, err
	}
	return h.reports.Get(r.Context(), id)
}

// loadOwned fetches the report in the URL and checks that the caller may
// change it.
func (h *ReportHandler) loadOwned(r *http.Request) (*models.Report, error) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return nil, apperr.Unauthorized("Authorization required")
	}
	report, err := h.load(r)
	if err != nil {
		return nil, err
	}
	if !canModify(claims, report) {
		return nil, apperr.Forbidden("User must be an admin or owning user")
	}
	return report, nil
}

func canModify(c *auth.Claims, report *models.Report) bool {
	if c == nil {
		return false
	}
	return c.IsAdmin || (report.UserID != nil && *report.UserID == c.ID)
}

// publish sends the event after the response data is committed. Failures are
// logged; the request has already succeeded.
func (h *ReportHandler) publish(ctx context.Context, typ string, report *models.Report) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := h.events.Publish(ctx, events.NewReportEvent(typ, report)); err != nil {
		h.logger.Warnw("Failed to publish report event",
			"type", typ,
			"report_id", report.ID,
			"error", err,
		)
	}
}

func filterCriteria(r *http.Request) (services.FilterCriteria, error) {
	q := r.URL.Query()
	c := services.FilterCriteria{
		Range:          q.Get("range"),
		LocationType:   q.Get("locationType"),
		LocationValue:  q.Get("locationValue"),
		Severity:       q.Get("severity"),
		Symptom:        q.Get("symptom"),
		PrimarySymptom: q.Get("primary_symptom"),
		Order:          q.Get("order"),
		Direction:      q.Get("direction"),
	}

	var err error
	if c.MinTemp, err = validate.Float(q, "min_temp"); err != nil {
		return c, err
	}
	if c.MaxTemp, err = validate.Float(q, "max_temp"); err != nil {
		return c, err
	}
	if c.HasLocation, err = validate.Bool(q, "has_location"); err != nil {
		return c, err
	}
	if c.Limit, err = validate.PositiveInt(q, "limit", services.DefaultFilterLimit, services.MaxFilterLimit); err != nil {
		return c, err
	}
	if c.Page, err = validate.PositiveInt(q, "page", 1, 0); err != nil {
		return c, err
	}
	return c, nil
}
