// Package services contains business logic layers.
// Services are called by handlers and interact with the database.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/outbreak-atlas/atlas-server/internal/aggregate"
	"github.com/outbreak-atlas/atlas-server/internal/apperr"
	"github.com/outbreak-atlas/atlas-server/internal/models"
)

// Trending window and result cap.
const (
	TrendingWindow = 8 * 7 * 24 * time.Hour
	TrendingLimit  = 100
)

// Summary scopes of the bundle endpoints.
const (
	AllScope      = "all"
	TrendingScope = "8weeks"
)

const reportNotFound = "Report not found"

// ReportService handles report storage and the trend queries built on it
type ReportService struct {
	db     *pgxpool.Pool
	loc    *time.Location
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewReportService creates a new report service. Week boundaries and filter
// ranges are computed in loc.
func NewReportService(db *pgxpool.Pool, loc *time.Location, logger *zap.SugaredLogger) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{db: db, loc: loc, now: time.Now, logger: logger}
}

func collectReports(rows pgx.Rows) ([]models.Report, error) {
	reports, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Report])
	if err != nil {
		return nil, fmt.Errorf("scan reports: %w", err)
	}
	return reports, nil
}

func collectReport(rows pgx.Rows) (*models.Report, error) {
	r, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Report])
	if err != nil {
		return nil, apperr.FromStorage(err, reportNotFound, "")
	}
	return r, nil
}

// newBundle runs the aggregator and the weekly bucketer over reports.
func newBundle(reports []models.Report, scope string, loc *time.Location) *models.ReportBundle {
	if reports == nil {
		reports = []models.Report{}
	}
	return &models.ReportBundle{
		Reports:    reports,
		Aggregated: aggregate.Summarize(reports, scope),
		WeeklyData: aggregate.GroupByWeek(reports, loc),
		TotalCount: len(reports),
		Page:       1,
		TotalPages: 1,
	}
}

// newFilteredReports assembles one filter page. The summary covers the page,
// not every matching row, and is nil for an empty page.
func newFilteredReports(reports []models.Report, total int, q *filterQuery, rangeName string) *models.FilteredReports {
	if reports == nil {
		reports = []models.Report{}
	}
	return &models.FilteredReports{
		ReportPage: models.ReportPage{
			Reports:    reports,
			TotalCount: total,
			Page:       q.page,
			TotalPages: q.totalPages(total),
		},
		Aggregated: aggregate.Summarize(reports, rangeName),
	}
}

// Create stores a new report owned by userID
func (s *ReportService) Create(ctx context.Context, userID int64, sub *models.ReportSubmission) (*models.Report, error) {
	query := `
		INSERT INTO reports (user_id, primary_symptom, symptoms, severity, temperature, notes, zipcode, state, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + reportColumns

	rows, err := s.db.Query(ctx, query,
		userID, sub.PrimarySymptom, sub.Symptoms, sub.Severity,
		sub.Temperature, sub.Notes, sub.Zipcode, sub.State,
		sub.Latitude, sub.Longitude,
	)
	if err != nil {
		return nil, createError(fmt.Errorf("insert report: %w", err))
	}
	report, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Report])
	if err != nil {
		return nil, createError(err)
	}
	return report, nil
}

// createError maps an insert failure. A token can outlive its user, whose id
// then fails the owner foreign key.
func createError(err error) error {
	if apperr.Violates(err, apperr.ForeignKeyViolation) {
		return apperr.Unauthorized("User no longer exists")
	}
	return apperr.FromStorage(err, reportNotFound, "")
}

// Get returns one report
func (s *ReportService) Get(ctx context.Context, id int64) (*models.Report, error) {
	rows, err := s.db.Query(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get report %d: %w", id, err))
	}
	return collectReport(rows)
}

// Update applies a partial update and returns the updated report
func (s *ReportService) Update(ctx context.Context, id int64, patch *models.ReportPatch) (*models.Report, error) {
	set, args := setClause(reportAssignments(patch))
	if set == "" {
		return nil, apperr.BadRequest("no data")
	}
	query := fmt.Sprintf(`UPDATE reports SET %s WHERE id = $%d RETURNING %s`, set, len(args)+1, reportColumns)

	rows, err := s.db.Query(ctx, query, append(args, id)...)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("update report %d: %w", id, err))
	}
	return collectReport(rows)
}

// Delete removes a report and returns it as it was
func (s *ReportService) Delete(ctx context.Context, id int64) (*models.Report, error) {
	rows, err := s.db.Query(ctx, `DELETE FROM reports WHERE id = $1 RETURNING `+reportColumns, id)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("delete report %d: %w", id, err))
	}
	return collectReport(rows)
}

// All returns every report with its overall and weekly summaries
func (s *ReportService) All(ctx context.Context) (*models.ReportBundle, error) {
	rows, err := s.db.Query(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY id`)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list reports: %w", err))
	}
	reports, err := collectReports(rows)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return newBundle(reports, AllScope, s.loc), nil
}

func (s *ReportService) ensureUser(ctx context.Context, userID int64) error {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return apperr.Internal(fmt.Errorf("check user %d: %w", userID, err))
	}
	if !exists {
		return apperr.NotFound(fmt.Sprintf("no user found for id: %d", userID))
	}
	return nil
}

// ByUser returns all reports of a user, oldest first
func (s *ReportService) ByUser(ctx context.Context, userID int64) ([]models.Report, error) {
	rows, err := s.db.Query(ctx, `SELECT `+reportColumns+` FROM reports WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list reports of user %d: %w", userID, err))
	}
	reports, err := collectReports(rows)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return reports, nil
}

// UserAggregated returns a user's reports with overall and weekly summaries
func (s *ReportService) UserAggregated(ctx context.Context, userID int64) (*models.ReportBundle, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	reports, err := s.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newBundle(reports, AllScope, s.loc), nil
}

// ByUserPaginated returns one page of a user's reports, newest first
func (s *ReportService) ByUserPaginated(ctx context.Context, userID int64, page, limit int) (*models.ReportPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset, err := pageOffset(page, limit)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	var (
		total   int
		reports []models.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.db.QueryRow(gctx, `SELECT COUNT(*) FROM reports WHERE user_id = $1`, userID).Scan(&total)
		if err != nil {
			return fmt.Errorf("count reports of user %d: %w", userID, err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.db.Query(gctx,
			`SELECT `+reportColumns+` FROM reports WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			userID, limit, offset)
		if err != nil {
			return fmt.Errorf("page reports of user %d: %w", userID, err)
		}
		reports, err = collectReports(rows)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err)
	}

	return &models.ReportPage{
		Reports:    reports,
		TotalCount: total,
		Page:       page,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// Trending returns up to TrendingLimit most recent reports of the last eight
// weeks in location, with overall and weekly summaries.
func (s *ReportService) Trending(ctx context.Context, location Location) (*models.ReportBundle, error) {
	end := s.now()
	start := end.Add(-TrendingWindow)

	query := `SELECT ` + reportColumns + ` FROM reports WHERE created_at BETWEEN $1 AND $2`
	args := []any{start, end}
	if cond, vals := location.clause(3); cond != "" {
		query += " AND " + cond
		args = append(args, vals...)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", TrendingLimit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("trending reports: %w", err))
	}
	reports, err := collectReports(rows)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Debugw("Trending reports fetched", "location", location.Type, "value", location.Value, "count", len(reports))
	return newBundle(reports, TrendingScope, s.loc), nil
}

// Filter runs a historical query. The count and the page are fetched
// concurrently; the summary covers the returned page only.
func (s *ReportService) Filter(ctx context.Context, c FilterCriteria) (*models.FilteredReports, error) {
	q, err := buildFilterQuery(c, s.now(), s.loc)
	if err != nil {
		return nil, err
	}

	var (
		total   int
		reports []models.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.db.QueryRow(gctx, q.countSQL(), q.args...).Scan(&total); err != nil {
			return fmt.Errorf("count filtered reports: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sql, args := q.selectSQL()
		rows, err := s.db.Query(gctx, sql, args...)
		if err != nil {
			return fmt.Errorf("filter reports: %w", err)
		}
		reports, err = collectReports(rows)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err)
	}

	return newFilteredReports(reports, total, q, c.Range), nil
}
