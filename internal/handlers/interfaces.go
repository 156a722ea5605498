package handlers

import (
	"context"

	"github.com/outbreak-atlas/atlas-server/internal/auth"
	"github.com/outbreak-atlas/atlas-server/internal/models"
	"github.com/outbreak-atlas/atlas-server/internal/services"
)

// ReportStore is the report side of the services layer.
type ReportStore interface {
	Create(ctx context.Context, userID int64, sub *models.ReportSubmission) (*models.Report, error)
	Get(ctx context.Context, id int64) (*models.Report, error)
	Update(ctx context.Context, id int64, patch *models.ReportPatch) (*models.Report, error)
	Delete(ctx context.Context, id int64) (*models.Report, error)
	All(ctx context.Context) (*models.ReportBundle, error)
	UserAggregated(ctx context.Context, userID int64) (*models.ReportBundle, error)
	ByUserPaginated(ctx context.Context, userID int64, page, limit int) (*models.ReportPage, error)
	Trending(ctx context.Context, location services.Location) (*models.ReportBundle, error)
	Filter(ctx context.Context, c services.FilterCriteria) (*models.FilteredReports, error)
}

// UserStore is the account side of the services layer.
type UserStore interface {
	Register(ctx context.Context, reg *models.Registration) (*models.User, error)
	Authenticate(ctx context.Context, creds *models.Credentials) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, id int64, patch *models.UserPatch) (*models.User, error)
	UpdateByUsername(ctx context.Context, username string, patch *models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id int64) (*models.User, error)
	DeleteByUsername(ctx context.Context, username string) (*models.User, error)
}

// FluProvider serves normalized FluView data.
type FluProvider interface {
	Data(ctx context.Context, state, rangeName string) (*services.FluData, error)
	Trends(ctx context.Context, state string) (*services.FluTrends, error)
}

// CovidProvider serves the normalized COVIDcast series.
type CovidProvider interface {
	Data(ctx context.Context, state, rangeName string) (*services.CovidData, error)
}

// TokenIssuer signs tokens for authenticated users.
type TokenIssuer interface {
	Issue(u *models.User) (string, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ ReportStore   = (*services.ReportService)(nil)
	_ UserStore     = (*services.UserService)(nil)
	_ FluProvider   = (*services.FluService)(nil)
	_ CovidProvider = (*services.CovidService)(nil)
	_ TokenIssuer   = (*auth.Issuer)(nil)
	_ Pinger        = (*services.RedisCache)(nil)
)
