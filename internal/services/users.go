package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/outbreak-atlas/atlas-server/internal/apperr"
	"github.com/outbreak-atlas/atlas-server/internal/models"
)

const userColumns = `id, username, first_name, last_name, age, zipcode, state, country, is_admin, created_at`

const (
	userNotFound      = "User not found"
	duplicateUsername = "duplicate username"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// UserService handles accounts and credentials
type UserService struct {
	db     *pgxpool.Pool
	hasher PasswordHasher
	logger *zap.SugaredLogger
}

// NewUserService creates a new user service
func NewUserService(db *pgxpool.Pool, hasher PasswordHasher, logger *zap.SugaredLogger) *UserService {
	return &UserService{db: db, hasher: hasher, logger: logger}
}

func collectUser(rows pgx.Rows) (*models.User, error) {
	u, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.User])
	if err != nil {
		return nil, apperr.FromStorage(err, userNotFound, duplicateUsername)
	}
	return u, nil
}

// Register creates an account. Duplicate usernames are rejected.
func (s *UserService) Register(ctx context.Context, reg *models.Registration) (*models.User, error) {
	var taken bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, reg.Username).Scan(&taken); err != nil {
		return nil, apperr.Internal(fmt.Errorf("check username: %w", err))
	}
	if taken {
		return nil, apperr.BadRequest("%s: %s", duplicateUsername, reg.Username)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	query := `
		INSERT INTO users (username, password, first_name, last_name, age, zipcode, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	rows, err := s.db.Query(ctx, query,
		reg.Username, hash, reg.FirstName, reg.LastName, *reg.Age, reg.Zipcode, reg.State)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("insert user: %w", err))
	}
	u, err := collectUser(rows)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("User registered", "id", u.ID, "state", u.State)
	return u, nil
}

// Authenticate checks credentials. Unknown usernames and wrong passwords get
// the same error.
func (s *UserService) Authenticate(ctx context.Context, creds *models.Credentials) (*models.User, error) {
	invalid := apperr.Unauthorized("Invalid username/password")

	var (
		u    models.User
		hash string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, username, first_name, last_name, age, zipcode, state, country, is_admin, created_at, password
		 FROM users WHERE username = $1`, creds.Username).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Age, &u.Zipcode, &u.State, &u.Country, &u.IsAdmin, &u.CreatedAt, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, invalid
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load credentials: %w", err))
	}

	ok, err := s.hasher.Compare(hash, creds.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, invalid
	}
	return &u, nil
}

// List returns every user ordered by username
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list users: %w", err))
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("scan users: %w", err))
	}
	return users, nil
}

// Get returns a user with their reports. Both are fetched concurrently.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	var (
		user    *models.User
		reports []models.Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.db.Query(gctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
		if err != nil {
			return apperr.Internal(fmt.Errorf("get user %d: %w", id, err))
		}
		user, err = collectUser(rows)
		return err
	})
	g.Go(func() error {
		rows, err := s.db.Query(gctx, `SELECT `+reportColumns+` FROM reports WHERE user_id = $1 ORDER BY created_at`, id)
		if err != nil {
			return apperr.Internal(fmt.Errorf("list reports of user %d: %w", id, err))
		}
		reports, err = collectReports(rows)
		if err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	user.Reports = reports
	return user, nil
}

// GetByUsername returns a user with their reports
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get user %q: %w", username, err))
	}
	user, err := collectUser(rows)
	if err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `SELECT `+reportColumns+` FROM reports WHERE user_id = $1 ORDER BY created_at`, user.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list reports of user %d: %w", user.ID, err))
	}
	if user.Reports, err = collectReports(rows); err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// Update applies a partial update to the user with id
func (s *UserService) Update(ctx context.Context, id int64, patch *models.UserPatch) (*models.User, error) {
	return s.update(ctx, "id", id, patch)
}

// UpdateByUsername applies a partial update to the user named username
func (s *UserService) UpdateByUsername(ctx context.Context, username string, patch *models.UserPatch) (*models.User, error) {
	return s.update(ctx, "username", username, patch)
}

func (s *UserService) update(ctx context.Context, keyColumn string, key any, patch *models.UserPatch) (*models.User, error) {
	assignments, err := s.userAssignments(patch)
	if err != nil {
		return nil, err
	}
	set, args := setClause(assignments)
	if set == "" {
		return nil, apperr.BadRequest("no data")
	}

	query := fmt.Sprintf(`UPDATE users SET %s WHERE %s = $%d RETURNING %s`, set, keyColumn, len(args)+1, userColumns)
	rows, err := s.db.Query(ctx, query, append(args, key)...)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("update user %v: %w", key, err))
	}
	return collectUser(rows)
}

func (s *UserService) userAssignments(p *models.UserPatch) ([]assignment, error) {
	var out []assignment
	if p.Username != nil {
		out = append(out, assignment{"username", *p.Username})
	}
	if p.Password != nil {
		hash, err := s.hasher.Hash(*p.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, assignment{"password", hash})
	}
	if p.FirstName != nil {
		out = append(out, assignment{"first_name", *p.FirstName})
	}
	if p.LastName != nil {
		out = append(out, assignment{"last_name", *p.LastName})
	}
	if p.Age != nil {
		out = append(out, assignment{"age", *p.Age})
	}
	if p.Zipcode != nil {
		out = append(out, assignment{"zipcode", *p.Zipcode})
	}
	if p.State != nil {
		out = append(out, assignment{"state", *p.State})
	}
	return out, nil
}

// Delete removes the user with id and returns it as it was
func (s *UserService) Delete(ctx context.Context, id int64) (*models.User, error) {
	return s.delete(ctx, "id", id)
}

// DeleteByUsername removes the user named username
func (s *UserService) DeleteByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.delete(ctx, "username", username)
}

func (s *UserService) delete(ctx context.Context, keyColumn string, key any) (*models.User, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`DELETE FROM users WHERE %s = $1 RETURNING %s`, keyColumn, userColumns), key)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("delete user %v: %w", key, err))
	}
	u, err := collectUser(rows)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("User deleted", "id", u.ID)
	return u, nil
}
