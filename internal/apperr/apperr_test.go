package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{BadRequest("bad %s", "range"), http.StatusBadRequest},
		{Unauthorized("Authorization required"), http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{NotFound("Report not found"), http.StatusNotFound},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFound("User not found")), http.StatusNotFound},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Status(c.err), c.err.Error())
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "bad range", Message(BadRequest("bad %s", "range")))
	assert.Equal(t, "Internal server error", Message(Internal(errors.New("connection refused"))))
	assert.Equal(t, "Internal server error", Message(errors.New("secret detail")))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("get report: %w", NotFound("Report not found"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)

	cause := errors.New("dial tcp")
	assert.ErrorIs(t, Internal(cause), cause)
}

func TestFromStorage(t *testing.T) {
	assert.NoError(t, FromStorage(nil, "x", "y"))

	err := FromStorage(fmt.Errorf("scan: %w", pgx.ErrNoRows), "User not found", "")
	assert.Equal(t, http.StatusNotFound, Status(err))
	assert.Equal(t, "User not found", Message(err))

	err = FromStorage(&pgconn.PgError{Code: "23505"}, "", "duplicate username")
	assert.Equal(t, http.StatusBadRequest, Status(err))
	assert.Equal(t, "duplicate username", Message(err))

	err = FromStorage(errors.New("timeout"), "", "")
	assert.ErrorIs(t, err, ErrInternal)

	err = FromStorage(&pgconn.PgError{Code: "23505"}, "", "")
	assert.ErrorIs(t, err, ErrInternal)

	forbidden := Forbidden("no")
	assert.Same(t, forbidden, FromStorage(forbidden, "", "").(*Error))
}

func TestViolates(t *testing.T) {
	fk := fmt.Errorf("insert report: %w", &pgconn.PgError{Code: ForeignKeyViolation})
	assert.True(t, Violates(fk, ForeignKeyViolation))
	assert.False(t, Violates(fk, "23505"))
	assert.False(t, Violates(errors.New("timeout"), ForeignKeyViolation))
	assert.False(t, Violates(nil, ForeignKeyViolation))
}
