package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/outbreak-atlas/atlas-server/internal/auth"
)

type fakeParser struct {
	ParseFunc func(token string) (*auth.Claims, error)
}

func (f *fakeParser) Parse(token string) (*auth.Claims, error) { return f.ParseFunc(token) }

var _ TokenParser = (*fakeParser)(nil)

func parser() *fakeParser {
	return &fakeParser{ParseFunc: func(token string) (*auth.Claims, error) {
		switch token {
		case "user-7":
			return &auth.Claims{ID: 7, Username: "alice"}, nil
		case "admin":
			return &auth.Claims{ID: 1, Username: "root", IsAdmin: true}, nil
		}
		return nil, errors.New("bad token")
	}}
}

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func do(t *testing.T, h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_PublicRoute(t *testing.T) {
	var seen *auth.Claims
	h := Authenticate(parser())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/", "").Code)
	assert.Nil(t, seen)

	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/", "garbage").Code)
	assert.Nil(t, seen)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "bearer user-7")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, int64(7), seen.ID)
}

func TestRequireAuth(t *testing.T) {
	h := Authenticate(parser())(RequireAuth(http.HandlerFunc(ok)))

	rec := do(t, h, "GET", "/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authorization required")

	rec = do(t, h, "GET", "/", "expired")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired token")

	assert.Equal(t, http.StatusNoContent, do(t, h, "GET", "/", "user-7").Code)
}

func TestRequireAdmin(t *testing.T) {
	h := Authenticate(parser())(RequireAuth(RequireAdmin(http.HandlerFunc(ok))))

	assert.Equal(t, http.StatusForbidden, do(t, h, "GET", "/", "user-7").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, "GET", "/", "admin").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, RequireAdmin(http.HandlerFunc(ok)), "GET", "/", "").Code)
}

func TestRequireSelfOrAdmin(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Authenticate(parser()))
	r.With(RequireAuth, RequireSelfOrAdmin("id")).Get("/users/{id}", ok)
	r.With(RequireAuth, RequireSelfOrAdminByUsername("username")).Get("/users/username/{username}", ok)

	assert.Equal(t, http.StatusNoContent, do(t, r, "GET", "/users/7", "user-7").Code)
	assert.Equal(t, http.StatusForbidden, do(t, r, "GET", "/users/8", "user-7").Code)
	assert.Equal(t, http.StatusForbidden, do(t, r, "GET", "/users/abc", "user-7").Code)
	assert.Equal(t, http.StatusNoContent, do(t, r, "GET", "/users/8", "admin").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, "GET", "/users/7", "").Code)

	assert.Equal(t, http.StatusNoContent, do(t, r, "GET", "/users/username/alice", "user-7").Code)
	assert.Equal(t, http.StatusForbidden, do(t, r, "GET", "/users/username/bob", "user-7").Code)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2)(http.HandlerFunc(ok))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusNoContent, do(t, h, "GET", "/", "").Code)
	}
	rec := do(t, h, "GET", "/", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Another client has its own window.
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.9:4000"
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	assert.Equal(t, http.StatusNoContent, other.Code)
}

func TestRateLimit_IgnoresForwardedHeaders(t *testing.T) {
	h := RateLimit(1)(http.HandlerFunc(ok))

	send := func(forwarded string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.5:4000"
		req.Header.Set("X-Forwarded-For", forwarded)
		req.Header.Set("X-Real-IP", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("2.2.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("3.3.3.3"))
}

func TestRateLimit_BehindTrustedProxy(t *testing.T) {
	h := chimw.RealIP(RateLimit(1)(http.HandlerFunc(ok)))

	send := func(client string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		req.Header.Set("X-Real-IP", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("203.0.113.7"))
	assert.Equal(t, http.StatusNoContent, send("203.0.113.8"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := do(t, SecurityHeaders()(http.HandlerFunc(ok)), "GET", "/", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestStructuredLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := StructuredLogger(zap.New(core))(http.HandlerFunc(ok))
	do(t, h, "DELETE", "/reports/3", "")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "DELETE", fields["method"])
	assert.Equal(t, "/reports/3", fields["path"])
	assert.EqualValues(t, http.StatusNoContent, fields["status"])
}
