package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/outbreak-atlas/atlas-server/internal/auth"
)

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type ctxKey int

const (
	claimsKey ctxKey = iota
	tokenErrKey
)

// WithClaims returns ctx carrying the caller's claims.
func WithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFrom returns the authenticated caller, if any.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok && c != nil
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Authenticate verifies the bearer token when one is sent. A missing or
// invalid token leaves the request anonymous; RequireAuth decides whether
// that is acceptable.
func Authenticate(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			claims, err := parser.Parse(token)
			if err != nil {
				ctx = context.WithValue(ctx, tokenErrKey, err)
			} else {
				ctx = WithClaims(ctx, claims)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFrom(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		if r.Context().Value(tokenErrKey) != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		writeError(w, http.StatusUnauthorized, "Authorization required")
	})
}

// RequireAdmin rejects callers without the admin flag. It must run after
// RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := ClaimsFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authorization required")
			return
		}
		if !c.IsAdmin {
			writeError(w, http.StatusForbidden, "Admin access is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSelfOrAdmin allows admins and the user whose numeric id is in the
// URL parameter param.
func RequireSelfOrAdmin(param string) func(http.Handler) http.Handler {
	return requireOwner(func(c *auth.Claims, r *http.Request) bool {
		id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
		return err == nil && id == c.ID
	})
}

// RequireSelfOrAdminByUsername allows admins and the user whose username is
// in the URL parameter param.
func RequireSelfOrAdminByUsername(param string) func(http.Handler) http.Handler {
	return requireOwner(func(c *auth.Claims, r *http.Request) bool {
		return chi.URLParam(r, param) == c.Username
	})
}

func requireOwner(isSelf func(*auth.Claims, *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ClaimsFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authorization required")
				return
			}
			if !c.IsAdmin && !isSelf(c, r) {
				writeError(w, http.StatusForbidden, "User must be an admin or owning user")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
