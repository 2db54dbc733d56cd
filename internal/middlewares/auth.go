package middlewares

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/jwt"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
)

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=middlewares

// Tokener defines the minimal interface needed by the middleware
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

type principalKey struct{}

type principal struct {
	userID uuid.UUID
	role   string
}

// WithPrincipal stores the authenticated user in ctx.
func WithPrincipal(ctx context.Context, userID uuid.UUID, role string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal{userID: userID, role: role})
}

// UserIDFromContext returns the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := ctx.Value(principalKey{}).(principal)
	return p.userID, ok
}

// RoleFromContext returns the authenticated user's role, empty when unauthenticated.
func RoleFromContext(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(principal)
	return p.role
}

// AuthMiddleware returns a middleware that validates the bearer token and
// stores its user and role in the request context.
func AuthMiddleware(tokener Tokener) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				logger.Log.Errorw("authorization failed", "err", err)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			claims, err := tokener.GetClaims(ctx, tokenString)
			if err != nil {
				logger.Log.Errorw("authorization failed", "err", err)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx = WithPrincipal(ctx, claims.UserID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose principal lacks role with 403.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := RoleFromContext(r.Context()); got != role {
				userID, _ := UserIDFromContext(r.Context())
				logger.Log.Warnw("forbidden", "user_id", userID, "role", got, "required", role)
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
