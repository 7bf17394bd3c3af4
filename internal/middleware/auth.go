// Package middleware provides HTTP middlewares for authentication, request
// logging and panic recovery.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/cerevyn/internal/apperr"
	"github.com/atinyakov/cerevyn/internal/models"
	"github.com/atinyakov/cerevyn/internal/server/respond"
)

type ctxKey string

const userKey ctxKey = "user"

// Authenticator resolves a bearer token to a live user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// Authenticate is the auth gate for protected routes.
//
// It reads the token from the "Authorization: Bearer <token>" header, resolves
// it through auth and stores the resulting user in the request context, so it
// can be used downstream as the acting identity. Requests without a usable
// header are rejected with 401 "not logged in"; verification and lookup
// failures are written as returned by auth.
func Authenticate(auth Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respond.Error(w, r, log, apperr.Unauthenticated("not logged in", nil))
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				respond.Error(w, r, log, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithIdentity returns a copy of ctx carrying user as the acting identity.
func WithIdentity(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// IdentityFromContext extracts the acting identity stored by Authenticate.
// The second result is false when the request was not authenticated.
func IdentityFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}
