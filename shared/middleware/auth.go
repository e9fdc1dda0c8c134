package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vasapolrittideah/task-tracker-api/shared/apperr"
	"github.com/vasapolrittideah/task-tracker-api/shared/utilities"
)

type (
	userContextKey  struct{}
	tokenContextKey struct{}
)

var (
	ErrMissingAuthorization = apperr.BadRequest("authorization header is missing")
	ErrInvalidAuthorization = apperr.Unauthorized("invalid authorization header format")
)

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator[U any] interface {
	Authenticate(ctx context.Context, token string) (U, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// resolved user and the raw token in the request context.
func Authenticate[U any](authenticator Authenticator[U]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				utilities.WriteError(w, r, err)
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				utilities.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			ctx = context.WithValue(ctx, tokenContextKey{}, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user attached by Authenticate.
func UserFromContext[U any](ctx context.Context) (U, bool) {
	user, ok := ctx.Value(userContextKey{}).(U)
	return user, ok
}

// TokenFromContext returns the bearer token attached by Authenticate.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidAuthorization
	}

	return strings.TrimSpace(parts[1]), nil
}
