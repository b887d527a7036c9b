package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/studyhub/internal/domain"
	"github.com/dom/studyhub/internal/service"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"

	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Authenticator is the part of the auth service the gate depends on.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.Identity, error)
}

// Auth reads the access token cookie and attaches the caller's identity to the
// request context. No cookie is 401; a bad, expired or revoked token is 403.
func Auth(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AccessTokenCookie)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			identity, err := auth.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenRevoked) {
					logger.Debug("rejected access token", "path", r.URL.Path, "error", err)
					writeError(w, http.StatusForbidden, "Forbidden")
					return
				}
				logger.Error("failed to authenticate request", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, *identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetIdentity(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	return identity, ok
}

// WithIdentity is used by tests that exercise handlers without the gate.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
