package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/puoklam/connectly-backend/api"
	"github.com/puoklam/connectly-backend/auth"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	targetUserKey
)

// Authenticator verifies the session cookie and stores the caller's id in
// the request context.
func Authenticator(tokens *auth.Tokens, cookieName string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				if err != nil && !errors.Is(err, http.ErrNoCookie) {
					logger.Warn().Err(err).Msg("read session cookie")
				}
				api.Error(w, http.StatusUnauthorized, "You are not authenticated")
				return
			}
			uid, err := tokens.Verify(c.Value)
			if err != nil {
				logger.Debug().Err(err).Msg("rejected session token")
				api.Error(w, http.StatusForbidden, "Token not valid")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, uid)
			h.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// UserID returns the authenticated caller, or "" outside Authenticator.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
