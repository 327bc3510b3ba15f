package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/puoklam/connectly-backend/api"
	"github.com/puoklam/connectly-backend/directory"
)

// WithUser loads the user named by the userId URL parameter.
func WithUser(dir directory.Reader) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "userId")
			if id == "" {
				api.Error(w, http.StatusBadRequest, "userId is required")
				return
			}
			u, err := dir.FindByID(r.Context(), id)
			if err != nil {
				if errors.Is(err, directory.ErrNotFound) {
					api.Error(w, http.StatusNotFound, "User not found")
				} else {
					api.Fail(w, r, err)
				}
				return
			}
			ctx := context.WithValue(r.Context(), targetUserKey, u)
			h.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// TargetUser returns the user loaded by WithUser.
func TargetUser(ctx context.Context) *directory.User {
	u, _ := ctx.Value(targetUserKey).(*directory.User)
	return u
}
