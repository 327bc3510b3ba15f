package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	apiauth "github.com/puoklam/connectly-backend/api/auth"
	"github.com/puoklam/connectly-backend/api/health"
	"github.com/puoklam/connectly-backend/api/relationship"
	"github.com/puoklam/connectly-backend/api/user"
	"github.com/puoklam/connectly-backend/auth"
	"github.com/puoklam/connectly-backend/directory"
	"github.com/puoklam/connectly-backend/env"
	"github.com/puoklam/connectly-backend/friends"
	"github.com/puoklam/connectly-backend/logging"
	"github.com/puoklam/connectly-backend/metrics"
	"github.com/puoklam/connectly-backend/middleware"
	"github.com/puoklam/connectly-backend/recommend"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Config  *env.Config
	Logger  zerolog.Logger
	Store   directory.Store
	Auth    *auth.Service
	Friends *friends.Service
	Engine  *recommend.Engine
	Ping    health.Pinger
}

// NewRouter builds the complete route tree under /api plus /metrics.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	SetupMiddlewares(r, d.Config, d.Logger)

	cookie := auth.Cookie{
		Name:   d.Config.Auth.CookieName,
		Secure: d.Config.Auth.CookieSecure,
		MaxAge: d.Config.Auth.TokenTTL,
	}
	authHandlers := apiauth.NewHandlers(d.Auth, cookie, logging.WithComponent("api.auth"))
	userHandlers := user.NewHandlers(d.Store, d.Friends, d.Engine, logging.WithComponent("api.user"))
	relHandlers := relationship.NewHandlers(d.Friends, logging.WithComponent("api.relationship"))
	healthHandlers := health.NewHandlers(d.Ping, logging.WithComponent("health"))

	r.Route("/api", func(r chi.Router) {
		healthHandlers.SetupRoutes(r)
		authHandlers.SetupRoutes(r)
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.Authenticator(d.Auth.Tokens(), d.Config.Auth.CookieName, logging.WithComponent("authn")))
			userHandlers.SetupRoutes(r)
			relHandlers.SetupRoutes(r)
		})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}
