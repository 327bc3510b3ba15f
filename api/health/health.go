package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/puoklam/connectly-backend/api"
	"github.com/puoklam/connectly-backend/middleware"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type Handlers struct {
	ping   Pinger
	logger zerolog.Logger
}

type status struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("database ping failed")
		api.JSON(w, http.StatusServiceUnavailable, status{Status: "unavailable", Database: err.Error()})
		return
	}
	api.JSON(w, http.StatusOK, status{Status: "ok", Database: "ok"})
}

func (h *Handlers) SetupRoutes(r chi.Router) {
	r.With(middleware.NoCache).Get("/health", h.health)
}

func NewHandlers(ping Pinger, logger zerolog.Logger) *Handlers {
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}
	return &Handlers{ping: ping, logger: logger}
}
