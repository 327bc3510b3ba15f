package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/puoklam/connectly-backend/api"
	"github.com/puoklam/connectly-backend/directory"
	"github.com/puoklam/connectly-backend/friends"
	"github.com/puoklam/connectly-backend/middleware"
	"github.com/puoklam/connectly-backend/recommend"
)

type Handlers struct {
	dir     directory.Reader
	friends *friends.Service
	engine  *recommend.Engine
	logger  zerolog.Logger
}

func (h *Handlers) getFriends(w http.ResponseWriter, r *http.Request) {
	u := middleware.TargetUser(r.Context())
	users, err := h.dir.FindManyByID(r.Context(), u.Friends)
	if err != nil {
		api.Fail(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, api.NewOutUsers(users))
}

func (h *Handlers) getFriendRequests(w http.ResponseWriter, r *http.Request) {
	u := middleware.TargetUser(r.Context())
	users, err := h.dir.FindManyByID(r.Context(), u.FriendRequests)
	if err != nil {
		api.Fail(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, struct {
		FriendRequests []api.OutUser `json:"friendRequests"`
	}{api.NewOutUsers(users)})
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.dir.Search(r.Context(), q.Get("searchTerm"), q.Get("userId"))
	if err != nil {
		api.Fail(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, api.NewOutUsers(users))
}

type recommendRequest struct {
	UserID string `json:"userId" validate:"required"`
}

func (h *Handlers) recommendFriends(w http.ResponseWriter, r *http.Request) {
	var body recommendRequest
	if err := api.Decode(r, &body); err != nil {
		api.Fail(w, r, err)
		return
	}
	recs, err := h.engine.Recommend(r.Context(), body.UserID)
	if err != nil {
		api.Fail(w, r, err)
		return
	}
	h.logger.Debug().Str("user_id", body.UserID).Int("count", len(recs)).Msg("recommendations served")
	api.JSON(w, http.StatusOK, api.NewOutRecommendations(recs))
}

type hobbiesRequest struct {
	UserID  string   `json:"userId" validate:"required"`
	Hobbies []string `json:"hobbies" validate:"max=50,dive,max=64"`
}

func (h *Handlers) updateHobbies(w http.ResponseWriter, r *http.Request) {
	var body hobbiesRequest
	if err := api.Decode(r, &body); err != nil {
		api.Fail(w, r, err)
		return
	}
	u, err := h.friends.SetHobbies(r.Context(), body.UserID, body.Hobbies)
	if err != nil {
		api.Fail(w, r, err)
		return
	}
	h.logger.Debug().Str("user_id", u.ID).Strs("hobbies", u.Hobbies).Msg("hobbies updated")
	api.JSON(w, http.StatusOK, api.NewOutProfile(u))
}

// SetupRoutes registers the read and profile routes on a /users router.
func (h *Handlers) SetupRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.With(middleware.WithUser(h.dir)).Get("/friends/{userId}", h.getFriends)
		r.With(middleware.WithUser(h.dir)).Get("/friend-requests/{userId}", h.getFriendRequests)
		r.Get("/search", h.search)
	})
	r.Post("/recommend-friends", h.recommendFriends)
	r.Put("/hobbies", h.updateHobbies)
}

func NewHandlers(dir directory.Reader, friends *friends.Service, engine *recommend.Engine, logger zerolog.Logger) *Handlers {
	return &Handlers{dir: dir, friends: friends, engine: engine, logger: logger}
}
