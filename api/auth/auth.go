package auth

import (
	"errors"
	"net/http"
	"net/mail"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/puoklam/connectly-backend/api"
	authsvc "github.com/puoklam/connectly-backend/auth"
)

type Handlers struct {
	svc    *authsvc.Service
	cookie authsvc.Cookie
	logger zerolog.Logger
}

type signupRequest struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required"`
	Password string   `json:"password" validate:"required"`
	Hobbies  []string `json:"hobbies"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) signup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if err := api.Decode(r, &body); err != nil {
		api.Fail(w, r, err)
		return
	}
	addr, err := mail.ParseAddress(body.Email)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid email")
		return
	}
	u, err := h.svc.Signup(r.Context(), authsvc.SignupInput{
		Name:     body.Name,
		Email:    addr.Address,
		Password: body.Password,
		Hobbies:  body.Hobbies,
	})
	if err != nil {
		h.logger.Debug().Err(err).Msg("signup rejected")
		api.Fail(w, r, err)
		return
	}
	h.logger.Debug().Str("user_id", u.ID).Msg("signup")
	api.Message(w, http.StatusCreated, "User has been created successfully!")
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := api.Decode(r, &body); err != nil {
		api.Fail(w, r, err)
		return
	}
	u, token, err := h.svc.Login(r.Context(), body.Email, body.Password)
	if errors.Is(err, authsvc.ErrInvalidCredentials) {
		h.logger.Info().Str("remote_addr", r.RemoteAddr).Msg("login rejected")
	}
	if err != nil {
		api.Fail(w, r, err)
		return
	}
	h.cookie.Set(w, token)
	api.JSON(w, http.StatusOK, api.NewOutAccount(u))
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.cookie.Clear(w)
	api.Message(w, http.StatusOK, "Logged out successfully")
}

func (h *Handlers) SetupRoutes(r chi.Router) {
	r.Route("/auths", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
	})
}

func NewHandlers(svc *authsvc.Service, cookie authsvc.Cookie, logger zerolog.Logger) *Handlers {
	return &Handlers{svc: svc, cookie: cookie, logger: logger}
}
