package relationship

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/puoklam/connectly-backend/api"
	"github.com/puoklam/connectly-backend/friends"
	"github.com/puoklam/connectly-backend/validation"
)

type Handlers struct {
	friends *friends.Service
	logger  zerolog.Logger
}

// pairRequest names the acting user and the other side of the edge.
type pairRequest struct {
	UserID   string `json:"userId" validate:"required"`
	FriendID string `json:"friendId" validate:"required"`
}

// decodePair answers 400 itself when the body is unusable.
func decodePair(w http.ResponseWriter, r *http.Request) (pairRequest, bool) {
	var body pairRequest
	if err := api.Decode(r, &body); err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			api.Error(w, http.StatusBadRequest, "userId and friendId are required")
		} else {
			api.Fail(w, r, err)
		}
		return body, false
	}
	return body, true
}

func (h *Handlers) send(w http.ResponseWriter, r *http.Request) {
	body, ok := decodePair(w, r)
	if !ok {
		return
	}
	if err := h.friends.SendRequest(r.Context(), body.UserID, body.FriendID); err != nil {
		api.Fail(w, r, err)
		return
	}
	h.logPair("send", body)
	api.Message(w, http.StatusOK, "Friend request sent")
}

func (h *Handlers) accept(w http.ResponseWriter, r *http.Request) {
	body, ok := decodePair(w, r)
	if !ok {
		return
	}
	if err := h.friends.AcceptRequest(r.Context(), body.UserID, body.FriendID); err != nil {
		api.Fail(w, r, err)
		return
	}
	h.logPair("accept", body)
	api.Message(w, http.StatusOK, "Friend request accepted")
}

func (h *Handlers) remove(w http.ResponseWriter, r *http.Request) {
	body, ok := decodePair(w, r)
	if !ok {
		return
	}
	if err := h.friends.RemoveFriend(r.Context(), body.UserID, body.FriendID); err != nil {
		api.Fail(w, r, err)
		return
	}
	h.logPair("remove", body)
	api.Message(w, http.StatusOK, "Friend removed successfully")
}

func (h *Handlers) reject(w http.ResponseWriter, r *http.Request) {
	body, ok := decodePair(w, r)
	if !ok {
		return
	}
	err := h.friends.RejectRequest(r.Context(), body.UserID, body.FriendID)
	switch {
	case errors.Is(err, friends.ErrNoSuchRequest):
		api.Error(w, http.StatusBadRequest, "Friend request not found in user's list")
	case err != nil:
		api.Fail(w, r, err)
	default:
		h.logPair("reject", body)
		api.Message(w, http.StatusOK, "Friend request rejected successfully")
	}
}

func (h *Handlers) logPair(op string, body pairRequest) {
	h.logger.Debug().Str("op", op).Str("user_id", body.UserID).Str("friend_id", body.FriendID).Msg("friend graph updated")
}

// SetupRoutes registers the friend graph mutations on a /users router.
func (h *Handlers) SetupRoutes(r chi.Router) {
	r.Post("/send", h.send)
	r.Post("/accept", h.accept)
	r.Delete("/delete", h.remove)
	r.Delete("/delete-request", h.reject)
}

func NewHandlers(friends *friends.Service, logger zerolog.Logger) *Handlers {
	return &Handlers{friends: friends, logger: logger}
}
