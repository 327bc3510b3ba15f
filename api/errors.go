package api

import (
	"errors"
	"net/http"

	"github.com/puoklam/connectly-backend/auth"
	"github.com/puoklam/connectly-backend/directory"
	"github.com/puoklam/connectly-backend/friends"
	"github.com/puoklam/connectly-backend/logging"
	"github.com/puoklam/connectly-backend/recommend"
	"github.com/puoklam/connectly-backend/validation"
)

// Status maps a domain error to its HTTP status and client message.
// Unknown errors become 500 with the error text.
func Status(err error) (int, string) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, validationMessage(verr)
	case errors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest, "Malformed request body"
	case errors.Is(err, directory.ErrMissingIdentity):
		return http.StatusBadRequest, "Missing required fields!"
	case errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusBadRequest, "Password must be at most 72 bytes"
	case errors.Is(err, directory.ErrNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, directory.ErrDuplicateEmail):
		return http.StatusConflict, "Email already in use"
	case errors.Is(err, directory.ErrDuplicateName):
		return http.StatusConflict, "Name already in use"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusForbidden, "Token not valid"
	case errors.Is(err, friends.ErrAlreadyFriends):
		return http.StatusBadRequest, "Already friends"
	case errors.Is(err, friends.ErrDuplicateRequest):
		return http.StatusBadRequest, "Friend request already sent"
	case errors.Is(err, friends.ErrNoSuchRequest):
		return http.StatusBadRequest, "No friend request from this user"
	case errors.Is(err, friends.ErrSameUser):
		return http.StatusBadRequest, "userId and friendId must differ"
	case errors.Is(err, recommend.ErrEmptyResult):
		return http.StatusNotFound, "No friend recommendations available"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// Fail writes the error response for err. Server errors are logged with
// the request scoped logger.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := Status(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	Error(w, status, msg)
}

func validationMessage(verr *validation.RequestValidationError) string {
	for _, fe := range verr.Errors() {
		if fe.Tag != "required" {
			return verr.Error()
		}
	}
	return "Missing required fields!"
}
