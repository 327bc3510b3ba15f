// Package api holds the JSON response helpers and the outward user
// representations shared by the HTTP handlers.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/puoklam/connectly-backend/logging"
	"github.com/puoklam/connectly-backend/validation"
)

// ErrorBody is the payload of every failed request.
type ErrorBody struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type MessageBody struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l := logging.Logger()
		l.Warn().Err(err).Msg("encode response")
	}
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Success: false, Status: status, Message: msg})
}

// ErrMalformedBody is returned by Decode for bodies that are not JSON.
var ErrMalformedBody = errors.New("malformed request body")

// Decode reads a JSON body into v and validates it. Validation failures
// are returned as *validation.RequestValidationError.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return ErrMalformedBody
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr
	}
	return nil
}
