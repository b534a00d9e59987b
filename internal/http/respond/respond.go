// Package respond writes JSON responses and maps domain errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// Status maps an error kind to its HTTP status code.
func Status(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindState, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindNumeric:
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

// Error writes err as a JSON error body. Errors outside the domain taxonomy are logged
// and reported without detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := Status(kind)

	if kind == apperr.KindInternal {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		JSON(w, r, status, errorResponse{Error: "internal error"})

		return
	}

	resp := errorResponse{Error: err.Error()}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		resp.Error = appErr.Message
		resp.Fields = appErr.Fields
	}

	JSON(w, r, status, resp)
}

// BadRequest reports a malformed request outside service validation.
func BadRequest(w http.ResponseWriter, r *http.Request, field, message string) {
	Error(w, r, apperr.Field(field, message))
}

// Decode reads a JSON body into v.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		JSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}

	return true
}

// PathID parses the named URL parameter as a UUID, writing a 400 when it is not one.
func PathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		BadRequest(w, r, name, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}

func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusUnauthorized, errorResponse{Error: message})
}
