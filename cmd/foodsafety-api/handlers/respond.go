// Package handlers provides HTTP handlers for the food safety API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to a status code by its domain kind. Internal
// errors are logged and reported without detail.
func writeError(w http.ResponseWriter, logger *observability.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	detail := domain.MessageOf(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("kind", string(kind)).Msg("Request failed")
		detail = "Internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: string(kind), Detail: detail})
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewError(domain.KindInvalidInput, "invalid request body", err)
	}
	return nil
}

var errBadParam = errors.New("bad query parameter")

// intParam reads an integer query parameter bounded to [min, max].
func intParam(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, domain.NewError(domain.KindInvalidInput,
			fmt.Sprintf("%s must be an integer between %d and %d", name, min, max), errBadParam)
	}
	return n, nil
}

// uuidParam reads a UUID route parameter.
func uuidParam(r *http.Request, name, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.InvalidInput("invalid " + label + " id")
	}
	return id, nil
}
