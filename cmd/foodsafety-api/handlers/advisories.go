package handlers

import (
	"net/http"

	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// AdvisoriesHandler serves state fish consumption advisories.
type AdvisoriesHandler struct {
	logger     *observability.Logger
	advisories *storage.AdvisoryRepository
}

// NewAdvisoriesHandler creates a new advisories handler.
func NewAdvisoriesHandler(logger *observability.Logger, advisories *storage.AdvisoryRepository) *AdvisoriesHandler {
	return &AdvisoriesHandler{logger: logger, advisories: advisories}
}

// List handles GET /advisories.
func (h *AdvisoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 50, 1, 500)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	advisories, err := h.advisories.ListByState(r.Context(), r.URL.Query().Get("state"), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, advisories)
}
