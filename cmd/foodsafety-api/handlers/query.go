package handlers

import (
	"net/http"

	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/query"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// QueryHandler serves the natural-language query endpoints.
type QueryHandler struct {
	logger  *observability.Logger
	service *query.Service
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(logger *observability.Logger, service *query.Service) *QueryHandler {
	return &QueryHandler{logger: logger, service: service}
}

// QueryRequestDTO is the body of a natural-language query.
type QueryRequestDTO struct {
	Query   string `json:"query"`
	Context string `json:"context,omitempty"`
}

// QueryResponseDTO is the answer to a natural-language query.
type QueryResponseDTO struct {
	Answer     string                  `json:"answer"`
	Sources    []*storage.Food         `json:"sources"`
	Recalls    []query.RecallSummary   `json:"recalls"`
	Advisories []query.AdvisorySummary `json:"advisories"`
}

// Query handles POST /llm/query.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	answer, err := h.service.AnswerQuery(r.Context(), query.Request{
		Question:    req.Query,
		ContextHint: req.Context,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, QueryResponseDTO{
		Answer:     answer.Answer,
		Sources:    answer.Foods,
		Recalls:    answer.Recalls,
		Advisories: answer.Advisories,
	})
}

// Examples handles GET /llm/examples.
func (h *QueryHandler) Examples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, query.Examples())
}
