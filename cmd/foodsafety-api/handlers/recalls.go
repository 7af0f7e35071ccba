package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// RecallsHandler serves FDA recall data.
type RecallsHandler struct {
	logger  *observability.Logger
	recalls *storage.RecallRepository
	now     func() time.Time
}

// NewRecallsHandler creates a new recalls handler.
func NewRecallsHandler(logger *observability.Logger, recalls *storage.RecallRepository) *RecallsHandler {
	return &RecallsHandler{logger: logger, recalls: recalls, now: time.Now}
}

// RecallListDTO is a page of recalls.
type RecallListDTO struct {
	Recalls []*storage.Recall `json:"recalls"`
	Total   int               `json:"total"`
	Skip    int               `json:"skip"`
	Limit   int               `json:"limit"`
}

// List handles GET /recalls.
func (h *RecallsHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, err := intParam(r, "skip", 0, 0, 1<<30)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	limit, err := intParam(r, "limit", 20, 1, 100)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	days, err := intParam(r, "days", 0, 0, 3650)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	filter := storage.RecallFilter{
		Classification: storage.Classification(q.Get("classification")),
		State:          q.Get("state"),
		Status:         q.Get("status"),
		Skip:           skip,
		Limit:          limit,
	}
	if filter.Classification != "" && !filter.Classification.Valid() {
		writeError(w, h.logger, domain.InvalidInput("classification must be Class I, Class II or Class III"))
		return
	}
	if days > 0 {
		since := h.now().UTC().AddDate(0, 0, -days)
		filter.Since = &since
	}

	recalls, total, err := h.recalls.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, RecallListDTO{Recalls: recalls, Total: total, Skip: skip, Limit: limit})
}

// Recent handles GET /recalls/recent.
func (h *RecallsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", 30, 1, 365)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	limit, err := intParam(r, "limit", 10, 1, 50)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	recalls, err := h.recalls.Recent(r.Context(), days, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recalls)
}

// Critical handles GET /recalls/critical.
func (h *RecallsHandler) Critical(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 10, 1, 50)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	recalls, err := h.recalls.Critical(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recalls)
}

// Search handles GET /recalls/search.
func (h *RecallsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) < 2 {
		writeError(w, h.logger, domain.InvalidInput("q must be at least 2 characters long"))
		return
	}
	limit, err := intParam(r, "limit", 20, 1, 100)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	recalls, err := h.recalls.SearchText(r.Context(), q, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recalls)
}

// Stats handles GET /recalls/stats/summary.
func (h *RecallsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", 90, 1, 365)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	stats, err := h.recalls.Stats(r.Context(), days)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Get handles GET /recalls/{recallNumber}.
func (h *RecallsHandler) Get(w http.ResponseWriter, r *http.Request) {
	recall, err := h.recalls.GetByNumber(r.Context(), chi.URLParam(r, "recallNumber"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, h.logger, domain.NotFound("Recall not found"))
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recall)
}
