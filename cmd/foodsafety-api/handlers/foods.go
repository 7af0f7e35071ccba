package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/sources"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// FoodsHandler serves the food catalog.
type FoodsHandler struct {
	logger *observability.Logger
	foods  *storage.FoodRepository
}

// NewFoodsHandler creates a new foods handler.
func NewFoodsHandler(logger *observability.Logger, foods *storage.FoodRepository) *FoodsHandler {
	return &FoodsHandler{logger: logger, foods: foods}
}

// FoodListDTO is a page of foods.
type FoodListDTO struct {
	Foods  []*storage.Food `json:"foods"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// List handles GET /foods, optionally narrowed by ?category=<slug>.
func (h *FoodsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 20, 1, 100)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	offset, err := intParam(r, "offset", 0, 0, 1<<30)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	var foods []*storage.Food
	var total int
	if category := q.Get("category"); category != "" {
		foods, total, err = h.foods.ListByCategory(r.Context(), category, q.Get("q"), limit, offset)
	} else {
		foods, total, err = h.foods.List(r.Context(), q.Get("q"), limit, offset)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, FoodListDTO{Foods: foods, Total: total, Limit: limit, Offset: offset})
}

// Get handles GET /foods/{id}.
func (h *FoodsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id", "food")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	food, err := h.foods.GetByID(r.Context(), id)
	h.respondFood(w, food, err)
}

// GetBySlug handles GET /foods/slug/{slug}.
func (h *FoodsHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	food, err := h.foods.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	h.respondFood(w, food, err)
}

// GetByBarcode handles GET /foods/barcode/{barcode}.
func (h *FoodsHandler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	food, err := h.foods.GetByBarcode(r.Context(), sources.CleanBarcode(chi.URLParam(r, "barcode")))
	h.respondFood(w, food, err)
}

// Search handles GET /search, matching food names and common names.
func (h *FoodsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, h.logger, domain.InvalidInput("q is required"))
		return
	}
	limit, err := intParam(r, "limit", 20, 1, 100)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	offset, err := intParam(r, "offset", 0, 0, 1<<30)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	foods, total, err := h.foods.SearchNames(r.Context(), q, limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, FoodListDTO{Foods: foods, Total: total, Limit: limit, Offset: offset})
}

func (h *FoodsHandler) respondFood(w http.ResponseWriter, food *storage.Food, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, h.logger, domain.NotFound("Food not found"))
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, food)
}
