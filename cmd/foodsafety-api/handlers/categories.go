package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// CategoriesHandler serves food categories.
type CategoriesHandler struct {
	logger     *observability.Logger
	categories *storage.CategoryRepository
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(logger *observability.Logger, categories *storage.CategoryRepository) *CategoriesHandler {
	return &CategoriesHandler{logger: logger, categories: categories}
}

// List handles GET /categories, returning top-level categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListTopLevel(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// Get handles GET /categories/{slug}.
func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, h.logger, domain.NotFound("Category not found"))
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}
