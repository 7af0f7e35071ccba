package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/jsedoc/fish-rankings/cmd/foodsafety-api/middleware"
	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// SavedFoodsHandler serves the signed-in user's bookmarked foods.
type SavedFoodsHandler struct {
	logger *observability.Logger
	foods  *storage.FoodRepository
	saved  *storage.SavedFoodRepository
}

// NewSavedFoodsHandler creates a new saved foods handler.
func NewSavedFoodsHandler(logger *observability.Logger, foods *storage.FoodRepository, saved *storage.SavedFoodRepository) *SavedFoodsHandler {
	return &SavedFoodsHandler{logger: logger, foods: foods, saved: saved}
}

// SaveFoodRequestDTO is the body of a save.
type SaveFoodRequestDTO struct {
	FoodID uuid.UUID `json:"food_id"`
	Notes  string    `json:"notes"`
}

// UpdateNotesRequestDTO is the body of a notes update.
type UpdateNotesRequestDTO struct {
	Notes string `json:"notes"`
}

// List handles GET /saved-foods.
func (h *SavedFoodsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	saved, err := h.saved.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// Save handles POST /saved-foods.
func (h *SavedFoodsHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.UserFromContext(ctx)

	var req SaveFoodRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	food, err := h.foods.GetByID(ctx, req.FoodID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, h.logger, domain.NotFound("Food not found"))
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	saved := &storage.SavedFood{UserID: user.ID, FoodID: food.ID, Notes: req.Notes, Food: food}
	if err := h.saved.Save(ctx, saved); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			err = domain.Conflict("Food already saved")
		}
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// UpdateNotes handles PUT /saved-foods/{foodID}.
func (h *SavedFoodsHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	foodID, err := uuidParam(r, "foodID", "food")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req UpdateNotesRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	saved, err := h.saved.UpdateNotes(r.Context(), user.ID, foodID, req.Notes)
	if errors.Is(err, storage.ErrNotFound) {
		err = domain.NotFound("Saved food not found")
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// Delete handles DELETE /saved-foods/{foodID}.
func (h *SavedFoodsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	foodID, err := uuidParam(r, "foodID", "food")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	err = h.saved.Delete(r.Context(), user.ID, foodID)
	if errors.Is(err, storage.ErrNotFound) {
		err = domain.NotFound("Saved food not found")
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
