package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jsedoc/fish-rankings/cmd/foodsafety-api/middleware"
	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// MealPlansHandler serves the signed-in user's meal plans.
type MealPlansHandler struct {
	logger *observability.Logger
	foods  *storage.FoodRepository
	plans  *storage.MealPlanRepository
}

// NewMealPlansHandler creates a new meal plans handler.
func NewMealPlansHandler(logger *observability.Logger, foods *storage.FoodRepository, plans *storage.MealPlanRepository) *MealPlansHandler {
	return &MealPlansHandler{logger: logger, foods: foods, plans: plans}
}

// MealPlanRequestDTO is the body of a create or update. Absent fields are
// left unchanged on update.
type MealPlanRequestDTO struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	MealType    *string    `json:"meal_type"`
}

// AddMealPlanFoodRequestDTO is the body of adding a food to a plan.
type AddMealPlanFoodRequestDTO struct {
	FoodID      uuid.UUID `json:"food_id"`
	ServingSize string    `json:"serving_size"`
	Servings    float64   `json:"servings"`
	Notes       string    `json:"notes"`
}

var errMealPlanNotFound = domain.NotFound("Meal plan not found")

// List handles GET /meal-plans.
func (h *MealPlansHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	plans, err := h.plans.ListByUser(r.Context(), user.ID, r.URL.Query().Get("meal_type"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

// Create handles POST /meal-plans.
func (h *MealPlansHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	var req MealPlanRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		writeError(w, h.logger, domain.InvalidInput("name is required"))
		return
	}

	plan := &storage.MealPlan{UserID: user.ID, Name: *req.Name, Date: req.Date}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.MealType != nil {
		plan.MealType = *req.MealType
	}
	if err := h.plans.Create(r.Context(), plan); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

// Get handles GET /meal-plans/{id}.
func (h *MealPlansHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, err := uuidParam(r, "id", "meal plan")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	plan, err := h.plans.Get(r.Context(), user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		err = errMealPlanNotFound
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// Update handles PUT /meal-plans/{id}.
func (h *MealPlansHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, err := uuidParam(r, "id", "meal plan")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req MealPlanRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		writeError(w, h.logger, domain.InvalidInput("name must not be empty"))
		return
	}

	plan, err := h.plans.Update(r.Context(), user.ID, id, storage.MealPlanUpdate{
		Name: req.Name, Description: req.Description, Date: req.Date, MealType: req.MealType,
	})
	if errors.Is(err, storage.ErrNotFound) {
		err = errMealPlanNotFound
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// Delete handles DELETE /meal-plans/{id}.
func (h *MealPlansHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, err := uuidParam(r, "id", "meal plan")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	err = h.plans.Delete(r.Context(), user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		err = errMealPlanNotFound
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddFood handles POST /meal-plans/{id}/foods.
func (h *MealPlansHandler) AddFood(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.UserFromContext(ctx)
	id, err := uuidParam(r, "id", "meal plan")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req AddMealPlanFoodRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.plans.Get(ctx, user.ID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = errMealPlanNotFound
		}
		writeError(w, h.logger, err)
		return
	}
	food, err := h.foods.GetByID(ctx, req.FoodID)
	if errors.Is(err, storage.ErrNotFound) {
		err = domain.NotFound("Food not found")
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	entry := &storage.MealPlanFood{
		MealPlanID: id, FoodID: food.ID, ServingSize: req.ServingSize,
		Servings: req.Servings, Notes: req.Notes, Food: food,
	}
	if err := h.plans.AddFood(ctx, entry); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// RemoveFood handles DELETE /meal-plans/{id}/foods/{foodID}.
func (h *MealPlansHandler) RemoveFood(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.UserFromContext(ctx)
	id, err := uuidParam(r, "id", "meal plan")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	foodID, err := uuidParam(r, "foodID", "food")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.plans.Get(ctx, user.ID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = errMealPlanNotFound
		}
		writeError(w, h.logger, err)
		return
	}
	err = h.plans.RemoveFood(ctx, id, foodID)
	if errors.Is(err, storage.ErrNotFound) {
		err = domain.NotFound("Food not found in meal plan")
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
