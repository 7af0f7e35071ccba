package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const mealPlanColumns = `id, user_id, name, description, plan_date, meal_type, created_at, updated_at`

// Dated plans come first; undated ones sort last on both dialects.
const mealPlanOrder = `(plan_date IS NULL), plan_date DESC, created_at DESC, id`

// MealPlanUpdate holds the fields of a partial meal plan update. Nil fields are left unchanged.
type MealPlanUpdate struct {
	Name        *string
	Description *string
	Date        *time.Time
	MealType    *string
}

// MealPlanRepository handles meal plans and their food entries.
type MealPlanRepository struct {
	db      DB
	dialect Dialect
}

// NewMealPlanRepository creates a new meal plan repository.
func NewMealPlanRepository(db DB, dialect Dialect) *MealPlanRepository {
	return &MealPlanRepository{db: db, dialect: dialect}
}

// Create inserts a meal plan.
func (r *MealPlanRepository) Create(ctx context.Context, plan *MealPlan) error {
	if strings.TrimSpace(plan.Name) == "" {
		return fmt.Errorf("meal plan name is required")
	}
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	plan.CreatedAt = time.Now().UTC()
	if plan.Foods == nil {
		plan.Foods = []*MealPlanFood{}
	}

	query := r.dialect.Rebind(`
		INSERT INTO meal_plans (id, user_id, name, description, plan_date, meal_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		plan.ID, plan.UserID, plan.Name, plan.Description, plan.Date, plan.MealType, plan.CreatedAt,
	)
	return err
}

// ListByUser returns a user's plans with their food entries, optionally
// narrowed to one meal type.
func (r *MealPlanRepository) ListByUser(ctx context.Context, userID uuid.UUID, mealType string) ([]*MealPlan, error) {
	where := ` WHERE user_id = ?`
	args := []interface{}{userID}
	if mealType != "" {
		where += ` AND meal_type = ?`
		args = append(args, mealType)
	}

	query := r.dialect.Rebind(`SELECT ` + mealPlanColumns + ` FROM meal_plans` + where + ` ORDER BY ` + mealPlanOrder)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list meal plans: %w", err)
	}
	defer rows.Close()

	plans := []*MealPlan{}
	for rows.Next() {
		plan, err := scanMealPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, plan := range plans {
		if plan.Foods, err = r.foods(ctx, plan.ID); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// Get returns a user's plan with its food entries.
func (r *MealPlanRepository) Get(ctx context.Context, userID, id uuid.UUID) (*MealPlan, error) {
	query := r.dialect.Rebind(`SELECT ` + mealPlanColumns + ` FROM meal_plans WHERE id = ? AND user_id = ?`)
	plan, err := scanMealPlan(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if plan.Foods, err = r.foods(ctx, plan.ID); err != nil {
		return nil, err
	}
	return plan, nil
}

// Update applies the non-nil fields of u to a user's plan.
func (r *MealPlanRepository) Update(ctx context.Context, userID, id uuid.UUID, u MealPlanUpdate) (*MealPlan, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return nil, fmt.Errorf("meal plan name is required")
		}
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	if u.Date != nil {
		sets = append(sets, "plan_date = ?")
		args = append(args, *u.Date)
	}
	if u.MealType != nil {
		sets = append(sets, "meal_type = ?")
		args = append(args, *u.MealType)
	}

	query := r.dialect.Rebind(`UPDATE meal_plans SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND user_id = ?`)
	res, err := r.db.ExecContext(ctx, query, append(args, id, userID)...)
	if err := affectedOne(res, err); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, id)
}

// Delete removes a user's plan and its food entries.
func (r *MealPlanRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	entries := r.dialect.Rebind(`
		DELETE FROM meal_plan_foods
		WHERE meal_plan_id IN (SELECT id FROM meal_plans WHERE id = ? AND user_id = ?)
	`)
	if _, err := r.db.ExecContext(ctx, entries, id, userID); err != nil {
		return fmt.Errorf("delete meal plan foods: %w", err)
	}
	query := r.dialect.Rebind(`DELETE FROM meal_plans WHERE id = ? AND user_id = ?`)
	res, err := r.db.ExecContext(ctx, query, id, userID)
	return affectedOne(res, err)
}

// AddFood appends a food entry to a plan. Servings defaults to 1.
func (r *MealPlanRepository) AddFood(ctx context.Context, entry *MealPlanFood) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Servings <= 0 {
		entry.Servings = 1
	}
	entry.CreatedAt = time.Now().UTC()

	query := r.dialect.Rebind(`
		INSERT INTO meal_plan_foods (id, meal_plan_id, food_id, serving_size, servings, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.MealPlanID, entry.FoodID, entry.ServingSize, entry.Servings, entry.Notes, entry.CreatedAt,
	)
	return err
}

// RemoveFood deletes the entries for foodID from a plan.
func (r *MealPlanRepository) RemoveFood(ctx context.Context, planID, foodID uuid.UUID) error {
	query := r.dialect.Rebind(`DELETE FROM meal_plan_foods WHERE meal_plan_id = ? AND food_id = ?`)
	res, err := r.db.ExecContext(ctx, query, planID, foodID)
	return affectedOne(res, err)
}

func (r *MealPlanRepository) foods(ctx context.Context, planID uuid.UUID) ([]*MealPlanFood, error) {
	query := r.dialect.Rebind(`
		SELECT e.id, e.meal_plan_id, e.food_id, e.serving_size, e.servings, e.notes, e.created_at, ` + qualifiedFoodColumns("f") + `
		FROM meal_plan_foods e JOIN foods f ON f.id = e.food_id
		WHERE e.meal_plan_id = ?
		ORDER BY e.created_at, e.id
	`)
	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("list meal plan foods: %w", err)
	}
	defer rows.Close()

	entries := []*MealPlanFood{}
	for rows.Next() {
		e := &MealPlanFood{Food: &Food{}}
		f := e.Food
		err := rows.Scan(
			&e.ID, &e.MealPlanID, &e.FoodID, &e.ServingSize, &e.Servings, &e.Notes, &e.CreatedAt,
			&f.ID, &f.Name, &f.Slug, &f.CommonNames, &f.Description,
			&f.ImageURL, &f.Barcode, &f.CategoryID, &f.CreatedAt, &f.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanMealPlan(row rowScanner) (*MealPlan, error) {
	plan := &MealPlan{Foods: []*MealPlanFood{}}
	err := row.Scan(
		&plan.ID, &plan.UserID, &plan.Name, &plan.Description, &plan.Date,
		&plan.MealType, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return plan, nil
}
