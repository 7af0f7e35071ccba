package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SavedFoodRepository handles a user's bookmarked foods.
type SavedFoodRepository struct {
	db      DB
	dialect Dialect
}

// NewSavedFoodRepository creates a new saved food repository.
func NewSavedFoodRepository(db DB, dialect Dialect) *SavedFoodRepository {
	return &SavedFoodRepository{db: db, dialect: dialect}
}

// Save bookmarks a food for a user. Saving the same food twice returns ErrConflict.
func (r *SavedFoodRepository) Save(ctx context.Context, saved *SavedFood) error {
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
	}
	saved.SavedAt = time.Now().UTC()

	query := r.dialect.Rebind(`
		INSERT INTO saved_foods (id, user_id, food_id, notes, saved_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query, saved.ID, saved.UserID, saved.FoodID, saved.Notes, saved.SavedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// ListByUser returns a user's saved foods, newest first, with their food attached.
func (r *SavedFoodRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*SavedFood, error) {
	query := r.dialect.Rebind(`
		SELECT s.id, s.user_id, s.food_id, s.notes, s.saved_at, ` + qualifiedFoodColumns("f") + `
		FROM saved_foods s JOIN foods f ON f.id = s.food_id
		WHERE s.user_id = ?
		ORDER BY s.saved_at DESC, s.id
	`)
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved foods: %w", err)
	}
	defer rows.Close()

	saved := []*SavedFood{}
	for rows.Next() {
		s := &SavedFood{Food: &Food{}}
		f := s.Food
		err := rows.Scan(
			&s.ID, &s.UserID, &s.FoodID, &s.Notes, &s.SavedAt,
			&f.ID, &f.Name, &f.Slug, &f.CommonNames, &f.Description,
			&f.ImageURL, &f.Barcode, &f.CategoryID, &f.CreatedAt, &f.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		saved = append(saved, s)
	}
	return saved, rows.Err()
}

// Get returns the user's saved entry for a food.
func (r *SavedFoodRepository) Get(ctx context.Context, userID, foodID uuid.UUID) (*SavedFood, error) {
	query := r.dialect.Rebind(`
		SELECT id, user_id, food_id, notes, saved_at FROM saved_foods WHERE user_id = ? AND food_id = ?
	`)
	s := &SavedFood{}
	err := r.db.QueryRowContext(ctx, query, userID, foodID).Scan(&s.ID, &s.UserID, &s.FoodID, &s.Notes, &s.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateNotes replaces the notes on a saved food.
func (r *SavedFoodRepository) UpdateNotes(ctx context.Context, userID, foodID uuid.UUID, notes string) (*SavedFood, error) {
	query := r.dialect.Rebind(`UPDATE saved_foods SET notes = ? WHERE user_id = ? AND food_id = ?`)
	res, err := r.db.ExecContext(ctx, query, notes, userID, foodID)
	if err := affectedOne(res, err); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, foodID)
}

// Delete removes a saved food.
func (r *SavedFoodRepository) Delete(ctx context.Context, userID, foodID uuid.UUID) error {
	query := r.dialect.Rebind(`DELETE FROM saved_foods WHERE user_id = ? AND food_id = ?`)
	res, err := r.db.ExecContext(ctx, query, userID, foodID)
	return affectedOne(res, err)
}

// affectedOne maps a write that touched no rows to ErrNotFound.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
