package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const categoryColumns = `id, name, slug, description, parent_id, created_at`

// CategoryRepository handles food category persistence.
type CategoryRepository struct {
	db      DB
	dialect Dialect
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db DB, dialect Dialect) *CategoryRepository {
	return &CategoryRepository{db: db, dialect: dialect}
}

// Create inserts a category and sets its generated id.
func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("category name is required")
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	c.CreatedAt = time.Now().UTC()

	query := r.dialect.Rebind(`
		INSERT INTO food_categories (name, slug, description, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowContext(ctx, query, c.Name, c.Slug, c.Description, c.ParentID, c.CreatedAt).Scan(&c.ID)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// ListTopLevel returns the categories without a parent, ordered by name.
func (r *CategoryRepository) ListTopLevel(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM food_categories WHERE parent_id IS NULL ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []*Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetBySlug retrieves a category by slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	query := r.dialect.Rebind(`SELECT ` + categoryColumns + ` FROM food_categories WHERE slug = ?`)
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func scanCategory(row rowScanner) (*Category, error) {
	c := &Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}
