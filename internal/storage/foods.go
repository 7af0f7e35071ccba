package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const foodColumns = `id, name, slug, common_names, description, image_url, barcode,
	category_id, created_at, updated_at`

// FoodRepository handles food persistence and search.
type FoodRepository struct {
	db      DB
	dialect Dialect
	search  KeywordSearch[*Food]
}

// NewFoodRepository creates a new food repository.
func NewFoodRepository(db DB, dialect Dialect) *FoodRepository {
	return &FoodRepository{
		db:      db,
		dialect: dialect,
		search: KeywordSearch[*Food]{
			Table:   "foods",
			Columns: foodColumns,
			Fields:  []string{"name", "description"},
			OrderBy: "name, id",
			Scan:    scanFood,
		},
	}
}

// Create inserts a food, generating its id and slug when unset.
func (r *FoodRepository) Create(ctx context.Context, food *Food) error {
	if strings.TrimSpace(food.Name) == "" {
		return fmt.Errorf("food name is required")
	}
	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}
	if food.Slug == "" {
		food.Slug = Slugify(food.Name)
	}
	food.CreatedAt = time.Now().UTC()

	query := r.dialect.Rebind(`
		INSERT INTO foods (id, name, slug, common_names, description, image_url, barcode,
			category_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		food.ID, food.Name, food.Slug, food.CommonNames, food.Description, food.ImageURL,
		food.Barcode, food.CategoryID, food.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// GetByID retrieves a food by ID.
func (r *FoodRepository) GetByID(ctx context.Context, id uuid.UUID) (*Food, error) {
	query := r.dialect.Rebind(`SELECT ` + foodColumns + ` FROM foods WHERE id = ?`)
	return r.getOne(ctx, query, id)
}

// GetByBarcode retrieves a food by its product barcode.
func (r *FoodRepository) GetByBarcode(ctx context.Context, barcode string) (*Food, error) {
	if barcode == "" {
		return nil, ErrNotFound
	}
	query := r.dialect.Rebind(`SELECT ` + foodColumns + ` FROM foods WHERE barcode = ? ORDER BY id LIMIT 1`)
	return r.getOne(ctx, query, barcode)
}

func (r *FoodRepository) getOne(ctx context.Context, query string, arg interface{}) (*Food, error) {
	food, err := scanFood(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return food, err
}

// GetBySlug retrieves a food by its URL slug.
func (r *FoodRepository) GetBySlug(ctx context.Context, slug string) (*Food, error) {
	query := r.dialect.Rebind(`SELECT ` + foodColumns + ` FROM foods WHERE slug = ?`)
	return r.getOne(ctx, query, slug)
}

// UniqueSlug returns base, or base suffixed with -1, -2, ... when base is taken.
func (r *FoodRepository) UniqueSlug(ctx context.Context, base string) (string, error) {
	query := r.dialect.Rebind(`SELECT COUNT(*) FROM foods WHERE slug = ?`)
	slug := base
	for i := 1; ; i++ {
		var n int
		if err := r.db.QueryRowContext(ctx, query, slug).Scan(&n); err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// List returns a page of foods, optionally filtered by a substring of name or
// description, together with the total number of matches.
func (r *FoodRepository) List(ctx context.Context, q string, limit, offset int) ([]*Food, int, error) {
	return r.page(ctx, q, []string{"name", "description"}, "", limit, offset)
}

// ListByCategory is List narrowed to the foods of the category with the given slug.
func (r *FoodRepository) ListByCategory(ctx context.Context, category, q string, limit, offset int) ([]*Food, int, error) {
	return r.page(ctx, q, []string{"name", "description"}, category, limit, offset)
}

// SearchNames returns a page of foods whose name or common names contain q.
func (r *FoodRepository) SearchNames(ctx context.Context, q string, limit, offset int) ([]*Food, int, error) {
	return r.page(ctx, q, []string{"name", "common_names"}, "", limit, offset)
}

func (r *FoodRepository) page(ctx context.Context, q string, fields []string, category string, limit, offset int) ([]*Food, int, error) {
	var clauses []string
	var args []interface{}
	if q = strings.TrimSpace(q); q != "" {
		conds := make([]string, 0, len(fields))
		p := containsPattern(q)
		for _, f := range fields {
			conds = append(conds, r.dialect.Lower(f)+` LIKE ? ESCAPE '\'`)
			args = append(args, p)
		}
		clauses = append(clauses, "("+strings.Join(conds, " OR ")+")")
	}
	if category != "" {
		clauses = append(clauses, `category_id IN (SELECT id FROM food_categories WHERE slug = ?)`)
		args = append(args, category)
	}
	where := ""
	if len(clauses) > 0 {
		where = ` WHERE ` + strings.Join(clauses, " AND ")
	}

	var total int
	countQuery := r.dialect.Rebind(`SELECT COUNT(*) FROM foods` + where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count foods: %w", err)
	}

	query := r.dialect.Rebind(`SELECT ` + foodColumns + ` FROM foods` + where + ` ORDER BY name, id LIMIT ? OFFSET ?`)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list foods: %w", err)
	}
	defer rows.Close()

	foods := []*Food{}
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, 0, err
		}
		foods = append(foods, food)
	}
	return foods, total, rows.Err()
}

// Search returns foods whose name or description contains any keyword.
func (r *FoodRepository) Search(ctx context.Context, keywords []string, limit int) ([]*Food, error) {
	return r.search.Run(ctx, r.db, r.dialect, keywords, limit)
}

// qualifiedFoodColumns is foodColumns prefixed with a table alias for joins.
func qualifiedFoodColumns(alias string) string {
	cols := strings.Split(foodColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanFood(row rowScanner) (*Food, error) {
	food := &Food{}
	err := row.Scan(
		&food.ID, &food.Name, &food.Slug, &food.CommonNames, &food.Description,
		&food.ImageURL, &food.Barcode, &food.CategoryID, &food.CreatedAt, &food.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return food, nil
}

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
