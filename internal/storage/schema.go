package storage

import (
	"context"
	"fmt"
	"strings"
)

// schemaStatements creates the tables the platform reads and writes.
// {{uuid}} and {{serial}} are replaced per dialect.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS foods (
		id {{uuid}} PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		common_names TEXT NOT NULL DEFAULT '[]',
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		barcode TEXT NOT NULL DEFAULT '',
		category_id INTEGER,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_foods_barcode ON foods (barcode)`,
	`CREATE TABLE IF NOT EXISTS food_recalls (
		id {{uuid}} PRIMARY KEY,
		recall_number TEXT NOT NULL UNIQUE,
		product_description TEXT NOT NULL DEFAULT '',
		reason_for_recall TEXT NOT NULL DEFAULT '',
		classification TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		distribution_pattern TEXT NOT NULL DEFAULT '',
		product_quantity TEXT NOT NULL DEFAULT '',
		event_id TEXT NOT NULL DEFAULT '',
		recall_date TIMESTAMP,
		report_date TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_food_recalls_recall_date ON food_recalls (recall_date)`,
	`CREATE TABLE IF NOT EXISTS state_advisories (
		id {{uuid}} PRIMARY KEY,
		state_code TEXT NOT NULL,
		state_name TEXT NOT NULL DEFAULT '',
		waterbody_name TEXT NOT NULL DEFAULT '',
		fish_species TEXT NOT NULL,
		contaminant_type TEXT NOT NULL DEFAULT '',
		advisory_text TEXT NOT NULL DEFAULT '',
		consumption_limit TEXT NOT NULL DEFAULT '',
		advisory_level TEXT NOT NULL DEFAULT '',
		effective_date TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_state_advisories_state ON state_advisories (state_code)`,
	`CREATE TABLE IF NOT EXISTS users (
		id {{uuid}} PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS food_categories (
		id {{serial}},
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		parent_id INTEGER REFERENCES food_categories (id),
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS saved_foods (
		id {{uuid}} PRIMARY KEY,
		user_id {{uuid}} NOT NULL REFERENCES users (id),
		food_id {{uuid}} NOT NULL REFERENCES foods (id),
		notes TEXT NOT NULL DEFAULT '',
		saved_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, food_id)
	)`,
	`CREATE TABLE IF NOT EXISTS meal_plans (
		id {{uuid}} PRIMARY KEY,
		user_id {{uuid}} NOT NULL REFERENCES users (id),
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		plan_date TIMESTAMP,
		meal_type TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meal_plans_user ON meal_plans (user_id)`,
	`CREATE TABLE IF NOT EXISTS meal_plan_foods (
		id {{uuid}} PRIMARY KEY,
		meal_plan_id {{uuid}} NOT NULL REFERENCES meal_plans (id),
		food_id {{uuid}} NOT NULL REFERENCES foods (id),
		serving_size TEXT NOT NULL DEFAULT '',
		servings REAL NOT NULL DEFAULT 1,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
}

// EnsureSchema creates any missing tables. It is a development and test
// bootstrap; it never alters existing tables.
func EnsureSchema(ctx context.Context, db DB, dialect Dialect) error {
	uuidType, serialType := "TEXT", "INTEGER PRIMARY KEY AUTOINCREMENT"
	if dialect == DialectPostgres {
		uuidType, serialType = "UUID", "SERIAL PRIMARY KEY"
	}

	for _, stmt := range schemaStatements {
		stmt = strings.NewReplacer("{{uuid}}", uuidType, "{{serial}}", serialType).Replace(stmt)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
