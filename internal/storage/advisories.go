package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const advisoryColumns = `id, state_code, state_name, waterbody_name, fish_species, contaminant_type,
	advisory_text, consumption_limit, advisory_level, effective_date, created_at`

const advisoryOrder = "state_name, fish_species, id"

// AdvisoryRepository handles state fish advisory persistence and search.
type AdvisoryRepository struct {
	db      DB
	dialect Dialect
	search  KeywordSearch[*Advisory]
}

// NewAdvisoryRepository creates a new advisory repository.
func NewAdvisoryRepository(db DB, dialect Dialect) *AdvisoryRepository {
	return &AdvisoryRepository{
		db:      db,
		dialect: dialect,
		search: KeywordSearch[*Advisory]{
			Table:   "state_advisories",
			Columns: advisoryColumns,
			Fields:  []string{"fish_species", "waterbody_name", "advisory_text"},
			OrderBy: advisoryOrder,
			Scan:    scanAdvisory,
		},
	}
}

// Create inserts an advisory.
func (r *AdvisoryRepository) Create(ctx context.Context, a *Advisory) error {
	if strings.TrimSpace(a.FishSpecies) == "" {
		return fmt.Errorf("advisory fish species is required")
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.StateCode = strings.ToUpper(a.StateCode)
	a.CreatedAt = time.Now().UTC()

	query := r.dialect.Rebind(`
		INSERT INTO state_advisories (id, state_code, state_name, waterbody_name, fish_species,
			contaminant_type, advisory_text, consumption_limit, advisory_level, effective_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.StateCode, a.StateName, a.WaterbodyName, a.FishSpecies, a.ContaminantType,
		a.AdvisoryText, a.ConsumptionLimit, a.AdvisoryLevel, utc(a.EffectiveDate), a.CreatedAt,
	)
	return err
}

// ListByState returns advisories for a state code, or all states when code is empty.
func (r *AdvisoryRepository) ListByState(ctx context.Context, stateCode string, limit int) ([]*Advisory, error) {
	where := ""
	var args []interface{}
	if stateCode != "" {
		where = " WHERE state_code = ?"
		args = append(args, strings.ToUpper(stateCode))
	}
	query := r.dialect.Rebind(`SELECT ` + advisoryColumns + ` FROM state_advisories` + where +
		` ORDER BY ` + advisoryOrder + ` LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("list advisories: %w", err)
	}
	defer rows.Close()

	advisories := []*Advisory{}
	for rows.Next() {
		a, err := scanAdvisory(rows)
		if err != nil {
			return nil, err
		}
		advisories = append(advisories, a)
	}
	return advisories, rows.Err()
}

// Search returns advisories whose species, waterbody or advisory text contains any keyword.
func (r *AdvisoryRepository) Search(ctx context.Context, keywords []string, limit int) ([]*Advisory, error) {
	return r.search.Run(ctx, r.db, r.dialect, keywords, limit)
}

func scanAdvisory(row rowScanner) (*Advisory, error) {
	a := &Advisory{}
	err := row.Scan(
		&a.ID, &a.StateCode, &a.StateName, &a.WaterbodyName, &a.FishSpecies, &a.ContaminantType,
		&a.AdvisoryText, &a.ConsumptionLimit, &a.AdvisoryLevel, &a.EffectiveDate, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
