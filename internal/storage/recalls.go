package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const recallColumns = `id, recall_number, product_description, reason_for_recall, classification,
	company_name, status, city, state, country, distribution_pattern, product_quantity, event_id,
	recall_date, report_date, created_at`

const recallOrder = "recall_date DESC, recall_number"

// RecallFilter narrows a recall listing.
type RecallFilter struct {
	Classification Classification
	State          string
	Status         string
	Since          *time.Time
	Skip           int
	Limit          int
}

// RecallStats summarizes recalls over a period.
type RecallStats struct {
	PeriodDays       int            `json:"period_days"`
	TotalRecalls     int            `json:"total_recalls"`
	ByClassification map[string]int `json:"by_classification"`
	ByStatus         map[string]int `json:"by_status"`
	TopStates        map[string]int `json:"top_states"`
	CriticalRecalls  int            `json:"critical_recalls"`
}

// RecallRepository handles recall persistence and search.
type RecallRepository struct {
	db      DB
	dialect Dialect
	search  KeywordSearch[*Recall]
	now     func() time.Time
}

// NewRecallRepository creates a new recall repository.
func NewRecallRepository(db DB, dialect Dialect) *RecallRepository {
	return &RecallRepository{
		db:      db,
		dialect: dialect,
		search: KeywordSearch[*Recall]{
			Table:   "food_recalls",
			Columns: recallColumns,
			Fields:  []string{"product_description", "reason_for_recall"},
			OrderBy: recallOrder,
			Scan:    scanRecall,
		},
		now: time.Now,
	}
}

// Upsert inserts a recall or updates the existing row with the same recall
// number. It reports whether a new row was created.
func (r *RecallRepository) Upsert(ctx context.Context, recall *Recall) (bool, error) {
	if recall.RecallNumber == "" {
		return false, fmt.Errorf("recall number is required")
	}

	existing, err := r.GetByNumber(ctx, recall.RecallNumber)
	switch {
	case errors.Is(err, ErrNotFound):
		return true, r.insert(ctx, recall)
	case err != nil:
		return false, err
	}

	recall.ID = existing.ID
	recall.CreatedAt = existing.CreatedAt
	query := r.dialect.Rebind(`
		UPDATE food_recalls SET product_description = ?, reason_for_recall = ?, classification = ?,
			company_name = ?, status = ?, city = ?, state = ?, country = ?, distribution_pattern = ?,
			product_quantity = ?, event_id = ?, recall_date = ?, report_date = ?
		WHERE recall_number = ?
	`)
	_, err = r.db.ExecContext(ctx, query,
		recall.ProductDescription, recall.ReasonForRecall, string(recall.Classification),
		recall.CompanyName, recall.Status, recall.City, recall.State, recall.Country,
		recall.DistributionPattern, recall.ProductQuantity, recall.EventID,
		utc(recall.RecallDate), utc(recall.ReportDate), recall.RecallNumber,
	)
	return false, err
}

func (r *RecallRepository) insert(ctx context.Context, recall *Recall) error {
	if recall.ID == uuid.Nil {
		recall.ID = uuid.New()
	}
	recall.CreatedAt = r.now().UTC()

	query := r.dialect.Rebind(`
		INSERT INTO food_recalls (id, recall_number, product_description, reason_for_recall,
			classification, company_name, status, city, state, country, distribution_pattern,
			product_quantity, event_id, recall_date, report_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		recall.ID, recall.RecallNumber, recall.ProductDescription, recall.ReasonForRecall,
		string(recall.Classification), recall.CompanyName, recall.Status, recall.City,
		recall.State, recall.Country, recall.DistributionPattern, recall.ProductQuantity,
		recall.EventID, utc(recall.RecallDate), utc(recall.ReportDate), recall.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// GetByNumber retrieves a recall by its FDA recall number.
func (r *RecallRepository) GetByNumber(ctx context.Context, number string) (*Recall, error) {
	query := r.dialect.Rebind(`SELECT ` + recallColumns + ` FROM food_recalls WHERE recall_number = ?`)
	recall, err := scanRecall(r.db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return recall, err
}

// List returns a filtered page of recalls, newest first, and the total match count.
func (r *RecallRepository) List(ctx context.Context, f RecallFilter) ([]*Recall, int, error) {
	var conds []string
	var args []interface{}
	if f.Classification != "" {
		conds = append(conds, "classification = ?")
		args = append(args, string(f.Classification))
	}
	if f.State != "" {
		conds = append(conds, "state = ?")
		args = append(args, strings.ToUpper(f.State))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Since != nil {
		conds = append(conds, "recall_date >= ?")
		args = append(args, f.Since.UTC())
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := r.dialect.Rebind(`SELECT COUNT(*) FROM food_recalls` + where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recalls: %w", err)
	}

	query := `SELECT ` + recallColumns + ` FROM food_recalls` + where + ` ORDER BY ` + recallOrder + ` LIMIT ? OFFSET ?`
	recalls, err := r.query(ctx, query, append(args, f.Limit, f.Skip)...)
	if err != nil {
		return nil, 0, err
	}
	return recalls, total, nil
}

// Recent returns recalls dated within the last days days.
func (r *RecallRepository) Recent(ctx context.Context, days, limit int) ([]*Recall, error) {
	since := r.now().UTC().AddDate(0, 0, -days)
	query := `SELECT ` + recallColumns + ` FROM food_recalls WHERE recall_date >= ? ORDER BY ` + recallOrder + ` LIMIT ?`
	return r.query(ctx, query, since, limit)
}

// Critical returns Class I recalls, newest first.
func (r *RecallRepository) Critical(ctx context.Context, limit int) ([]*Recall, error) {
	query := `SELECT ` + recallColumns + ` FROM food_recalls WHERE classification = ? ORDER BY ` + recallOrder + ` LIMIT ?`
	return r.query(ctx, query, string(ClassI), limit)
}

// SearchText matches q against product description, company name and reason.
func (r *RecallRepository) SearchText(ctx context.Context, q string, limit int) ([]*Recall, error) {
	s := r.search
	s.Fields = []string{"product_description", "company_name", "reason_for_recall"}
	return s.Run(ctx, r.db, r.dialect, []string{q}, limit)
}

// Search returns recalls whose product description or reason contains any keyword.
func (r *RecallRepository) Search(ctx context.Context, keywords []string, limit int) ([]*Recall, error) {
	return r.search.Run(ctx, r.db, r.dialect, keywords, limit)
}

// Stats computes recall counts over the last days days.
func (r *RecallRepository) Stats(ctx context.Context, days int) (*RecallStats, error) {
	since := r.now().UTC().AddDate(0, 0, -days)
	query := r.dialect.Rebind(`SELECT classification, status, state FROM food_recalls WHERE recall_date >= ?`)
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("recall stats: %w", err)
	}
	defer rows.Close()

	stats := &RecallStats{
		PeriodDays:       days,
		ByClassification: map[string]int{string(ClassI): 0, string(ClassII): 0, string(ClassIII): 0},
		ByStatus:         map[string]int{},
		TopStates:        map[string]int{},
	}
	states := map[string]int{}
	for rows.Next() {
		var class, status, state string
		if err := rows.Scan(&class, &status, &state); err != nil {
			return nil, err
		}
		stats.TotalRecalls++
		if _, ok := stats.ByClassification[class]; ok {
			stats.ByClassification[class]++
		}
		if status == "" {
			status = "Unknown"
		}
		stats.ByStatus[status]++
		if state != "" {
			states[state]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, kv := range topN(states, 10) {
		stats.TopStates[kv.key] = kv.count
	}
	stats.CriticalRecalls = stats.ByClassification[string(ClassI)]
	return stats, nil
}

func (r *RecallRepository) query(ctx context.Context, query string, args ...interface{}) ([]*Recall, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query recalls: %w", err)
	}
	defer rows.Close()

	recalls := []*Recall{}
	for rows.Next() {
		recall, err := scanRecall(rows)
		if err != nil {
			return nil, err
		}
		recalls = append(recalls, recall)
	}
	return recalls, rows.Err()
}

func scanRecall(row rowScanner) (*Recall, error) {
	recall := &Recall{}
	var class string
	err := row.Scan(
		&recall.ID, &recall.RecallNumber, &recall.ProductDescription, &recall.ReasonForRecall,
		&class, &recall.CompanyName, &recall.Status, &recall.City, &recall.State,
		&recall.Country, &recall.DistributionPattern, &recall.ProductQuantity, &recall.EventID,
		&recall.RecallDate, &recall.ReportDate, &recall.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	recall.Classification = Classification(class)
	return recall, nil
}

type keyCount struct {
	key   string
	count int
}

// topN returns the n largest counts, ties broken by key.
func topN(counts map[string]int, n int) []keyCount {
	out := make([]keyCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, keyCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// utc normalizes stored timestamps so text comparison in SQLite orders correctly.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
