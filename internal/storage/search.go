package storage

import (
	"context"
	"fmt"
	"strings"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// KeywordSearch describes a substring search over one table.
type KeywordSearch[T any] struct {
	Table   string
	Columns string   // select list
	Fields  []string // searchable text columns
	OrderBy string
	Scan    func(rowScanner) (T, error)
}

// Run returns the rows where any keyword appears, case-insensitively, in any
// searchable field, capped at limit. No query is issued for empty keywords.
func (s KeywordSearch[T]) Run(ctx context.Context, db DB, dialect Dialect, keywords []string, limit int) ([]T, error) {
	if len(keywords) == 0 || limit <= 0 {
		return []T{}, nil
	}

	conds := make([]string, 0, len(keywords)*len(s.Fields))
	args := make([]interface{}, 0, len(keywords)*len(s.Fields)+1)
	for _, kw := range keywords {
		pattern := containsPattern(kw)
		for _, field := range s.Fields {
			conds = append(conds, dialect.Lower("COALESCE("+field+", '')")+` LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
	}
	args = append(args, limit)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", s.Columns, s.Table, strings.Join(conds, " OR "))
	if s.OrderBy != "" {
		query += " ORDER BY " + s.OrderBy
	}
	query += " LIMIT ?"

	rows, err := db.QueryContext(ctx, dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.Table, err)
	}
	defer rows.Close()

	results := []T{}
	for rows.Next() {
		item, err := s.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.Table, err)
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// escapeLike escapes LIKE wildcards so a keyword matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// containsPattern builds a literal substring LIKE pattern.
func containsPattern(s string) string {
	return "%" + escapeLike(strings.ToLower(s)) + "%"
}
