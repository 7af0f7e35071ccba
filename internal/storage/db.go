// Package storage provides database models and repositories for the food safety platform.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Dialect selects SQL syntax differences between the supported databases.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// sqliteDriverName is go-sqlite3 with a Unicode-aware ulower function;
// SQLite's built-in LOWER only folds ASCII.
const sqliteDriverName = "sqlite3_foodsafety"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("ulower", strings.ToLower, true)
		},
	})
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return sqliteDriverName
}

// Lower wraps a text expression in the dialect's Unicode-aware lower-case function.
func (d Dialect) Lower(expr string) string {
	if d == DialectPostgres {
		return "LOWER(" + expr + ")"
	}
	return "ulower(" + expr + ")"
}

// Rebind rewrites '?' placeholders into the dialect's positional form.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// PoolConfig holds connection pool limits. Zero values keep driver defaults.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens and pings a database for the given dialect.
func Open(ctx context.Context, dialect Dialect, dsn string, pool PoolConfig) (*sql.DB, error) {
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	// every connection to :memory: is a separate database
	if dialect == DialectSQLite && strings.Contains(dsn, ":memory:") {
		pool.MaxOpenConns = 1
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return db, nil
}

// Store bundles the repositories over one database.
type Store struct {
	Foods      *FoodRepository
	Recalls    *RecallRepository
	Advisories *AdvisoryRepository
	Users      *UserRepository
	Categories *CategoryRepository
	SavedFoods *SavedFoodRepository
	MealPlans  *MealPlanRepository
}

// NewStore creates all repositories for db.
func NewStore(db DB, dialect Dialect) *Store {
	return &Store{
		Foods:      NewFoodRepository(db, dialect),
		Recalls:    NewRecallRepository(db, dialect),
		Advisories: NewAdvisoryRepository(db, dialect),
		Users:      NewUserRepository(db, dialect),
		Categories: NewCategoryRepository(db, dialect),
		SavedFoods: NewSavedFoodRepository(db, dialect),
		MealPlans:  NewMealPlanRepository(db, dialect),
	}
}

// isUniqueViolation reports whether err is a unique constraint failure on either driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
