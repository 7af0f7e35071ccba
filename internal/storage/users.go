package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const userColumns = `id, email, hashed_password, full_name, is_active, is_verified, created_at`

// UserRepository handles user account persistence.
type UserRepository struct {
	db      DB
	dialect Dialect
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db DB, dialect Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: dialect}
}

// Create inserts a user. Emails are stored lower-cased; duplicates return ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now().UTC()

	query := r.dialect.Rebind(`
		INSERT INTO users (id, email, hashed_password, full_name, is_active, is_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.HashedPassword, user.FullName,
		user.IsActive, user.IsVerified, user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := r.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	return r.getOne(ctx, query, strings.ToLower(strings.TrimSpace(email)))
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := r.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	user := &User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.HashedPassword, &user.FullName,
		&user.IsActive, &user.IsVerified, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UserUpdate holds the fields of a profile update. Nil fields are left unchanged.
type UserUpdate struct {
	Email          *string
	HashedPassword *string
	FullName       *string
}

// Update applies u to a user and returns the stored row. A taken email returns ErrConflict.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, u UserUpdate) (*User, error) {
	var sets []string
	var args []interface{}
	if u.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(*u.Email)))
	}
	if u.HashedPassword != nil {
		sets = append(sets, "hashed_password = ?")
		args = append(args, *u.HashedPassword)
	}
	if u.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, *u.FullName)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	query := r.dialect.Rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, append(args, id)...)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err := affectedOne(res, err); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
