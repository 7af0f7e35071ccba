package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// ErrInvalidCredentials is returned when login fails for any reason.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user *storage.User) error
	GetByEmail(ctx context.Context, email string) (*storage.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*storage.User, error)
	Update(ctx context.Context, id uuid.UUID, u storage.UserUpdate) (*storage.User, error)
}

// ProfileUpdate holds the optional fields of a profile change.
type ProfileUpdate struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	FullName *string `json:"full_name,omitempty"`
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	User        *storage.User
}

// Service implements registration and login.
type Service struct {
	logger *observability.Logger
	users  UserStore
	tokens *TokenManager
}

// NewService creates an account service.
func NewService(logger *observability.Logger, users UserStore, tokens *TokenManager) *Service {
	return &Service{logger: logger, users: users, tokens: tokens}
}

// Tokens returns the token manager used by the service.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Register creates an active account.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*storage.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return nil, domain.InvalidInput("A valid email address is required")
	}
	if len(password) < MinPasswordLength {
		return nil, domain.InvalidInput(fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, domain.NewError(domain.KindInternal, "could not hash password", err)
	}

	user := &storage.User{Email: email, HashedPassword: hash, FullName: fullName, IsActive: true}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, domain.Conflict("Email already registered")
		}
		return nil, domain.NewError(domain.KindInternal, "could not create user", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.NewError(domain.KindUnauthorized, ErrInvalidCredentials.Error(), ErrInvalidCredentials)
	}
	if err != nil {
		return nil, domain.NewError(domain.KindInternal, "could not load user", err)
	}
	if !CheckPassword(user.HashedPassword, password) {
		return nil, domain.NewError(domain.KindUnauthorized, ErrInvalidCredentials.Error(), ErrInvalidCredentials)
	}
	if !user.IsActive {
		return nil, domain.Unauthorized("Inactive user")
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, domain.NewError(domain.KindInternal, "could not issue token", err)
	}
	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        user,
	}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*storage.User, error) {
	identity, err := s.tokens.Parse(token)
	if err != nil {
		return nil, domain.Unauthorized("Could not validate credentials")
	}
	user, err := s.users.GetByID(ctx, identity.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.Unauthorized("Could not validate credentials")
	}
	if err != nil {
		return nil, domain.NewError(domain.KindInternal, "could not load user", err)
	}
	if !user.IsActive {
		return nil, domain.Unauthorized("Inactive user")
	}
	return user, nil
}

// UpdateProfile changes a user's email, password or name.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, p ProfileUpdate) (*storage.User, error) {
	var u storage.UserUpdate
	if p.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*p.Email))
		if !strings.Contains(email, "@") {
			return nil, domain.InvalidInput("A valid email address is required")
		}
		u.Email = &email
	}
	if p.Password != nil {
		if len(*p.Password) < MinPasswordLength {
			return nil, domain.InvalidInput(fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
		}
		hash, err := HashPassword(*p.Password)
		if err != nil {
			return nil, domain.NewError(domain.KindInternal, "could not hash password", err)
		}
		u.HashedPassword = &hash
	}
	u.FullName = p.FullName

	user, err := s.users.Update(ctx, userID, u)
	switch {
	case errors.Is(err, storage.ErrConflict):
		return nil, domain.Conflict("Email already in use")
	case errors.Is(err, storage.ErrNotFound):
		return nil, domain.NotFound("User not found")
	case err != nil:
		return nil, domain.NewError(domain.KindInternal, "could not update user", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("User profile updated")
	return user, nil
}
