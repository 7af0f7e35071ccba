package handlers

import (
	"net/http"

	"github.com/jsedoc/fish-rankings/cmd/foodsafety-api/middleware"
	"github.com/jsedoc/fish-rankings/internal/auth"
	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
)

// AuthHandler serves account registration and login.
type AuthHandler struct {
	logger  *observability.Logger
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(logger *observability.Logger, service *auth.Service) *AuthHandler {
	return &AuthHandler{logger: logger, service: service}
}

// RegisterRequestDTO is the body of a registration.
type RegisterRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// LoginRequestDTO is the body of a login.
type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenDTO is a bearer token grant.
type TokenDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenDTO{
		AccessToken: session.AccessToken,
		TokenType:   session.TokenType,
		ExpiresIn:   session.ExpiresIn,
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, h.logger, domain.Unauthorized("Not authenticated"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles PUT /auth/me.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, h.logger, domain.Unauthorized("Not authenticated"))
		return
	}
	var req auth.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	updated, err := h.service.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
