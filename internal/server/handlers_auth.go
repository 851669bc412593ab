package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier-api/internal/api/apperr"
	"github.com/atelierhq/atelier-api/internal/api/response"
	"github.com/atelierhq/atelier-api/internal/auth"
	"github.com/atelierhq/atelier-api/internal/store"
)

// UserView is the public shape of a user row.
type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatarUrl"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// TokenPair carries the issued credentials.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthPayload is the top-level (unwrapped) data shape of auth responses.
type AuthPayload struct {
	User   *UserView  `json:"user"`
	Tokens *TokenPair `json:"tokens"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func userView(u *store.User) *UserView {
	return &UserView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// handleRegister handles POST /api/v1/auth/register
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return apperr.Conflict("auth.register.emailExists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user := &store.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         "user",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return err
	}

	payload, err := s.issueTokens(c, user)
	if err != nil {
		return err
	}

	// Auth payloads expose user/tokens at the top level, not double-nested.
	env := response.SuccessSingle(s.bundle, payload, "auth.register.success", Lang(c), false)
	return c.JSON(http.StatusCreated, env)
}

// handleLogin handles POST /api/v1/auth/login
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Unauthorized("auth.login.invalid")
	}
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return apperr.Unauthorized("auth.login.invalid")
	}

	payload, err := s.issueTokens(c, user)
	if err != nil {
		return err
	}

	env := response.SuccessSingle(s.bundle, payload, "auth.login.success", Lang(c), false)
	return c.JSON(http.StatusOK, env)
}

// handleRefresh handles POST /api/v1/auth/refresh
func (s *Server) handleRefresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := s.store.GetRefreshToken(ctx, req.RefreshToken)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Unauthorized("auth.refresh.invalid")
	}
	if err != nil {
		return err
	}

	user, err := s.store.GetUser(ctx, token.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Unauthorized("auth.refresh.invalid")
	}
	if err != nil {
		return err
	}

	// Rotate: the presented token is single-use.
	if err := s.store.DeleteRefreshToken(ctx, token.Token); err != nil {
		return err
	}

	payload, err := s.issueTokens(c, user)
	if err != nil {
		return err
	}

	env := response.SuccessSingle(s.bundle, payload, "auth.refresh.success", Lang(c), false)
	return c.JSON(http.StatusOK, env)
}

// handleLogout handles POST /api/v1/auth/logout
func (s *Server) handleLogout(c echo.Context) error {
	claims := claimsFrom(c)
	if err := s.store.DeleteUserRefreshTokens(c.Request().Context(), claims.UserID); err != nil {
		return err
	}
	env := response.SuccessSingle(s.bundle, nil, "auth.logout.success", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleMe handles GET /api/v1/auth/me
func (s *Server) handleMe(c echo.Context) error {
	claims := claimsFrom(c)
	user, err := s.store.GetUser(c.Request().Context(), claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("users.notFound")
	}
	if err != nil {
		return err
	}
	env := response.SuccessSingle(s.bundle, userView(user), "users.found", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

func (s *Server) issueTokens(c echo.Context, user *store.User) (*AuthPayload, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	refresh, err := auth.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	err = s.store.CreateRefreshToken(c.Request().Context(), &store.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.tokens.RefreshTTL()),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	return &AuthPayload{
		User:   userView(user),
		Tokens: &TokenPair{AccessToken: access, RefreshToken: refresh},
	}, nil
}
