package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier-api/internal/api/apperr"
	"github.com/atelierhq/atelier-api/internal/api/response"
	"github.com/atelierhq/atelier-api/internal/auth"
	"github.com/atelierhq/atelier-api/internal/store"
)

type updateProfileRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Bio       string `json:"bio" validate:"max=2000"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// handleListUsers handles GET /api/v1/users
func (s *Server) handleListUsers(c echo.Context) error {
	page, limit := pageParams(c)
	users, total, err := s.store.ListUsers(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}

	views := make([]*UserView, 0, len(users))
	for _, u := range users {
		views = append(views, userView(u))
	}

	env := response.SuccessList(s.bundle, views, total, page, limit, "users.list", Lang(c))
	return c.JSON(http.StatusOK, env)
}

// handleGetUser handles GET /api/v1/users/:id
func (s *Server) handleGetUser(c echo.Context) error {
	user, err := s.store.GetUser(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("users.notFound")
	}
	if err != nil {
		return err
	}
	env := response.SuccessSingle(s.bundle, userView(user), "users.found", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleDeleteUser handles DELETE /api/v1/users/:id
func (s *Server) handleDeleteUser(c echo.Context) error {
	err := s.store.DeleteUser(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("users.notFound")
	}
	if err != nil {
		return err
	}
	env := response.SuccessSingle(s.bundle, nil, "users.deleted", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleUpdateProfile handles PUT /api/v1/users/me
func (s *Server) handleUpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := s.store.GetUser(ctx, claimsFrom(c).UserID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("users.notFound")
	}
	if err != nil {
		return err
	}

	user.Name = req.Name
	user.Bio = req.Bio
	user.AvatarURL = req.AvatarURL
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}

	env := response.SuccessSingle(s.bundle, userView(user), "users.updated", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleChangePassword handles POST /api/v1/users/me/password
func (s *Server) handleChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := s.store.GetUser(ctx, claimsFrom(c).UserID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("users.notFound")
	}
	if err != nil {
		return err
	}

	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return apperr.BadRequest("users.password.mismatch")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}

	// Changing the password revokes every open session.
	if err := s.store.DeleteUserRefreshTokens(ctx, user.ID); err != nil {
		return err
	}

	env := response.SuccessSingle(s.bundle, nil, "users.password.changed", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}
