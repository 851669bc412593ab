package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier-api/internal/api/apperr"
	"github.com/atelierhq/atelier-api/internal/api/response"
	"github.com/atelierhq/atelier-api/internal/store"
)

type serviceRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Slug        string `json:"slug" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Icon        string `json:"icon" validate:"max=100"`
	PriceHint   string `json:"priceHint" validate:"max=100"`
	Active      bool   `json:"active"`
	SortOrder   int    `json:"sortOrder"`
}

// handleListServices handles GET /api/v1/services. Anonymous callers see
// active services only; admins see everything.
func (s *Server) handleListServices(c echo.Context) error {
	page, limit := pageParams(c)
	services, total, err := s.store.ListServices(c.Request().Context(), page, limit, !isAdmin(c))
	if err != nil {
		return err
	}
	env := response.SuccessList(s.bundle, services, total, page, limit, "services.list", Lang(c))
	return c.JSON(http.StatusOK, env)
}

// handleGetService handles GET /api/v1/services/:id (id or slug).
func (s *Server) handleGetService(c echo.Context) error {
	ctx := c.Request().Context()
	ref := c.Param("id")

	service, err := s.store.GetService(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		service, err = s.store.GetServiceBySlug(ctx, ref)
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("services.notFound")
	}
	if err != nil {
		return err
	}
	if !service.Active && !isAdmin(c) && !ownedBy(c, service.UserID) {
		return apperr.NotFound("services.notFound")
	}

	env := response.SuccessSingle(s.bundle, service, "services.found", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleCreateService handles POST /api/v1/services
func (s *Server) handleCreateService(c echo.Context) error {
	var req serviceRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := s.store.GetServiceBySlug(ctx, req.Slug); err == nil {
		return apperr.Conflict("services.slugExists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	now := time.Now().UTC()
	service := &store.Service{
		ID:          uuid.NewString(),
		UserID:      claimsFrom(c).UserID,
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Icon:        req.Icon,
		PriceHint:   req.PriceHint,
		Active:      req.Active,
		SortOrder:   req.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateService(ctx, service); err != nil {
		return err
	}

	s.events.Publish(ctx, "service", "created", service.ID, service.UserID)

	env := response.SuccessSingle(s.bundle, service, "services.created", Lang(c), true)
	return c.JSON(http.StatusCreated, env)
}

// handleUpdateService handles PUT /api/v1/services/:id
func (s *Server) handleUpdateService(c echo.Context) error {
	var req serviceRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	service, err := s.store.GetService(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("services.notFound")
	}
	if err != nil {
		return err
	}
	if !isAdmin(c) && !ownedBy(c, service.UserID) {
		return apperr.Forbidden("errors.forbidden")
	}

	if req.Slug != service.Slug {
		if _, err := s.store.GetServiceBySlug(ctx, req.Slug); err == nil {
			return apperr.Conflict("services.slugExists")
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	service.Title = req.Title
	service.Slug = req.Slug
	service.Description = req.Description
	service.Icon = req.Icon
	service.PriceHint = req.PriceHint
	service.Active = req.Active
	service.SortOrder = req.SortOrder
	if err := s.store.UpdateService(ctx, service); err != nil {
		return err
	}

	s.events.Publish(ctx, "service", "updated", service.ID, claimsFrom(c).UserID)

	env := response.SuccessSingle(s.bundle, service, "services.updated", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleDeleteService handles DELETE /api/v1/services/:id
func (s *Server) handleDeleteService(c echo.Context) error {
	ctx := c.Request().Context()
	service, err := s.store.GetService(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("services.notFound")
	}
	if err != nil {
		return err
	}
	if !isAdmin(c) && !ownedBy(c, service.UserID) {
		return apperr.Forbidden("errors.forbidden")
	}

	if err := s.store.DeleteService(ctx, service.ID); err != nil {
		return err
	}

	s.events.Publish(ctx, "service", "deleted", service.ID, claimsFrom(c).UserID)

	env := response.SuccessSingle(s.bundle, nil, "services.deleted", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}
