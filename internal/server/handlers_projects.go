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

type projectRequest struct {
	Title     string   `json:"title" validate:"required,min=2,max=200"`
	Slug      string   `json:"slug" validate:"required,min=2,max=200"`
	Summary   string   `json:"summary" validate:"max=500"`
	Body      string   `json:"body"`
	CoverID   string   `json:"coverId"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
	SortOrder int      `json:"sortOrder"`
}

// handleListProjects handles GET /api/v1/projects. Anonymous callers see
// published projects only; admins see drafts too.
func (s *Server) handleListProjects(c echo.Context) error {
	page, limit := pageParams(c)
	projects, total, err := s.store.ListProjects(c.Request().Context(), page, limit, !isAdmin(c))
	if err != nil {
		return err
	}
	env := response.SuccessList(s.bundle, projects, total, page, limit, "projects.list", Lang(c))
	return c.JSON(http.StatusOK, env)
}

// handleGetProject handles GET /api/v1/projects/:id (id or slug).
func (s *Server) handleGetProject(c echo.Context) error {
	ctx := c.Request().Context()
	ref := c.Param("id")

	project, err := s.store.GetProject(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		project, err = s.store.GetProjectBySlug(ctx, ref)
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("projects.notFound")
	}
	if err != nil {
		return err
	}
	if !project.Published && !isAdmin(c) && !ownedBy(c, project.UserID) {
		return apperr.NotFound("projects.notFound")
	}

	env := response.SuccessSingle(s.bundle, project, "projects.found", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleCreateProject handles POST /api/v1/projects
func (s *Server) handleCreateProject(c echo.Context) error {
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := s.store.GetProjectBySlug(ctx, req.Slug); err == nil {
		return apperr.Conflict("projects.slugExists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	now := time.Now().UTC()
	project := &store.Project{
		ID:        uuid.NewString(),
		UserID:    claimsFrom(c).UserID,
		Title:     req.Title,
		Slug:      req.Slug,
		Summary:   req.Summary,
		Body:      req.Body,
		CoverID:   req.CoverID,
		Tags:      req.Tags,
		Published: req.Published,
		SortOrder: req.SortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return err
	}

	s.events.Publish(ctx, "project", "created", project.ID, project.UserID)

	env := response.SuccessSingle(s.bundle, project, "projects.created", Lang(c), true)
	return c.JSON(http.StatusCreated, env)
}

// handleUpdateProject handles PUT /api/v1/projects/:id
func (s *Server) handleUpdateProject(c echo.Context) error {
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	project, err := s.store.GetProject(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("projects.notFound")
	}
	if err != nil {
		return err
	}
	if !isAdmin(c) && !ownedBy(c, project.UserID) {
		return apperr.Forbidden("errors.forbidden")
	}

	if req.Slug != project.Slug {
		if _, err := s.store.GetProjectBySlug(ctx, req.Slug); err == nil {
			return apperr.Conflict("projects.slugExists")
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	project.Title = req.Title
	project.Slug = req.Slug
	project.Summary = req.Summary
	project.Body = req.Body
	project.CoverID = req.CoverID
	project.Tags = req.Tags
	project.Published = req.Published
	project.SortOrder = req.SortOrder
	if err := s.store.UpdateProject(ctx, project); err != nil {
		return err
	}

	s.events.Publish(ctx, "project", "updated", project.ID, claimsFrom(c).UserID)

	env := response.SuccessSingle(s.bundle, project, "projects.updated", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleDeleteProject handles DELETE /api/v1/projects/:id
func (s *Server) handleDeleteProject(c echo.Context) error {
	ctx := c.Request().Context()
	project, err := s.store.GetProject(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("projects.notFound")
	}
	if err != nil {
		return err
	}
	if !isAdmin(c) && !ownedBy(c, project.UserID) {
		return apperr.Forbidden("errors.forbidden")
	}

	if err := s.store.DeleteProject(ctx, project.ID); err != nil {
		return err
	}

	s.events.Publish(ctx, "project", "deleted", project.ID, claimsFrom(c).UserID)

	env := response.SuccessSingle(s.bundle, nil, "projects.deleted", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// ownedBy reports whether the authenticated subject owns the row.
func ownedBy(c echo.Context, userID string) bool {
	claims := claimsFrom(c)
	return claims != nil && claims.UserID == userID
}
