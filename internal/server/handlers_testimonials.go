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

type testimonialRequest struct {
	Author   string `json:"author" validate:"required,min=2,max=200"`
	Company  string `json:"company" validate:"max=200"`
	Quote    string `json:"quote" validate:"required,min=2,max=2000"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Approved bool   `json:"approved"`
}

// handleListTestimonials handles GET /api/v1/testimonials. Anonymous
// callers see approved quotes only.
func (s *Server) handleListTestimonials(c echo.Context) error {
	page, limit := pageParams(c)
	testimonials, total, err := s.store.ListTestimonials(c.Request().Context(), page, limit, !isAdmin(c))
	if err != nil {
		return err
	}
	env := response.SuccessList(s.bundle, testimonials, total, page, limit, "testimonials.list", Lang(c))
	return c.JSON(http.StatusOK, env)
}

// handleGetTestimonial handles GET /api/v1/testimonials/:id
func (s *Server) handleGetTestimonial(c echo.Context) error {
	testimonial, err := s.store.GetTestimonial(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("testimonials.notFound")
	}
	if err != nil {
		return err
	}
	if !testimonial.Approved && !isAdmin(c) && !ownedBy(c, testimonial.UserID) {
		return apperr.NotFound("testimonials.notFound")
	}

	env := response.SuccessSingle(s.bundle, testimonial, "testimonials.found", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleCreateTestimonial handles POST /api/v1/testimonials
func (s *Server) handleCreateTestimonial(c echo.Context) error {
	var req testimonialRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()
	testimonial := &store.Testimonial{
		ID:        uuid.NewString(),
		UserID:    claimsFrom(c).UserID,
		Author:    req.Author,
		Company:   req.Company,
		Quote:     req.Quote,
		Rating:    req.Rating,
		Approved:  req.Approved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTestimonial(ctx, testimonial); err != nil {
		return err
	}

	s.events.Publish(ctx, "testimonial", "created", testimonial.ID, testimonial.UserID)

	env := response.SuccessSingle(s.bundle, testimonial, "testimonials.created", Lang(c), true)
	return c.JSON(http.StatusCreated, env)
}

// handleUpdateTestimonial handles PUT /api/v1/testimonials/:id
func (s *Server) handleUpdateTestimonial(c echo.Context) error {
	var req testimonialRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	testimonial, err := s.store.GetTestimonial(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("testimonials.notFound")
	}
	if err != nil {
		return err
	}
	if !isAdmin(c) && !ownedBy(c, testimonial.UserID) {
		return apperr.Forbidden("errors.forbidden")
	}

	testimonial.Author = req.Author
	testimonial.Company = req.Company
	testimonial.Quote = req.Quote
	testimonial.Rating = req.Rating
	testimonial.Approved = req.Approved
	if err := s.store.UpdateTestimonial(ctx, testimonial); err != nil {
		return err
	}

	s.events.Publish(ctx, "testimonial", "updated", testimonial.ID, claimsFrom(c).UserID)

	env := response.SuccessSingle(s.bundle, testimonial, "testimonials.updated", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleDeleteTestimonial handles DELETE /api/v1/testimonials/:id
func (s *Server) handleDeleteTestimonial(c echo.Context) error {
	ctx := c.Request().Context()
	testimonial, err := s.store.GetTestimonial(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("testimonials.notFound")
	}
	if err != nil {
		return err
	}
	if !isAdmin(c) && !ownedBy(c, testimonial.UserID) {
		return apperr.Forbidden("errors.forbidden")
	}

	if err := s.store.DeleteTestimonial(ctx, testimonial.ID); err != nil {
		return err
	}

	s.events.Publish(ctx, "testimonial", "deleted", testimonial.ID, claimsFrom(c).UserID)

	env := response.SuccessSingle(s.bundle, nil, "testimonials.deleted", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}
