package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier-api/internal/api/apperr"
	"github.com/atelierhq/atelier-api/internal/api/response"
	"github.com/atelierhq/atelier-api/internal/store"
)

type contactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,e164"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,min=2,max=5000"`
}

// handleCreateContact handles POST /api/v1/contacts, the public contact
// form.
func (s *Server) handleCreateContact(c echo.Context) error {
	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	contact := &store.Contact{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateContact(ctx, contact); err != nil {
		return err
	}

	s.events.Publish(ctx, "contact", "created", contact.ID, "")
	s.forwardContact(contact)

	env := response.SuccessSingle(s.bundle, contact, "contacts.created", Lang(c), true)
	return c.JSON(http.StatusCreated, env)
}

// handleListContacts handles GET /api/v1/contacts
func (s *Server) handleListContacts(c echo.Context) error {
	page, limit := pageParams(c)
	contacts, total, err := s.store.ListContacts(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	env := response.SuccessList(s.bundle, contacts, total, page, limit, "contacts.list", Lang(c))
	return c.JSON(http.StatusOK, env)
}

// handleGetContact handles GET /api/v1/contacts/:id
func (s *Server) handleGetContact(c echo.Context) error {
	contact, err := s.store.GetContact(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("contacts.notFound")
	}
	if err != nil {
		return err
	}
	env := response.SuccessSingle(s.bundle, contact, "contacts.found", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleMarkContactRead handles POST /api/v1/contacts/:id/read
func (s *Server) handleMarkContactRead(c echo.Context) error {
	err := s.store.MarkContactRead(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("contacts.notFound")
	}
	if err != nil {
		return err
	}
	env := response.SuccessSingle(s.bundle, nil, "contacts.read", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleDeleteContact handles DELETE /api/v1/contacts/:id
func (s *Server) handleDeleteContact(c echo.Context) error {
	err := s.store.DeleteContact(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("contacts.notFound")
	}
	if err != nil {
		return err
	}
	env := response.SuccessSingle(s.bundle, nil, "contacts.deleted", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// forwardContact posts the message to the configured notification webhook.
// Best-effort: failures are logged, the form submission already succeeded.
func (s *Server) forwardContact(contact *store.Contact) {
	url := s.cfg.Contact.WebhookURL
	if url == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := s.webhook.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(contact).
			Post(url)
		if err != nil {
			s.logger.Warn().Err(err).Str("contact", contact.ID).Msg("Contact webhook failed")
			return
		}
		if resp.IsError() {
			s.logger.Warn().Int("status", resp.StatusCode()).Str("contact", contact.ID).Msg("Contact webhook rejected")
		}
	}()
}
