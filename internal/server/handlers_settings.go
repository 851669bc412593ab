package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier-api/internal/api/apperr"
	"github.com/atelierhq/atelier-api/internal/api/response"
	"github.com/atelierhq/atelier-api/internal/store"
)

type updateSettingsRequest struct {
	Values map[string]string `json:"values" validate:"required,min=1"`
}

// handleListSettings handles GET /api/v1/settings
func (s *Server) handleListSettings(c echo.Context) error {
	settings, err := s.store.ListSettings(c.Request().Context())
	if err != nil {
		return err
	}

	values := make(map[string]string, len(settings))
	for _, st := range settings {
		values[st.Key] = st.Value
	}

	env := response.SuccessSingle(s.bundle, values, "settings.found", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleGetSetting handles GET /api/v1/settings/:key
func (s *Server) handleGetSetting(c echo.Context) error {
	setting, err := s.store.GetSetting(c.Request().Context(), c.Param("key"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("settings.notFound")
	}
	if err != nil {
		return err
	}
	env := response.SuccessSingle(s.bundle, setting, "settings.found", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

// handleUpdateSettings handles PUT /api/v1/settings
func (s *Server) handleUpdateSettings(c echo.Context) error {
	var req updateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("errors.badRequest")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := s.store.UpsertSettings(c.Request().Context(), req.Values); err != nil {
		return err
	}

	env := response.SuccessSingle(s.bundle, req.Values, "settings.updated", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}
