package server

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier-api/internal/api/apperr"
	"github.com/atelierhq/atelier-api/internal/api/response"
)

// validationPhraseKeys maps known validator sentence fragments to
// translation keys. Matching is by substring against exact English
// phrasings, so it silently stops matching if the validator wording in
// validator.go changes. Mapping failure is cosmetic: the original phrase is
// kept.
var validationPhraseKeys = []struct {
	phrase string
	key    string
}{
	{"must be a valid phone number", "validation.isPhoneNumber"},
	{"must be a valid email address", "validation.isEmail"},
	{"must be a valid URL address", "validation.isUrl"},
	{"should not be empty", "validation.isNotEmpty"},
	{"must be a string", "validation.isString"},
	{"must be a number", "validation.isNumber"},
	{"is too short", "validation.minLength"},
	{"is too long", "validation.maxLength"},
	{"is too small", "validation.min"},
	{"is too large", "validation.max"},
	{"is not one of the allowed values", "validation.isIn"},
}

// HTTPErrorHandler is the last line of defense at the HTTP boundary: it
// classifies every error that escapes a handler, translates the message,
// redacts internals in production, logs, and writes the error envelope.
// No endpoint can return an unformatted error past this point.
func (s *Server) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	lang := Lang(c)
	status := http.StatusInternalServerError
	message := ""
	detail := ""

	var valErr *apperr.ValidationError
	var appErr *apperr.Error
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &valErr):
		status = http.StatusBadRequest
		message = strings.Join(s.translateValidation(valErr.Messages, lang), ", ")

	case errors.As(err, &appErr):
		status = appErr.Status
		message = appErr.Message
		detail = appErr.Detail

	case errors.As(err, &httpErr):
		status = httpErr.Code
		if m, ok := httpErr.Message.(string); ok && m != "" {
			message = m
		} else {
			message = "errors.internal"
		}
		if httpErr.Internal != nil {
			detail = httpErr.Internal.Error()
		}

	default:
		message = err.Error()
		detail = string(debug.Stack())
	}

	// Internal errors never leak their real message to production clients.
	// Deliberate non-500 statuses are client-facing signals and pass through.
	if status == http.StatusInternalServerError && s.cfg.Production() {
		message = "errors.internal"
		detail = ""
	}

	env := response.Error(s.bundle, message, lang)

	evt := s.logger.Error().
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Int("status", status).
		Str("message", env.Message)
	if detail != "" {
		evt = evt.Str("detail", detail)
	}
	evt.Msg("Request failed")

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, env)
	}
	if writeErr != nil {
		s.logger.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

// translateValidation maps each validator sentence independently through
// the phrase table, preserving order. Unmatched or untranslated phrases
// fall back to the original validator text.
func (s *Server) translateValidation(messages []string, lang string) []string {
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		out = append(out, s.translateValidationMessage(msg, lang))
	}
	return out
}

func (s *Server) translateValidationMessage(msg, lang string) string {
	for _, entry := range validationPhraseKeys {
		if strings.Contains(msg, entry.phrase) {
			if translated := s.bundle.Translate(entry.key, lang); translated != entry.key {
				return translated
			}
			return msg
		}
	}
	return msg
}
