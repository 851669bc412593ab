package server

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/atelierhq/atelier-api/internal/api/apperr"
)

// CustomValidator implements Echo's Validator interface. Field failures are
// converted to the per-field message array the error handler translates.
type CustomValidator struct {
	validator *validator.Validate
}

// NewCustomValidator creates a new custom validator.
func NewCustomValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate validates the request body.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return apperr.Validation(messages...)
}

// fieldMessage renders one field failure as a human sentence. The wording
// must stay in sync with the phrase table in the error handler.
func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " should not be empty"
	case "email":
		return field + " must be a valid email address"
	case "e164":
		return field + " must be a valid phone number"
	case "url":
		return field + " must be a valid URL address"
	case "min":
		if fe.Kind().String() == "string" {
			return field + " is too short"
		}
		return field + " is too small"
	case "max":
		if fe.Kind().String() == "string" {
			return field + " is too long"
		}
		return field + " is too large"
	case "oneof":
		return field + " is not one of the allowed values"
	case "numeric":
		return field + " must be a number"
	default:
		return fmt.Sprintf("%s failed validation on %s", field, fe.Tag())
	}
}
