package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// langContextKey is where the resolved locale is stored on the request
// context.
const langContextKey = "lang"

// defaultLang is used when the request carries no locale header.
const defaultLang = "en"

// ResolveLang extracts the request's target locale from the
// Accept-Language header. The raw header value flows through unvalidated;
// unknown locales are handled by the translation bundle's fallback.
func ResolveLang(r *http.Request) string {
	if lang := r.Header.Get("Accept-Language"); lang != "" {
		return lang
	}
	return defaultLang
}

// LanguageMiddleware stores the resolved locale on the request context.
func LanguageMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(langContextKey, ResolveLang(c.Request()))
			return next(c)
		}
	}
}

// Lang returns the locale resolved for this request.
func Lang(c echo.Context) string {
	if lang, ok := c.Get(langContextKey).(string); ok && lang != "" {
		return lang
	}
	return defaultLang
}
