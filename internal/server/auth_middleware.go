package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/atelierhq/atelier-api/internal/api/apperr"
	"github.com/atelierhq/atelier-api/internal/api/response"
	"github.com/atelierhq/atelier-api/internal/auth"
)

const claimsContextKey = "claims"

// OptionalAuthMiddleware parses an access token when one is present and
// stores the claims on the context. Requests without a token pass through;
// routes that need authentication enforce it via RequireAuth.
func (s *Server) OptionalAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c.Request())
		if token == "" {
			return next(c)
		}
		claims, err := s.tokens.VerifyAccessToken(token)
		if err != nil {
			return apperr.Unauthorized("auth.token.invalid")
		}
		c.Set(claimsContextKey, claims)
		return next(c)
	}
}

// RequireAuth rejects requests that did not present a valid access token.
func (s *Server) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claimsFrom(c) == nil {
			return apperr.Unauthorized("auth.token.missing")
		}
		return next(c)
	}
}

// RequireAdmin rejects authenticated requests whose subject is not an
// admin.
func (s *Server) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return s.RequireAuth(func(c echo.Context) error {
		if claimsFrom(c).Role != "admin" {
			return apperr.Forbidden("errors.forbidden")
		}
		return next(c)
	})
}

// claimsFrom returns the verified claims for this request, or nil.
func claimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsContextKey).(*auth.Claims)
	return claims
}

// isAdmin reports whether the request is made by an authenticated admin.
func isAdmin(c echo.Context) bool {
	claims := claimsFrom(c)
	return claims != nil && claims.Role == "admin"
}

// RateLimitMiddleware returns a middleware that limits requests per IP.
func (s *Server) RateLimitMiddleware() echo.MiddlewareFunc {
	if !s.cfg.RateLimit.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	rps := s.cfg.RateLimit.RPS
	if rps <= 0 {
		rps = 10 // Default RPS
	}
	burst := s.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 20 // Default Burst
	}

	deny := func(c echo.Context, _ string, _ error) error {
		env := response.Error(s.bundle, "errors.tooManyRequests", Lang(c))
		return c.JSON(http.StatusTooManyRequests, env)
	}

	config := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:  rate.Limit(rps),
				Burst: burst,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return deny(c, "", err)
		},
		DenyHandler: deny,
	}

	return middleware.RateLimiterWithConfig(config)
}

func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
