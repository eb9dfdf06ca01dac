package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/miva-edu/mind-analytics/backend/internal/auth"
)

const claimsContextKey = "session_claims"

// RequireAuth validates the bearer token on every request and stores the
// session claims on the echo context for downstream handlers.
func RequireAuth(sessions *auth.SessionManager, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "Request missing bearer token", "path", c.Request().URL.Path)
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing or malformed authorization header")
			}

			claims, err := sessions.Parse(token)
			if err != nil {
				logger.WarnContext(ctx, "Rejected invalid session token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired session token")
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// WithClaims stuffs fixed claims onto the context; used by the development
// mode bypass and handler tests.
func WithClaims(claims *auth.Claims) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom retrieves the session claims placed by RequireAuth.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*auth.Claims)
	return claims, ok
}

// RequirePage enforces that the caller's role may open the given page.
func RequirePage(page auth.Page, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}
			if !auth.CanAccess(claims.Role, page) {
				logger.WarnContext(c.Request().Context(), "Access denied",
					"username", claims.Subject, "role", claims.Role, "page", page)
				return echo.NewHTTPError(http.StatusForbidden, "Access denied: insufficient role")
			}
			return next(c)
		}
	}
}
