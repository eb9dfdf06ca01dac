package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/miva-edu/mind-analytics/backend/internal/auth"
)

// AuthHandler serves login and session introspection.
type AuthHandler struct {
	auth   *auth.Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates a new instance of the AuthHandler.
func NewAuthHandler(a *auth.Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   a,
		logger: logger.With("component", "auth_handler"),
	}
}

// LoginRequest is the login form body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and the account it belongs to.
type LoginResponse struct {
	Token       string `json:"token"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// HandleLogin verifies credentials and issues a session token.
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to bind login request body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	token, user, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.WarnContext(ctx, "Failed login attempt", "username", req.Username)
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
		}
		h.logger.ErrorContext(ctx, "Login failed unexpectedly", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed").SetInternal(err)
	}

	h.logger.InfoContext(ctx, "User logged in", "username", user.Username, "role", user.Role)
	return c.JSON(http.StatusOK, LoginResponse{
		Token:       token,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	})
}

// HandleMe returns the claims of the current session.
func (h *AuthHandler) HandleMe(c echo.Context) error {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"username":     claims.Subject,
		"display_name": claims.DisplayName,
		"role":         string(claims.Role),
	})
}
