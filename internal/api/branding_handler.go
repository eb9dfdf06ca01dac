package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/miva-edu/mind-analytics/backend/internal/branding"
)

// BrandingHandler serves resolved logo assets to the dashboard frontend.
type BrandingHandler struct {
	resolver *branding.Resolver
	logger   *slog.Logger
}

// NewBrandingHandler creates a new instance of the BrandingHandler.
func NewBrandingHandler(resolver *branding.Resolver, logger *slog.Logger) *BrandingHandler {
	return &BrandingHandler{
		resolver: resolver,
		logger:   logger.With("component", "branding_handler"),
	}
}

// HandleGetLogo resolves the logo for the requested theme. An absent logo is
// an explicit 404, never a silent fallback to some other asset.
func (h *BrandingHandler) HandleGetLogo(c echo.Context) error {
	ctx := c.Request().Context()

	themeParam := c.QueryParam("theme")
	if themeParam == "" {
		themeParam = string(branding.ThemeDark)
	}
	theme, err := branding.ParseTheme(themeParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "theme must be 'dark' or 'light'")
	}

	path, found, err := h.resolver.Resolve(theme)
	if err != nil {
		h.logger.ErrorContext(ctx, "Logo resolution failed", "theme", theme, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Logo resolution failed").SetInternal(err)
	}
	if !found {
		h.logger.WarnContext(ctx, "Logo not found in any candidate directory", "theme", theme)
		return echo.NewHTTPError(http.StatusNotFound, "Logo not found")
	}

	return c.File(path)
}
