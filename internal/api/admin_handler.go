package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/miva-edu/mind-analytics/backend/internal/catalog"
	"github.com/miva-edu/mind-analytics/backend/internal/warehouse"
)

// TableUploader uploads one rendered table to the export bucket.
type TableUploader interface {
	UploadTable(ctx context.Context, batchID uuid.UUID, name string, table *warehouse.ResultTable) (string, error)
}

// AdminHandler serves the administrative operations: cache flush and the
// full-dataset export.
type AdminHandler struct {
	gateway  QueryGateway
	builder  *catalog.Builder
	uploader TableUploader
	logger   *slog.Logger
}

// NewAdminHandler creates a new instance of the AdminHandler. uploader may
// be nil when no export bucket is configured.
func NewAdminHandler(gw QueryGateway, builder *catalog.Builder, uploader TableUploader, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		gateway:  gw,
		builder:  builder,
		uploader: uploader,
		logger:   logger.With("component", "admin_handler"),
	}
}

// RegisterRoutes mounts the admin operations on the given group.
func (h *AdminHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/cache/flush", h.HandleFlushCache)
	g.POST("/export", h.HandleExportAll)
}

// HandleFlushCache clears every cached query result immediately.
func (h *AdminHandler) HandleFlushCache(c echo.Context) error {
	ctx := c.Request().Context()

	username := "unknown"
	if claims, ok := ClaimsFrom(c); ok {
		username = claims.Subject
	}

	h.gateway.Flush()
	h.logger.InfoContext(ctx, "Query cache flushed by administrator", "username", username)
	return c.JSON(http.StatusOK, map[string]string{"status": "cache flushed"})
}

// ExportAllResponse lists the uploaded objects and any tables that failed.
type ExportAllResponse struct {
	BatchID  string   `json:"batch_id"`
	Exported []string `json:"exported"`
	Skipped  []string `json:"skipped,omitempty"`
}

// HandleExportAll dumps every table in the dataset to the export bucket as
// CSV. Individual table failures are skipped so one broken table does not
// abort the whole export; upload failures abort, since the bucket itself is
// broken at that point.
func (h *AdminHandler) HandleExportAll(c echo.Context) error {
	ctx := c.Request().Context()

	if h.uploader == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Export bucket is not configured")
	}

	// Table enumeration and dumps bypass the cache: an export must reflect
	// the warehouse as it is now.
	listing, err := h.gateway.Execute(ctx, h.builder.TableList())
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list dataset tables", "error", err)
		sentry.CaptureException(err)
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to list dataset tables").SetInternal(err)
	}

	batchID := uuid.New()
	resp := ExportAllResponse{BatchID: batchID.String()}

	for _, row := range listing.Rows {
		name, ok := row["table_name"].(string)
		if !ok || name == "" {
			continue
		}

		table, err := h.gateway.Execute(ctx, h.builder.TableDump(name))
		if err != nil {
			h.logger.WarnContext(ctx, "Skipping table in full export", "table", name, "error", err)
			resp.Skipped = append(resp.Skipped, name)
			continue
		}

		objectKey, err := h.uploader.UploadTable(ctx, batchID, name, table)
		if err != nil {
			h.logger.ErrorContext(ctx, "Export upload failed", "table", name, "error", err)
			sentry.CaptureException(err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Export upload failed").SetInternal(err)
		}
		resp.Exported = append(resp.Exported, objectKey)
	}

	h.logger.InfoContext(ctx, "Full dataset export completed",
		"batch_id", resp.BatchID, "exported", len(resp.Exported), "skipped", len(resp.Skipped))
	return c.JSON(http.StatusOK, resp)
}
