package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/miva-edu/mind-analytics/backend/internal/auth"
	"github.com/miva-edu/mind-analytics/backend/internal/export"
	"github.com/miva-edu/mind-analytics/backend/internal/gateway"
	"github.com/miva-edu/mind-analytics/backend/internal/warehouse"
)

// Default report parameters, matching the dashboard's filter defaults.
const (
	defaultDays      = 30
	defaultThreshold = 60.0
	defaultLimit     = 50
)

// Baseline AI token pricing used for the cost estimate on the admin page.
var costPerMillionTokensUSD = decimal.NewFromInt(15)

// QueryGateway is the warehouse access surface the handlers depend on.
type QueryGateway interface {
	Execute(ctx context.Context, sql string) (*warehouse.ResultTable, error)
	ExecuteCached(ctx context.Context, sql string) (*warehouse.ResultTable, error)
	Flush()
}

// ReportHandler serves named reports as JSON tables and CSV downloads.
type ReportHandler struct {
	gateway  QueryGateway
	registry *ReportRegistry
	logger   *slog.Logger
}

// NewReportHandler creates a new instance of the ReportHandler.
func NewReportHandler(gw QueryGateway, registry *ReportRegistry, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		gateway:  gw,
		registry: registry,
		logger:   logger.With("component", "report_handler"),
	}
}

// ReportResponse is the JSON shape every report endpoint returns. On a
// gateway failure Rows is empty and Error carries the user-visible message,
// so one failed widget never aborts the rest of a page render.
type ReportResponse struct {
	Report   string            `json:"report"`
	Columns  []string          `json:"columns"`
	Rows     []warehouse.Row   `json:"rows"`
	RowCount int               `json:"row_count"`
	Summary  map[string]string `json:"summary,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// HandleGetReport resolves a named report to SQL, executes it through the
// cached gateway path and returns the table.
func (h *ReportHandler) HandleGetReport(c echo.Context) error {
	name := c.Param("name")

	_, table, err := h.resolveAndRun(c, name, true)
	if err != nil {
		return err
	}

	if table == nil {
		// Gateway failure already logged; fail soft with an empty table.
		msg := failureMessage(c, h.logger, name)
		return c.JSON(http.StatusOK, ReportResponse{
			Report:  name,
			Columns: []string{},
			Rows:    []warehouse.Row{},
			Error:   msg,
		})
	}

	resp := ReportResponse{
		Report:   name,
		Columns:  table.Columns,
		Rows:     table.Rows,
		RowCount: table.NumRows(),
	}
	if name == "ai_token_usage" {
		resp.Summary = tokenUsageSummary(table)
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleExportReport returns the same table as a CSV attachment.
func (h *ReportHandler) HandleExportReport(c echo.Context) error {
	name := c.Param("name")

	_, table, err := h.resolveAndRun(c, name, true)
	if err != nil {
		return err
	}
	if table == nil {
		msg := failureMessage(c, h.logger, name)
		return echo.NewHTTPError(http.StatusBadGateway, msg)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteCSV(c.Response(), table)
}

// resolveAndRun performs the shared lookup, role gate, parameter parsing and
// gateway call. A nil table with nil error means the gateway failed; the
// typed error is stashed on the context for failureMessage.
func (h *ReportHandler) resolveAndRun(c echo.Context, name string, cached bool) (ReportEntry, *warehouse.ResultTable, error) {
	ctx := c.Request().Context()

	entry, found := h.registry.Get(name)
	if !found {
		h.logger.WarnContext(ctx, "Unknown report requested", "report", name)
		return ReportEntry{}, nil, echo.NewHTTPError(http.StatusNotFound, "Unknown report: "+name)
	}

	claims, ok := ClaimsFrom(c)
	if !ok {
		return ReportEntry{}, nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	if !auth.CanAccess(claims.Role, entry.Page) {
		h.logger.WarnContext(ctx, "Report access denied",
			"report", name, "username", claims.Subject, "role", claims.Role)
		return ReportEntry{}, nil, echo.NewHTTPError(http.StatusForbidden, "Access denied: insufficient role")
	}

	sql := entry.Build(parseParams(c))

	var (
		table *warehouse.ResultTable
		err   error
	)
	if cached {
		table, err = h.gateway.ExecuteCached(ctx, sql)
	} else {
		table, err = h.gateway.Execute(ctx, sql)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "Report query failed", "report", name, "error", err)
		sentry.CaptureException(err)
		c.Set(gatewayErrorKey, err)
		return entry, nil, nil
	}
	return entry, table, nil
}

const gatewayErrorKey = "gateway_error"

// failureMessage maps a typed gateway error to the user-visible message the
// dashboard shows next to its "no data available" placeholder.
func failureMessage(c echo.Context, logger *slog.Logger, name string) string {
	err, _ := c.Get(gatewayErrorKey).(error)

	var validationErr *gateway.ValidationError
	var initErr *gateway.ClientInitError
	var execErr *gateway.ExecutionError
	switch {
	case errors.As(err, &validationErr):
		return "Only SELECT and WITH queries are allowed"
	case errors.As(err, &initErr):
		return "Warehouse connection is unavailable"
	case errors.As(err, &execErr):
		return "Query execution failed"
	default:
		logger.Warn("Gateway failure without typed error", "report", name)
		return "No data available"
	}
}

// parseParams reads the optional query-string parameters, falling back to
// dashboard defaults for missing or nonsensical values. The catalog itself
// performs no validation, so the clamping happens here.
func parseParams(c echo.Context) ReportParams {
	days, err := strconv.Atoi(c.QueryParam("days"))
	if err != nil || days < 0 {
		days = defaultDays
	}

	threshold, err := strconv.ParseFloat(c.QueryParam("threshold"), 64)
	if err != nil || threshold <= 0 {
		threshold = defaultThreshold
	}

	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}

	return ReportParams{Days: days, Threshold: threshold, Limit: limit}
}

// tokenUsageSummary derives the estimated spend from the token totals.
func tokenUsageSummary(table *warehouse.ResultTable) map[string]string {
	totalTokens, ok := table.FirstInt("total_tokens")
	if !ok {
		return nil
	}
	cost := decimal.NewFromInt(totalTokens).
		Mul(costPerMillionTokensUSD).
		Div(decimal.NewFromInt(1_000_000))
	return map[string]string{
		"estimated_cost_usd": cost.StringFixed(2),
	}
}
