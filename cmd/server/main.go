// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"cloud.google.com/go/storage"
	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/miva-edu/mind-analytics/backend/internal/api"
	"github.com/miva-edu/mind-analytics/backend/internal/auth"
	"github.com/miva-edu/mind-analytics/backend/internal/branding"
	"github.com/miva-edu/mind-analytics/backend/internal/catalog"
	"github.com/miva-edu/mind-analytics/backend/internal/config"
	"github.com/miva-edu/mind-analytics/backend/internal/export"
	"github.com/miva-edu/mind-analytics/backend/internal/gateway"
	"github.com/miva-edu/mind-analytics/backend/internal/logger"
	"github.com/miva-edu/mind-analytics/backend/internal/warehouse"
)

func slogPanicRecoverMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					reqLogger := logger.With("request_id", c.Get("requestID"))
					reqLogger.ErrorContext(c.Request().Context(), "PANIC recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
					)
					c.Error(err)
				}
			}()
			return next(c)
		}
	}
}

func main() {
	// 1. Load application configuration FIRST.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Sentry. A missing DSN just disables reporting.
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.AppEnv,
			TracesSampleRate: 1.0,
			Debug:            false,
		}); err != nil {
			fmt.Printf("Sentry initialization failed: %v\n", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// 3. Initialize the Logger.
	logger.InitLogger(cfg.AppEnv)
	appLogger := logger.L()

	appLogger.Info("Application starting up...", "environment", cfg.AppEnv, "dataset", cfg.DatasetID())

	// 4. Core query components. The warehouse client is built lazily on the
	// first query so credential problems surface as typed gateway errors.
	builder := catalog.NewBuilder(cfg.DatasetID())
	cache := gateway.NewMemoryCache(cfg.CacheTTL)
	factory := func(ctx context.Context) (warehouse.Runner, error) {
		return warehouse.NewClient(ctx, cfg.ProjectID, cfg.Location, cfg.CredentialsFile,
			appLogger.With("component", "warehouse_connector"))
	}
	gw := gateway.New(factory, cache, appLogger)
	appLogger.Info("Query gateway initialized.", "cache_ttl", cfg.CacheTTL)

	// 5. Authentication.
	userStore, err := auth.LoadUserStore(cfg.UsersFile)
	if err != nil {
		appLogger.Error("Failed to load users file", slog.Any("error", err))
		os.Exit(1)
	}
	sessions := auth.NewSessionManager(cfg.JWTSecret)
	authenticator := auth.NewAuthenticator(userStore, sessions)
	appLogger.Info("User store loaded.")

	// 6. Export service, only when a bucket is configured.
	var uploader api.TableUploader
	if cfg.ExportBucket != "" {
		gcsClient, err := storage.NewClient(context.Background())
		if err != nil {
			appLogger.Error("Failed to create GCS client on startup", slog.Any("error", err))
			os.Exit(1)
		}
		uploader = export.NewService(gcsClient, cfg.ExportBucket, appLogger)
		appLogger.Info("GCS export service initialized.", "bucket", cfg.ExportBucket)
	} else {
		appLogger.Warn("EXPORT_BUCKET not set; full dataset export is disabled")
	}

	// 7. HTTP API handlers.
	apiLogger := appLogger.With("service", "api_handlers")

	registry := api.NewReportRegistry()
	api.RegisterDefaults(registry, builder)

	reportHandler := api.NewReportHandler(gw, registry, apiLogger)
	adminHandler := api.NewAdminHandler(gw, builder, uploader, apiLogger)
	authHandler := api.NewAuthHandler(authenticator, apiLogger)
	brandingHandler := api.NewBrandingHandler(branding.NewResolver(cfg.AssetsDir), apiLogger)

	appLogger.Info("API handlers initialized.")

	// 8. Initialize Echo.
	e := echo.New()

	// Configure Echo's logger to use our slog instance.
	e.Logger.SetOutput(io.Discard)
	e.Logger.SetLevel(0)
	e.Logger.SetHeader("")

	// 9. Register Middleware.
	e.Use(slogPanicRecoverMiddleware(appLogger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Length", "Content-Type", "Accept", "Authorization"},
	}))

	// Request Logger Middleware (for consistent request logging).
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := uuid.New().String()
			c.Set("requestID", reqID)

			start := time.Now()

			if hub := sentryecho.GetHubFromContext(c); hub != nil {
				hub.Scope().SetTag("request_id", reqID)
			}

			err := next(c)
			stop := time.Now()

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			appLogger.InfoContext(c.Request().Context(), "HTTP Request",
				"request_id", reqID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"latency_ms", stop.Sub(start).Milliseconds(),
				"user_agent", c.Request().UserAgent(),
				"ip", c.RealIP(),
			)
			return err
		}
	})

	e.Use(sentryecho.New(sentryecho.Options{
		Repanic: true,
	}))

	// 10. Register Routes.

	// Health check runs an uncached trivial query through the gateway.
	e.GET("/health", func(c echo.Context) error {
		reqLogger := appLogger.With("request_id", c.Get("requestID"))
		reqLogger.InfoContext(c.Request().Context(), "Health check requested", "ip", c.RealIP())

		if _, err := gw.Execute(c.Request().Context(), "SELECT 1"); err != nil {
			reqLogger.ErrorContext(c.Request().Context(), "Warehouse query failed during health check", slog.Any("error", err))
			sentry.CaptureException(err)
			return c.String(http.StatusInternalServerError, "Warehouse Not Ready")
		}
		return c.String(http.StatusOK, "OK")
	})

	// Login and the logo are reachable before authentication.
	e.POST("/api/auth/login", authHandler.HandleLogin)
	e.GET("/api/branding/logo", brandingHandler.HandleGetLogo)

	// --- Auth Middleware Setup ---
	apiGroup := e.Group("/api")

	if cfg.AppEnv == "development" {
		appLogger.Warn("!!!!!!!!!! AUTHENTICATION MIDDLEWARE IS DISABLED IN DEVELOPMENT MODE !!!!!!!!!!")
		// Mock claims for local development: an admin session.
		devClaims := &auth.Claims{
			DisplayName: "Dev Admin",
			Role:        auth.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "dev-admin",
			},
		}
		apiGroup.Use(api.WithClaims(devClaims))
	} else {
		apiGroup.Use(api.RequireAuth(sessions, appLogger))
	}
	// --- End Auth Middleware Setup ---

	apiGroup.GET("/auth/me", authHandler.HandleMe)
	apiGroup.GET("/reports/:name", reportHandler.HandleGetReport)
	apiGroup.GET("/reports/:name/export", reportHandler.HandleExportReport)

	adminGroup := apiGroup.Group("/admin", api.RequirePage(auth.PageAdmin, appLogger))
	adminHandler.RegisterRoutes(adminGroup)

	// 11. Start the HTTP server.
	address := fmt.Sprintf("0.0.0.0:%s", cfg.Port)

	appLogger.Info("HTTP Server starting on port", "port", cfg.Port)

	if err := e.Start(address); err != nil && err != http.ErrServerClosed {
		appLogger.Error("HTTP Server failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	appLogger.Info("HTTP Server stopped gracefully.")
}
