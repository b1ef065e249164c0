// Package httpserver provides HTTP server and routing.
package httpserver

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"cinepulse-catalog/internal/app/service"
	"cinepulse-catalog/internal/app/session"
	"cinepulse-catalog/internal/transport/httpserver/dto"
	"cinepulse-catalog/internal/transport/httpserver/handler"
	"cinepulse-catalog/internal/transport/httpserver/middleware"
	"cinepulse-catalog/internal/validator"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port          int
	BodyLimit     int
	HealthTimeout time.Duration
}

// Services groups the use cases served over HTTP.
type Services struct {
	Catalog   *service.CatalogService
	Watchlist *service.WatchlistService
	Uploads   *service.UploadService
	Stats     *service.StatsService
	Sessions  *session.Registry
}

// Server wraps Fiber app with handlers.
type Server struct {
	App    *fiber.App
	Logger *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured. The
// readiness probe passes when every checker is healthy.
func NewServer(
	cfg ServerConfig,
	svc Services,
	checkers []middleware.HealthChecker,
	v *validator.Validator,
	logger *zap.Logger,
) *Server {
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 2 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:      "cinepulse-catalog",
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: errorHandler(logger),
	})

	// Health check middleware MUST be registered BEFORE other middleware
	// for Kubernetes probes to work even during high load
	app.Use(middleware.NewHealthCheck(cfg.HealthTimeout, checkers...))

	// Global middleware
	app.Use(requestid.New())
	app.Use(middleware.Recover(logger))
	app.Use(middleware.CurrentUser())
	app.Use(middleware.Logger(logger))
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.UserHeader,
	}))
	app.Use(compress.New())

	registerRoutes(app,
		handler.NewCatalogHandler(svc.Catalog, v, logger),
		handler.NewUploadHandler(svc.Uploads, v, logger),
		handler.NewMeHandler(svc.Watchlist, svc.Catalog, svc.Stats, v, logger),
		handler.NewSessionHandler(svc.Sessions, v, logger),
		handler.NewAdminHandler(svc.Sessions, logger),
	)

	return &Server{
		App:    app,
		Logger: logger,
	}
}

// registerRoutes sets up all API routes.
func registerRoutes(
	app *fiber.App,
	catalogHandler *handler.CatalogHandler,
	uploadHandler *handler.UploadHandler,
	meHandler *handler.MeHandler,
	sessionHandler *handler.SessionHandler,
	adminHandler *handler.AdminHandler,
) {
	// Health checks are handled by middleware (/livez, /readyz)

	v1 := app.Group("/api/v1")

	// Catalog
	catalog := v1.Group("/catalog")
	catalog.Get("/", catalogHandler.Catalog)
	catalog.Get("/view", catalogHandler.View)
	catalog.Get("/featured", catalogHandler.Featured)

	// Contents
	contents := v1.Group("/contents")
	contents.Post("/", uploadHandler.Create)
	contents.Get("/:kind/:id", catalogHandler.GetContent)

	// Current user
	me := v1.Group("/me")
	me.Get("/watchlist", meHandler.Watchlist)
	me.Post("/watchlist", meHandler.AddToWatchlist)
	me.Get("/uploads", meHandler.Uploads)
	me.Get("/stats", meHandler.Stats)

	// Browse sessions
	sessions := v1.Group("/sessions")
	sessions.Post("/", sessionHandler.Open)
	sessions.Get("/:id", sessionHandler.Get)
	sessions.Patch("/:id", sessionHandler.Update)
	sessions.Post("/:id/refresh", sessionHandler.Refresh)
	sessions.Delete("/:id", sessionHandler.Close)

	// Admin routes
	admin := v1.Group("/admin")
	admin.Post("/refresh", adminHandler.RefreshSessions)
	admin.Get("/sessions", adminHandler.Sessions)
}

// errorHandler returns a custom error handler that logs based on HTTP status code.
// 404s are logged at DEBUG level (expected client behavior), 4xx at WARN, 5xx at ERROR.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		switch {
		case code == fiber.StatusNotFound:
			logger.Debug("resource not found",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
		case code >= 500:
			logger.Error("server error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		default:
			logger.Warn("client error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		}

		return c.Status(code).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  statusCode(code),
		})
	}
}

func statusCode(code int) string {
	switch code {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "BODY_TOO_LARGE"
	default:
		return "UNHANDLED_ERROR"
	}
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	s.Logger.Info("starting HTTP server", zap.Int("port", port))

	return s.App.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.Logger.Info("shutting down HTTP server")

	return s.App.Shutdown()
}
