// Package http is the optional admin HTTP surface (SPEC_FULL.md §8):
// GET /healthz and GET /stats, live for the duration of a run. Grounded
// on the teacher's delivery/http.Server for its fiber.App
// construction, middleware stack, and Start/Shutdown lifecycle,
// trimmed to the two admin routes this tool's domain calls for. The
// teacher's CORS middleware is dropped entirely: this surface has no
// browser client, so there is no cross-origin request to allow.
package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tomtom-odat/odat-go/internal/aggregator"
	"github.com/tomtom-odat/odat-go/internal/delivery/http/handler"
	"github.com/tomtom-odat/odat-go/internal/delivery/http/middleware"
)

// Server hosts the admin surface on its own listener, separate from
// the CLI's own stdout/log reporting.
type Server struct {
	app    *fiber.App
	logger *zap.Logger
	addr   string
}

// NewServer wires the admin handler behind the teacher's Recovery
// middleware.
func NewServer(addr string, agg *aggregator.Aggregator, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "odat admin",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	app.Use(middleware.Recovery())

	h := handler.NewAdminHandler(agg, logger)
	app.Get("/healthz", h.Healthz)
	app.Get("/stats", h.Stats)

	return &Server{app: app, logger: logger, addr: addr}
}

// Start blocks serving the admin surface until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting admin HTTP server", zap.String("address", s.addr))
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the admin surface.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down admin HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		logger.Error("admin http error", zap.String("path", c.Path()), zap.Int("status", code), zap.Error(err))
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
