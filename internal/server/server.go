package server

import (
	"context"
	"log"
	"strings"

	"trend-finder-be/internal/bootstrap"
	"trend-finder-be/internal/config"
	"trend-finder-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // images and backup files
	})

	// Middleware
	app.Use(cors.New(corsConfig(cfg.App.CorsAllowedOrigins)))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
			"workspaces": container.Workspaces.Active(),
		}))
	})

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

// corsConfig allows credentials only for explicit origins; fiber refuses them
// together with a wildcard.
func corsConfig(origins string) cors.Config {
	wildcard := false
	for _, o := range strings.Split(origins, ",") {
		if strings.TrimSpace(o) == "*" {
			wildcard = true
		}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: !wildcard,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Content-Disposition",
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.ClientController.RegisterRoutes(api)
	c.AuthController.RegisterRoutes(api)

	c.AnalysisController.RegisterRoutes(api)
	c.ChatController.RegisterRoutes(api)
	c.SpeechController.RegisterRoutes(api)

	c.PreferenceController.RegisterRoutes(api)
	c.BackupController.RegisterRoutes(api)
}
