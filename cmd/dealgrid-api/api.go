// Package main provides the Dealgrid API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/dealgrid/dealgrid/pkg/persistence"
	"github.com/dealgrid/dealgrid/pkg/registry"
	"github.com/dealgrid/dealgrid/pkg/services"
	"github.com/dealgrid/dealgrid/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, a.registry)

	handlers := web.NewAPIHandlers(workflowService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Dealgrid API")
	})

	w := app.Group("/teams/:teamId/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Patch("/:id/enabled", handlers.ToggleWorkflow)
	w.Post("/:id/stats/reset", handlers.ResetWorkflowStats)

	app.Get("/triggers", handlers.GetTriggers)
	app.Get("/actions", handlers.GetActions)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
