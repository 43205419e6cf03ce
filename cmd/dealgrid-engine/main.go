package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/dealgrid/dealgrid/pkg/cmd"
	"github.com/dealgrid/dealgrid/pkg/engine"
	"github.com/dealgrid/dealgrid/pkg/log"
	"github.com/dealgrid/dealgrid/pkg/otelhelper"
)

func main() {
	command := &cli.Command{
		Name:                  "dealgrid-engine",
		EnableShellCompletion: true,
		Usage:                 "Run automation workflows in response to deal events",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "engine-id",
				Aliases: []string{"id"},
				Usage:   "Custom engine ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("ENGINE_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker list",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "crm-api-url",
				Usage:   "Base URL of the CRM internal API",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("CRM_API_URL"),
			},
			&cli.StringFlag{
				Name:    "crm-api-token",
				Usage:   "Bearer token for the CRM internal API",
				Sources: cli.EnvVars("CRM_API_TOKEN"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing",
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			engineID := command.String("engine-id")
			if engineID == "" {
				engineID = "engine-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("dealgrid-engine").With("engine_id", engineID)

			logger.InfoContext(ctx, "Initializing Dealgrid Engine")

			registry := cmd.NewRegistry(logger, command.String("crm-api-url"), command.String("crm-api-token"))

			eventBus := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), "dealgrid-engine", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			executor := engine.NewExecutor(logger, registry, engine.DefaultActionTimeout)
			eng := engine.NewEngine(logger, persistence, executor, eventBus)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "dealgrid-engine")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracer", "error", err)
				} else {
					eng = eng.WithTracer(tracer)
				}
			}

			runner := NewRunner(engineID, eng, eventBus, logger)

			err := runner.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start engine", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
