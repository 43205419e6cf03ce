package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/dealgrid/dealgrid/pkg/cmd"
	"github.com/dealgrid/dealgrid/pkg/log"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "dealgrid-api",
		Usage:                 "Create and manage deal automation workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
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
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Dealgrid API")

			registry := cmd.NewRegistry(logger, command.String("crm-api-url"), command.String("crm-api-token"))
			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				persistence,
				registry,
			)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
