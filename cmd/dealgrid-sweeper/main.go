package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/dealgrid/dealgrid/pkg/cmd"
	"github.com/dealgrid/dealgrid/pkg/crmclient"
	"github.com/dealgrid/dealgrid/pkg/log"
)

const defaultIdleDays = 14

func main() {
	logger := log.WithModule("sweeper")

	command := &cli.Command{
		Name:                  "dealgrid-sweeper",
		EnableShellCompletion: true,
		Usage:                 "Publish rotting events for deals that have gone stale",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for the sweep schedule",
				Value:   "0 * * * *",
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
			},
			&cli.IntFlag{
				Name:    "idle-days",
				Usage:   "Days without stage movement before a deal counts as rotting",
				Value:   defaultIdleDays,
				Sources: cli.EnvVars("ROTTING_IDLE_DAYS"),
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
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Dealgrid Sweeper")

			crm := crmclient.NewClient(logger, command.String("crm-api-url"), command.String("crm-api-token"))

			eventBus := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), "dealgrid-sweeper", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			sweeper := NewSweeper(crm, eventBus, command.Int("idle-days"), logger)

			scheduler := cron.New()

			_, err := scheduler.AddFunc(command.String("schedule"), func() {
				sweeper.Sweep(ctx)
			})
			if err != nil {
				return err
			}

			scheduler.Start()

			logger.InfoContext(ctx, "Sweeper started", "schedule", command.String("schedule"))

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			<-sigChan
			logger.InfoContext(ctx, "Shutting down sweeper")

			stopCtx := scheduler.Stop()
			<-stopCtx.Done()

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
