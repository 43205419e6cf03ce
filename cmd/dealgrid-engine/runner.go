package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dealgrid/dealgrid/pkg/engine"
	"github.com/dealgrid/dealgrid/pkg/eventbus"
	"github.com/dealgrid/dealgrid/pkg/events"
)

// Runner ties the event bus to the automation engine and blocks until the
// process is told to stop.
type Runner struct {
	engineID string
	engine   *engine.Engine
	eventBus eventbus.EventBus
	logger   *slog.Logger
}

func NewRunner(engineID string, eng *engine.Engine, eventBus eventbus.EventBus, logger *slog.Logger) *Runner {
	return &Runner{
		engineID: engineID,
		engine:   eng,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (r *Runner) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.eventBus.OnDealEvent(r.handleDealEvent)

	err := r.eventBus.Subscribe(ctx)
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Engine started, waiting for deal events")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	r.logger.InfoContext(ctx, "Shutting down engine")

	return nil
}

// handleDealEvent runs the engine for one event. Only store failures return
// an error, which nacks the message for redelivery.
func (r *Runner) handleDealEvent(ctx context.Context, event *events.DealEvent) error {
	results, err := r.engine.OnEvent(ctx, event)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to process deal event",
			"event_id", event.ID,
			"error", err,
		)

		return err
	}

	matched := 0

	for _, result := range results {
		if result.Matched {
			matched++
		}
	}

	r.logger.InfoContext(ctx, "Processed deal event",
		"event_id", event.ID,
		"event_type", event.Type,
		"team_id", event.TeamID,
		"candidates", len(results),
		"matched", matched,
	)

	return nil
}
