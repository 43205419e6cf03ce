package main

import (
	"context"
	"log/slog"

	"github.com/dealgrid/dealgrid/pkg/crmclient"
	"github.com/dealgrid/dealgrid/pkg/eventbus"
	"github.com/dealgrid/dealgrid/pkg/events"
	"github.com/dealgrid/dealgrid/pkg/models"
)

// Sweeper periodically asks the CRM for deals that have gone stale and
// publishes a rotting event for each, so workflows with a deal_rotting
// trigger can react. One event per deal per sweep; deduplication across
// sweeps is up to workflow conditions.
type Sweeper struct {
	crm      *crmclient.Client
	eventBus eventbus.EventBus
	idleDays int
	logger   *slog.Logger
}

func NewSweeper(crm *crmclient.Client, eventBus eventbus.EventBus, idleDays int, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		crm:      crm,
		eventBus: eventBus,
		idleDays: idleDays,
		logger:   logger,
	}
}

func (s *Sweeper) Sweep(ctx context.Context) {
	deals, err := s.crm.RottingDeals(ctx, s.idleDays)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch rotting deals", "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Sweeping rotting deals", "count", len(deals), "idle_days", s.idleDays)

	published := 0

	for _, deal := range deals {
		event := events.NewDealEvent(s.eventBus.GenerateID(), models.TriggerDealRotting, deal, nil)

		err = s.eventBus.PublishDeal(ctx, deal.ID, event)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish rotting event",
				"deal_id", deal.ID,
				"team_id", deal.TeamID,
				"error", err,
			)

			continue
		}

		published++
	}

	s.logger.InfoContext(ctx, "Sweep finished", "published", published)
}
