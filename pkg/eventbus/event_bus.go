// Package eventbus provides the messaging layer between the CRM mutation
// side and the automation engine.
package eventbus

import (
	"context"

	"github.com/dealgrid/dealgrid/pkg/events"
)

// DealEventHandler processes one deal lifecycle event. Returning an error
// nacks the message so the delivery layer can redeliver it.
type DealEventHandler func(ctx context.Context, event *events.DealEvent) error

// ExecutionPublisher is the narrow surface the engine needs to emit
// execution outcomes.
type ExecutionPublisher interface {
	PublishExecution(ctx context.Context, key string, event *events.AutomationExecuted) error
}

type EventBus interface {
	ExecutionPublisher

	PublishDeal(ctx context.Context, key string, event *events.DealEvent) error
	OnDealEvent(handler DealEventHandler)
	Subscribe(ctx context.Context) error
	Close() error
	GenerateID() string
}
