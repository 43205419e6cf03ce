package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/dealgrid/dealgrid/pkg/channels/gochannel"
	"github.com/dealgrid/dealgrid/pkg/channels/kafka"
	"github.com/dealgrid/dealgrid/pkg/eventbus"
)

// NewEventBus creates an event bus instance based on the provider. The
// gochannel provider is in-process only and exists for single-binary setups
// and local development.
func NewEventBus(provider, kafkaBrokers, serviceName string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), kafkaBrokers, serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create in-process pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
