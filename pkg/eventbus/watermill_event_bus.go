package eventbus

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dealgrid/dealgrid/pkg/events"
)

// WatermillEventBus routes deal and execution events over any watermill
// publisher/subscriber pair.
type WatermillEventBus struct {
	publisher   message.Publisher
	subscriber  message.Subscriber
	dealHandler DealEventHandler
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) PublishDeal(ctx context.Context, key string, event *events.DealEvent) error {
	return eb.publish(events.DealTopic, key, string(event.Type), event)
}

func (eb *WatermillEventBus) PublishExecution(ctx context.Context, key string, event *events.AutomationExecuted) error {
	return eb.publish(events.ExecutionTopic, key, events.ExecutionEventType, event)
}

func (eb *WatermillEventBus) publish(topic, key, eventType string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, eventType)

	return eb.publisher.Publish(topic, msg)
}

// OnDealEvent registers the handler invoked for every deal event. Must be
// called before Subscribe.
func (eb *WatermillEventBus) OnDealEvent(handler DealEventHandler) {
	eb.dealHandler = handler
}

func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	if eb.dealHandler == nil {
		return errors.New("no deal event handler registered")
	}

	messages, err := eb.subscriber.Subscribe(ctx, events.DealTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			event := &events.DealEvent{}

			err := json.Unmarshal(msg.Payload, event)
			if err != nil {
				msg.Nack()

				continue
			}

			err = eb.dealHandler(ctx, event)
			if err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
