package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dealgrid/dealgrid/pkg/eventbus"
	"github.com/dealgrid/dealgrid/pkg/events"
)

// MockEventBus is a mock implementation of the eventbus.EventBus interface.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) PublishDeal(ctx context.Context, key string, event *events.DealEvent) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}

func (m *MockEventBus) PublishExecution(ctx context.Context, key string, event *events.AutomationExecuted) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}

func (m *MockEventBus) OnDealEvent(handler eventbus.DealEventHandler) {
	m.Called(handler)
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockEventBus) GenerateID() string {
	args := m.Called()

	return args.String(0)
}
