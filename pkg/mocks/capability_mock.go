package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dealgrid/dealgrid/pkg/protocol"
)

// MockCapability is a mock implementation of the protocol.Capability interface.
type MockCapability struct {
	mock.Mock

	CapabilityID string
}

func (m *MockCapability) ID() string {
	if m.CapabilityID != "" {
		return m.CapabilityID
	}

	return "mock"
}

func (m *MockCapability) Invoke(ctx context.Context, config map[string]string, capCtx protocol.CapabilityContext) error {
	args := m.Called(ctx, config, capCtx)

	return args.Error(0)
}
