package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dealgrid/dealgrid/pkg/models"
)

// MockPersistence is a mock implementation of the persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Workflows(ctx context.Context, teamID string) ([]*models.Workflow, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Workflow), args.Error(1)
}

func (m *MockPersistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockPersistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	args := m.Called(ctx, workflow)

	return args.Error(0)
}

func (m *MockPersistence) DeleteWorkflow(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) ListEnabledByTeamAndTrigger(ctx context.Context, teamID string, triggerType models.TriggerType) ([]*models.Workflow, error) {
	args := m.Called(ctx, teamID, triggerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Workflow), args.Error(1)
}

func (m *MockPersistence) IncrementStats(ctx context.Context, workflowID string, outcome models.ExecutionOutcome, at time.Time) error {
	args := m.Called(ctx, workflowID, outcome, at)

	return args.Error(0)
}

func (m *MockPersistence) ResetStats(ctx context.Context, workflowID string) error {
	args := m.Called(ctx, workflowID)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
