package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dealgrid/dealgrid/pkg/events"
	"github.com/dealgrid/dealgrid/pkg/mocks"
	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/persistence/file"
	"github.com/dealgrid/dealgrid/pkg/registry"
)

func floatPtr(v float64) *float64 {
	return &v
}

func wonDeal() models.DealSnapshot {
	return models.DealSnapshot{
		ID:     "deal-1",
		TeamID: "team-1",
		Title:  "Acme renewal",
		Stage:  "won",
		Amount: floatPtr(50000),
	}
}

func saveWorkflow(t *testing.T, store *file.Persistence, workflow *models.Workflow) *models.Workflow {
	t.Helper()

	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	return workflow
}

func newTestEngine(t *testing.T, store *file.Persistence, capabilities map[string]*mocks.MockCapability) *Engine {
	t.Helper()

	reg := registry.NewRegistry(testLogger())
	for actionType, capability := range capabilities {
		reg.RegisterAction(models.ActionDescriptor{Type: actionType, Name: actionType}, capability)
	}

	executor := NewExecutor(testLogger(), reg, 0)

	return NewEngine(testLogger(), store, executor, nil)
}

func TestOnEvent_MatchedWorkflowRunsActionsInOrder(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	notify := &mocks.MockCapability{CapabilityID: "send_notification"}
	email := &mocks.MockCapability{CapabilityID: "send_email"}

	var order []string

	notify.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		order = append(order, "send_notification")
	}).Return(nil)
	email.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		order = append(order, "send_email")
	}).Return(nil)

	workflow := saveWorkflow(t, store, &models.Workflow{
		TeamID:  "team-1",
		Name:    "Celebrate wins",
		Enabled: true,
		Trigger: models.Trigger{Type: models.TriggerDealStageChanged},
		Conditions: []models.Condition{
			{Field: models.FieldStage, Operator: models.OperatorEquals, Value: "won"},
		},
		Actions: []models.Action{
			{Type: "send_notification", Config: map[string]string{"user_id": "u1", "message": "won!"}},
			{Type: "send_email", Config: map[string]string{"to": "a@b.c", "subject": "won"}},
		},
	})

	eng := newTestEngine(t, store, map[string]*mocks.MockCapability{
		"send_notification": notify,
		"send_email":        email,
	})

	event := events.NewDealEvent("evt-1", models.TriggerDealStageChanged, wonDeal(), nil)

	results, err := eng.OnEvent(t.Context(), event)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, results[0].Matched)
	assert.True(t, results[0].Succeeded())
	assert.Equal(t, []string{"send_notification", "send_email"}, order)

	stored, err := store.WorkflowByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Stats.TotalExecutions)
	assert.Equal(t, int64(1), stored.Stats.SuccessfulExecutions)
	assert.Equal(t, int64(0), stored.Stats.FailedExecutions)
	require.NotNil(t, stored.Stats.LastExecutedAt)
}

func TestOnEvent_ConditionsGateExecution(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	email := &mocks.MockCapability{CapabilityID: "send_email"}

	workflow := saveWorkflow(t, store, &models.Workflow{
		TeamID:  "team-1",
		Name:    "Big deals only",
		Enabled: true,
		Trigger: models.Trigger{Type: models.TriggerDealStageChanged},
		Conditions: []models.Condition{
			{Field: models.FieldAmount, Operator: models.OperatorGreaterThan, Value: "100000"},
		},
		Actions: []models.Action{
			{Type: "send_email", Config: map[string]string{"to": "a@b.c", "subject": "big"}},
		},
	})

	eng := newTestEngine(t, store, map[string]*mocks.MockCapability{"send_email": email})

	event := events.NewDealEvent("evt-2", models.TriggerDealStageChanged, wonDeal(), nil)

	results, err := eng.OnEvent(t.Context(), event)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.False(t, results[0].Matched)
	assert.False(t, results[0].Succeeded())
	email.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)

	// Unmatched executions never touch stats.
	stored, err := store.WorkflowByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.Stats.TotalExecutions)
	assert.Nil(t, stored.Stats.LastExecutedAt)
}

func TestOnEvent_ActionFailureDoesNotStopSiblings(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	task := &mocks.MockCapability{CapabilityID: "create_task"}
	task.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("CRM unavailable"))

	email := &mocks.MockCapability{CapabilityID: "send_email"}
	email.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	workflow := saveWorkflow(t, store, &models.Workflow{
		TeamID:  "team-1",
		Name:    "Follow up",
		Enabled: true,
		Trigger: models.Trigger{Type: models.TriggerDealCreated},
		Actions: []models.Action{
			{Type: "create_task", Config: map[string]string{"title": "call"}},
			{Type: "send_email", Config: map[string]string{"to": "a@b.c", "subject": "new deal"}},
		},
	})

	eng := newTestEngine(t, store, map[string]*mocks.MockCapability{
		"create_task": task,
		"send_email":  email,
	})

	event := events.NewDealEvent("evt-3", models.TriggerDealCreated, wonDeal(), nil)

	results, err := eng.OnEvent(t.Context(), event)
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.True(t, result.Matched)
	assert.False(t, result.Succeeded())

	require.Len(t, result.ActionResults, 2)
	assert.False(t, result.ActionResults[0].OK)
	assert.Equal(t, "CRM unavailable", result.ActionResults[0].Error)
	assert.True(t, result.ActionResults[1].OK)
	email.AssertExpectations(t)

	// One failed action makes the whole execution count as failed.
	stored, err := store.WorkflowByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Stats.TotalExecutions)
	assert.Equal(t, int64(0), stored.Stats.SuccessfulExecutions)
	assert.Equal(t, int64(1), stored.Stats.FailedExecutions)
}

func TestOnEvent_SelectsByTeamTriggerAndEnabled(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	email := &mocks.MockCapability{CapabilityID: "send_email"}
	email.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	matching := saveWorkflow(t, store, &models.Workflow{
		TeamID:  "team-1",
		Name:    "Matching",
		Enabled: true,
		Trigger: models.Trigger{Type: models.TriggerDealCreated},
		Actions: []models.Action{{Type: "send_email"}},
	})
	saveWorkflow(t, store, &models.Workflow{
		TeamID:  "team-1",
		Name:    "Disabled",
		Enabled: false,
		Trigger: models.Trigger{Type: models.TriggerDealCreated},
		Actions: []models.Action{{Type: "send_email"}},
	})
	saveWorkflow(t, store, &models.Workflow{
		TeamID:  "team-2",
		Name:    "Other team",
		Enabled: true,
		Trigger: models.Trigger{Type: models.TriggerDealCreated},
		Actions: []models.Action{{Type: "send_email"}},
	})
	saveWorkflow(t, store, &models.Workflow{
		TeamID:  "team-1",
		Name:    "Other trigger",
		Enabled: true,
		Trigger: models.Trigger{Type: models.TriggerDealDeleted},
		Actions: []models.Action{{Type: "send_email"}},
	})

	eng := newTestEngine(t, store, map[string]*mocks.MockCapability{"send_email": email})

	event := events.NewDealEvent("evt-4", models.TriggerDealCreated, wonDeal(), nil)

	results, err := eng.OnEvent(t.Context(), event)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, matching.ID, results[0].WorkflowID)
}

func TestOnEvent_CandidateOrderByCreation(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	email := &mocks.MockCapability{CapabilityID: "send_email"}
	email.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	older := saveWorkflow(t, store, &models.Workflow{
		ID:        "b-older",
		TeamID:    "team-1",
		Name:      "Older",
		Enabled:   true,
		Trigger:   models.Trigger{Type: models.TriggerDealCreated},
		Actions:   []models.Action{{Type: "send_email"}},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	newer := saveWorkflow(t, store, &models.Workflow{
		ID:        "a-newer",
		TeamID:    "team-1",
		Name:      "Newer",
		Enabled:   true,
		Trigger:   models.Trigger{Type: models.TriggerDealCreated},
		Actions:   []models.Action{{Type: "send_email"}},
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})

	eng := newTestEngine(t, store, map[string]*mocks.MockCapability{"send_email": email})

	event := events.NewDealEvent("evt-5", models.TriggerDealCreated, wonDeal(), nil)

	results, err := eng.OnEvent(t.Context(), event)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, older.ID, results[0].WorkflowID)
	assert.Equal(t, newer.ID, results[1].WorkflowID)
}

func TestOnEvent_StoreErrorIsFatal(t *testing.T) {
	store := &mocks.MockPersistence{}
	store.On("ListEnabledByTeamAndTrigger", mock.Anything, "team-1", models.TriggerDealCreated).
		Return(nil, errors.New("connection refused"))

	reg := registry.NewRegistry(testLogger())
	executor := NewExecutor(testLogger(), reg, 0)
	eng := NewEngine(testLogger(), store, executor, nil)

	event := events.NewDealEvent("evt-6", models.TriggerDealCreated, wonDeal(), nil)

	_, err := eng.OnEvent(t.Context(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestOnEvent_PublishesExecutionEvents(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	email := &mocks.MockCapability{CapabilityID: "send_email"}
	email.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	workflow := saveWorkflow(t, store, &models.Workflow{
		TeamID:  "team-1",
		Name:    "Notify feed",
		Enabled: true,
		Trigger: models.Trigger{Type: models.TriggerDealCreated},
		Actions: []models.Action{{Type: "send_email"}},
	})

	reg := registry.NewRegistry(testLogger())
	reg.RegisterAction(models.ActionDescriptor{Type: "send_email"}, email)

	bus := &mocks.MockEventBus{}
	bus.On("PublishExecution", mock.Anything, "team-1", mock.MatchedBy(func(executed *events.AutomationExecuted) bool {
		return executed.WorkflowID == workflow.ID &&
			executed.Success &&
			executed.TriggerType == models.TriggerDealCreated
	})).Return(nil)

	eng := NewEngine(testLogger(), store, NewExecutor(testLogger(), reg, 0), bus)

	event := events.NewDealEvent("evt-7", models.TriggerDealCreated, wonDeal(), nil)

	_, err := eng.OnEvent(t.Context(), event)
	require.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestOnEvent_PublishFailureIsNotFatal(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	email := &mocks.MockCapability{CapabilityID: "send_email"}
	email.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	saveWorkflow(t, store, &models.Workflow{
		TeamID:  "team-1",
		Name:    "Notify feed",
		Enabled: true,
		Trigger: models.Trigger{Type: models.TriggerDealCreated},
		Actions: []models.Action{{Type: "send_email"}},
	})

	reg := registry.NewRegistry(testLogger())
	reg.RegisterAction(models.ActionDescriptor{Type: "send_email"}, email)

	bus := &mocks.MockEventBus{}
	bus.On("PublishExecution", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	eng := NewEngine(testLogger(), store, NewExecutor(testLogger(), reg, 0), bus)

	event := events.NewDealEvent("evt-8", models.TriggerDealCreated, wonDeal(), nil)

	results, err := eng.OnEvent(t.Context(), event)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Succeeded())
}
