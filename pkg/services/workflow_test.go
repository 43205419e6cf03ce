package services

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealgrid/dealgrid/pkg/mocks"
	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/persistence/file"
	"github.com/dealgrid/dealgrid/pkg/registry"
)

func testService(t *testing.T) *Workflow {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	reg := registry.NewRegistry(logger)
	registry.RegisterCatalog(reg, registry.Capabilities{
		UpdateField:      &mocks.MockCapability{CapabilityID: "update_field"},
		CreateTask:       &mocks.MockCapability{CapabilityID: "create_task"},
		SendEmail:        &mocks.MockCapability{CapabilityID: "send_email"},
		SendNotification: &mocks.MockCapability{CapabilityID: "send_notification"},
		Webhook:          &mocks.MockCapability{CapabilityID: "webhook"},
	})

	return NewWorkflow(file.NewPersistence(t.TempDir()), reg)
}

func validWorkflow() *models.Workflow {
	return &models.Workflow{
		TeamID:  "team-1",
		Name:    "Won deal follow-up",
		Enabled: true,
		Trigger: models.Trigger{Type: models.TriggerDealStageChanged},
		Conditions: []models.Condition{
			{Field: models.FieldStage, Operator: models.OperatorEquals, Value: "won"},
		},
		Actions: []models.Action{
			{Type: "send_email", Config: map[string]string{"to": "a@b.c", "subject": "congrats"}},
		},
	}
}

func TestWorkflow_Create(t *testing.T) {
	service := testService(t)

	workflow := validWorkflow()
	workflow.Stats = models.Stats{TotalExecutions: 99}

	created, err := service.Create(t.Context(), workflow)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	// Client-supplied stats are discarded.
	assert.Equal(t, models.Stats{}, created.Stats)
}

func TestWorkflow_Create_Validation(t *testing.T) {
	service := testService(t)

	tests := []struct {
		name    string
		mutate  func(w *models.Workflow)
		wantErr error
	}{
		{
			name:    "missing team",
			mutate:  func(w *models.Workflow) { w.TeamID = "" },
			wantErr: ErrTeamIDRequired,
		},
		{
			name:    "missing name",
			mutate:  func(w *models.Workflow) { w.Name = "" },
			wantErr: ErrWorkflowNameRequired,
		},
		{
			name:    "no actions",
			mutate:  func(w *models.Workflow) { w.Actions = nil },
			wantErr: ErrActionsRequired,
		},
		{
			name:    "unknown trigger type",
			mutate:  func(w *models.Workflow) { w.Trigger.Type = "deal_exploded" },
			wantErr: ErrUnknownTriggerType,
		},
		{
			name:    "unknown action type",
			mutate:  func(w *models.Workflow) { w.Actions[0].Type = "launch_rocket" },
			wantErr: ErrUnknownActionType,
		},
		{
			name:    "action config missing required field",
			mutate:  func(w *models.Workflow) { delete(w.Actions[0].Config, "subject") },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "condition with unknown field",
			mutate:  func(w *models.Workflow) { w.Conditions[0].Field = "mood" },
			wantErr: ErrInvalidCondition,
		},
		{
			name:    "condition with unknown operator",
			mutate:  func(w *models.Workflow) { w.Conditions[0].Operator = "sounds_like" },
			wantErr: ErrInvalidCondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workflow := validWorkflow()
			tt.mutate(workflow)

			_, err := service.Create(t.Context(), workflow)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestWorkflow_FetchByID_TeamScoped(t *testing.T) {
	service := testService(t)

	created, err := service.Create(t.Context(), validWorkflow())
	require.NoError(t, err)

	fetched, err := service.FetchByID(t.Context(), "team-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	// Another team cannot see it.
	_, err = service.FetchByID(t.Context(), "team-2", created.ID)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflow_Update_PreservesIdentityAndStats(t *testing.T) {
	service := testService(t)

	created, err := service.Create(t.Context(), validWorkflow())
	require.NoError(t, err)

	require.NoError(t, service.persistence.IncrementStats(t.Context(), created.ID, models.OutcomeSuccess, created.CreatedAt))

	replacement := validWorkflow()
	replacement.TeamID = "team-9"
	replacement.Name = "Renamed"

	updated, err := service.Update(t.Context(), "team-1", created.ID, replacement)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "team-1", updated.TeamID)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, int64(1), updated.Stats.TotalExecutions)
}

func TestWorkflow_Update_NotFound(t *testing.T) {
	service := testService(t)

	_, err := service.Update(t.Context(), "team-1", "missing", validWorkflow())
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflow_Delete(t *testing.T) {
	service := testService(t)

	created, err := service.Create(t.Context(), validWorkflow())
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), "team-1", created.ID))

	_, err = service.FetchByID(t.Context(), "team-1", created.ID)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflow_SetEnabled(t *testing.T) {
	service := testService(t)

	created, err := service.Create(t.Context(), validWorkflow())
	require.NoError(t, err)
	require.True(t, created.Enabled)

	updated, err := service.SetEnabled(t.Context(), "team-1", created.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	fetched, err := service.FetchByID(t.Context(), "team-1", created.ID)
	require.NoError(t, err)
	assert.False(t, fetched.Enabled)
}

func TestWorkflow_ResetStats(t *testing.T) {
	service := testService(t)

	created, err := service.Create(t.Context(), validWorkflow())
	require.NoError(t, err)

	require.NoError(t, service.persistence.IncrementStats(t.Context(), created.ID, models.OutcomeFailure, created.CreatedAt))

	reset, err := service.ResetStats(t.Context(), "team-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{}, reset.Stats)

	fetched, err := service.FetchByID(t.Context(), "team-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{}, fetched.Stats)
}
