package file

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/persistence"
)

func newWorkflow(teamID, name string) *models.Workflow {
	return &models.Workflow{
		TeamID:  teamID,
		Name:    name,
		Enabled: true,
		Trigger: models.Trigger{Type: models.TriggerDealCreated},
		Actions: []models.Action{
			{Type: "send_email", Config: map[string]string{"to": "a@b.c", "subject": "hi"}},
		},
	}
}

func TestSaveWorkflow_GeneratesIDAndTimestamps(t *testing.T) {
	store := NewPersistence(t.TempDir())

	workflow := newWorkflow("team-1", "First")
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	assert.NotEmpty(t, workflow.ID)
	assert.False(t, workflow.CreatedAt.IsZero())
	assert.False(t, workflow.UpdatedAt.IsZero())

	loaded, err := store.WorkflowByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	assert.Equal(t, workflow.TeamID, loaded.TeamID)
}

func TestWorkflowByID_NotFound(t *testing.T) {
	store := NewPersistence(t.TempDir())

	_, err := store.WorkflowByID(t.Context(), "missing")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflows_FiltersByTeam(t *testing.T) {
	store := NewPersistence(t.TempDir())

	require.NoError(t, store.SaveWorkflow(t.Context(), newWorkflow("team-1", "A")))
	require.NoError(t, store.SaveWorkflow(t.Context(), newWorkflow("team-2", "B")))
	require.NoError(t, store.SaveWorkflow(t.Context(), newWorkflow("team-1", "C")))

	workflows, err := store.Workflows(t.Context(), "team-1")
	require.NoError(t, err)
	assert.Len(t, workflows, 2)

	for _, workflow := range workflows {
		assert.Equal(t, "team-1", workflow.TeamID)
	}
}

func TestWorkflows_OrderedByCreation(t *testing.T) {
	store := NewPersistence(t.TempDir())

	older := newWorkflow("team-1", "Older")
	older.ID = "z-older"
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	newer := newWorkflow("team-1", "Newer")
	newer.ID = "a-newer"
	newer.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveWorkflow(t.Context(), newer))
	require.NoError(t, store.SaveWorkflow(t.Context(), older))

	workflows, err := store.Workflows(t.Context(), "team-1")
	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, "z-older", workflows[0].ID)
	assert.Equal(t, "a-newer", workflows[1].ID)
}

func TestDeleteWorkflow(t *testing.T) {
	store := NewPersistence(t.TempDir())

	workflow := newWorkflow("team-1", "Doomed")
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	require.NoError(t, store.DeleteWorkflow(t.Context(), workflow.ID))

	_, err := store.WorkflowByID(t.Context(), workflow.ID)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	err = store.DeleteWorkflow(t.Context(), workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestListEnabledByTeamAndTrigger(t *testing.T) {
	store := NewPersistence(t.TempDir())

	enabled := newWorkflow("team-1", "Enabled")
	require.NoError(t, store.SaveWorkflow(t.Context(), enabled))

	disabled := newWorkflow("team-1", "Disabled")
	disabled.Enabled = false
	require.NoError(t, store.SaveWorkflow(t.Context(), disabled))

	otherTrigger := newWorkflow("team-1", "Other trigger")
	otherTrigger.Trigger.Type = models.TriggerDealDeleted
	require.NoError(t, store.SaveWorkflow(t.Context(), otherTrigger))

	candidates, err := store.ListEnabledByTeamAndTrigger(t.Context(), "team-1", models.TriggerDealCreated)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, enabled.ID, candidates[0].ID)
}

func TestIncrementStats(t *testing.T) {
	store := NewPersistence(t.TempDir())

	workflow := newWorkflow("team-1", "Counted")
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.IncrementStats(t.Context(), workflow.ID, models.OutcomeSuccess, at))
	require.NoError(t, store.IncrementStats(t.Context(), workflow.ID, models.OutcomeFailure, at.Add(time.Minute)))

	loaded, err := store.WorkflowByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Stats.TotalExecutions)
	assert.Equal(t, int64(1), loaded.Stats.SuccessfulExecutions)
	assert.Equal(t, int64(1), loaded.Stats.FailedExecutions)
	require.NotNil(t, loaded.Stats.LastExecutedAt)
	assert.Equal(t, at.Add(time.Minute), *loaded.Stats.LastExecutedAt)
}

func TestIncrementStats_InvalidOutcome(t *testing.T) {
	store := NewPersistence(t.TempDir())

	workflow := newWorkflow("team-1", "Counted")
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	err := store.IncrementStats(t.Context(), workflow.ID, "maybe", time.Now())
	assert.ErrorIs(t, err, persistence.ErrInvalidOutcome)
}

func TestIncrementStats_Concurrent(t *testing.T) {
	store := NewPersistence(t.TempDir())

	workflow := newWorkflow("team-1", "Contended")
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	const goroutines = 100

	var wg sync.WaitGroup

	wg.Add(goroutines)

	for i := range goroutines {
		go func(i int) {
			defer wg.Done()

			outcome := models.OutcomeSuccess
			if i%2 == 1 {
				outcome = models.OutcomeFailure
			}

			assert.NoError(t, store.IncrementStats(t.Context(), workflow.ID, outcome, time.Now()))
		}(i)
	}

	wg.Wait()

	loaded, err := store.WorkflowByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines), loaded.Stats.TotalExecutions)
	assert.Equal(t, int64(goroutines/2), loaded.Stats.SuccessfulExecutions)
	assert.Equal(t, int64(goroutines/2), loaded.Stats.FailedExecutions)
}

func TestResetStats(t *testing.T) {
	store := NewPersistence(t.TempDir())

	workflow := newWorkflow("team-1", "Reset me")
	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))
	require.NoError(t, store.IncrementStats(t.Context(), workflow.ID, models.OutcomeSuccess, time.Now()))

	require.NoError(t, store.ResetStats(t.Context(), workflow.ID))

	loaded, err := store.WorkflowByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{}, loaded.Stats)
}
