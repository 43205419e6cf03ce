// Package persistence provides the storage abstraction for workflows and
// their execution statistics.
package persistence

import (
	"context"
	"time"

	"github.com/dealgrid/dealgrid/pkg/models"
)

// Persistence is the workflow store. Implementations must make
// IncrementStats atomic per workflow: concurrent executions of the same
// workflow may not lose counter updates. List results are ordered by
// creation time, ties broken by id.
type Persistence interface {
	Workflows(ctx context.Context, teamID string) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	// ListEnabledByTeamAndTrigger returns the engine's candidate set: enabled
	// workflows of the team whose trigger type equals triggerType.
	ListEnabledByTeamAndTrigger(ctx context.Context, teamID string, triggerType models.TriggerType) ([]*models.Workflow, error)

	IncrementStats(ctx context.Context, workflowID string, outcome models.ExecutionOutcome, at time.Time) error
	ResetStats(ctx context.Context, workflowID string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
