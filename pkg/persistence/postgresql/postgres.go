// Package postgresql provides PostgreSQL persistence for workflows. Stats
// increments are single arithmetic UPDATEs, so concurrent executions of the
// same workflow never lose counts.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/persistence"
	"github.com/dealgrid/dealgrid/pkg/persistence/sqlbase"
	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver
)

const workflowColumns = `
	id
  , team_id
  , name
  , description
  , enabled
  , trigger_type
  , trigger_config
  , conditions
  , actions
  , total_executions
  , successful_executions
  , failed_executions
  , last_executed_at
  , created_at
  , updated_at
`

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence opens the database, runs migrations and returns the store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:     database,
		logger: logger,
	}, nil
}

func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context, teamID string) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE ($1 = '' OR team_id = $1)
		ORDER BY created_at, id
	`

	return p.queryWorkflows(ctx, query, teamID)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE id = $1
	`

	row := p.db.QueryRowContext(ctx, query, id)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	triggerConfigJSON, err := json.Marshal(configOrEmpty(workflow.Trigger.Config))
	if err != nil {
		return fmt.Errorf("failed to marshal trigger config: %w", err)
	}

	conditionsJSON, err := json.Marshal(conditionsOrEmpty(workflow.Conditions))
	if err != nil {
		return fmt.Errorf("failed to marshal conditions: %w", err)
	}

	actionsJSON, err := json.Marshal(workflow.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
		INSERT INTO workflows (
			id, team_id, name, description, enabled,
			trigger_type, trigger_config, conditions, actions,
			total_executions, successful_executions, failed_executions, last_executed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			enabled = EXCLUDED.enabled,
			trigger_type = EXCLUDED.trigger_type,
			trigger_config = EXCLUDED.trigger_config,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			updated_at = EXCLUDED.updated_at
	`

	_, err = p.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.TeamID,
		workflow.Name,
		workflow.Description,
		workflow.Enabled,
		string(workflow.Trigger.Type),
		triggerConfigJSON,
		conditionsJSON,
		actionsJSON,
		workflow.Stats.TotalExecutions,
		workflow.Stats.SuccessfulExecutions,
		workflow.Stats.FailedExecutions,
		workflow.Stats.LastExecutedAt,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (p *Persistence) ListEnabledByTeamAndTrigger(ctx context.Context, teamID string, triggerType models.TriggerType) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE team_id = $1 AND trigger_type = $2 AND enabled
		ORDER BY created_at, id
	`

	return p.queryWorkflows(ctx, query, teamID, string(triggerType))
}

// IncrementStats applies the counter update server-side so overlapping
// executions serialize at the row level.
func (p *Persistence) IncrementStats(ctx context.Context, workflowID string, outcome models.ExecutionOutcome, at time.Time) error {
	var outcomeColumn string

	switch outcome {
	case models.OutcomeSuccess:
		outcomeColumn = "successful_executions"
	case models.OutcomeFailure:
		outcomeColumn = "failed_executions"
	default:
		return persistence.NewWorkflowError("IncrementStats", workflowID, persistence.ErrInvalidOutcome)
	}

	query := `
		UPDATE workflows SET
			total_executions = total_executions + 1,
			` + outcomeColumn + ` = ` + outcomeColumn + ` + 1,
			last_executed_at = $2
		WHERE id = $1
	`

	result, err := p.db.ExecContext(ctx, query, workflowID, at.UTC())
	if err != nil {
		return persistence.NewWorkflowError("IncrementStats", workflowID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("IncrementStats", workflowID, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("IncrementStats", workflowID, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (p *Persistence) ResetStats(ctx context.Context, workflowID string) error {
	query := `
		UPDATE workflows SET
			total_executions = 0,
			successful_executions = 0,
			failed_executions = 0,
			last_executed_at = NULL
		WHERE id = $1
	`

	result, err := p.db.ExecContext(ctx, query, workflowID)
	if err != nil {
		return persistence.NewWorkflowError("ResetStats", workflowID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("ResetStats", workflowID, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("ResetStats", workflowID, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (p *Persistence) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			p.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row scanner) (*models.Workflow, error) {
	workflow := &models.Workflow{}

	var (
		triggerType       string
		triggerConfigJSON []byte
		conditionsJSON    []byte
		actionsJSON       []byte
		lastExecutedAt    sql.NullTime
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.TeamID,
		&workflow.Name,
		&workflow.Description,
		&workflow.Enabled,
		&triggerType,
		&triggerConfigJSON,
		&conditionsJSON,
		&actionsJSON,
		&workflow.Stats.TotalExecutions,
		&workflow.Stats.SuccessfulExecutions,
		&workflow.Stats.FailedExecutions,
		&lastExecutedAt,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.Trigger.Type = models.TriggerType(triggerType)

	err = json.Unmarshal(triggerConfigJSON, &workflow.Trigger.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger config: %w", err)
	}

	err = json.Unmarshal(conditionsJSON, &workflow.Conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}

	err = json.Unmarshal(actionsJSON, &workflow.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}

	if lastExecutedAt.Valid {
		at := lastExecutedAt.Time.UTC()
		workflow.Stats.LastExecutedAt = &at
	}

	return workflow, nil
}

func configOrEmpty(config map[string]string) map[string]string {
	if config == nil {
		return map[string]string{}
	}

	return config
}

func conditionsOrEmpty(conditions []models.Condition) []models.Condition {
	if conditions == nil {
		return []models.Condition{}
	}

	return conditions
}
