package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/persistence"
	"github.com/dealgrid/dealgrid/pkg/registry"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow is the authoring service. It owns the write path for automation
// rules: every create and update passes through catalog validation before
// touching the store, so the engine only ever loads well-formed workflows.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, registry *registry.Registry) *Workflow {
	return &Workflow{
		persistence: persistence,
		registry:    registry,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves the team's workflows ordered by creation time.
func (w *Workflow) List(ctx context.Context, teamID string) ([]*models.Workflow, error) {
	if teamID == "" {
		return nil, ErrTeamIDRequired
	}

	workflows, err := w.persistence.Workflows(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID, scoped to the team.
func (w *Workflow) FetchByID(ctx context.Context, teamID, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	if teamID != "" && workflow.TeamID != teamID {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// Create adds a new workflow. The stats block always starts zeroed, whatever
// the caller sent.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	if err := w.validateWorkflow(workflow); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate workflow ID: %w", err)
	}

	now := time.Now().UTC()
	workflow.ID = id.String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now
	workflow.Stats = models.Stats{}

	err = w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update replaces the definition of an existing workflow. Identity, team,
// stats and creation time are carried over from the stored copy.
func (w *Workflow) Update(ctx context.Context, teamID, workflowID string, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	existing, err := w.FetchByID(ctx, teamID, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.ID = existing.ID
	workflow.TeamID = existing.TeamID
	workflow.Stats = existing.Stats
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if err := w.validateWorkflow(workflow); err != nil {
		return nil, err
	}

	err = w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, teamID, workflowID string) error {
	if _, err := w.FetchByID(ctx, teamID, workflowID); err != nil {
		return err
	}

	err := w.persistence.DeleteWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// SetEnabled toggles whether the engine considers the workflow at all.
func (w *Workflow) SetEnabled(ctx context.Context, teamID, workflowID string, enabled bool) (*models.Workflow, error) {
	existing, err := w.FetchByID(ctx, teamID, workflowID)
	if err != nil {
		return nil, err
	}

	if existing.Enabled == enabled {
		return existing, nil
	}

	existing.Enabled = enabled
	existing.UpdatedAt = time.Now().UTC()

	err = w.persistence.SaveWorkflow(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return existing, nil
}

// ResetStats zeroes the workflow's execution counters.
func (w *Workflow) ResetStats(ctx context.Context, teamID, workflowID string) (*models.Workflow, error) {
	existing, err := w.FetchByID(ctx, teamID, workflowID)
	if err != nil {
		return nil, err
	}

	err = w.persistence.ResetStats(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to reset stats: %w", err)
	}

	existing.Stats = models.Stats{}

	return existing, nil
}

// validateWorkflow enforces the invariants the engine depends on. Trigger and
// action types must exist in the catalog, their configs must satisfy the
// descriptor schemas, and at least one action must be present.
func (w *Workflow) validateWorkflow(workflow *models.Workflow) error {
	if workflow.TeamID == "" {
		return ErrTeamIDRequired
	}

	if workflow.Name == "" {
		return ErrWorkflowNameRequired
	}

	if len(workflow.Actions) == 0 {
		return ErrActionsRequired
	}

	if _, ok := w.registry.TriggerDescriptor(workflow.Trigger.Type); !ok {
		return NewValidationError(
			"validateWorkflow",
			"UNKNOWN_TRIGGER_TYPE",
			fmt.Sprintf("unknown trigger type '%s'", workflow.Trigger.Type),
			ErrUnknownTriggerType,
		)
	}

	if fieldErrors := w.registry.ValidateTriggerConfig(workflow.Trigger.Type, workflow.Trigger.Config); len(fieldErrors) > 0 {
		return configError("trigger", string(workflow.Trigger.Type), fieldErrors)
	}

	for i, action := range workflow.Actions {
		if _, ok := w.registry.ActionDescriptor(action.Type); !ok {
			return NewValidationError(
				"validateWorkflow",
				"UNKNOWN_ACTION_TYPE",
				fmt.Sprintf("unknown action type '%s' at index %d", action.Type, i),
				ErrUnknownActionType,
			)
		}

		if fieldErrors := w.registry.ValidateActionConfig(action.Type, action.Config); len(fieldErrors) > 0 {
			return configError("action", action.Type, fieldErrors)
		}
	}

	for i, condition := range workflow.Conditions {
		if err := validateCondition(i, condition); err != nil {
			return err
		}
	}

	return nil
}

func validateCondition(index int, condition models.Condition) error {
	validFields := map[models.DealField]bool{
		models.FieldStage:       true,
		models.FieldAmount:      true,
		models.FieldProbability: true,
		models.FieldCloseDate:   true,
		models.FieldTags:        true,
	}

	validOperators := map[models.Operator]bool{
		models.OperatorEquals:      true,
		models.OperatorNotEquals:   true,
		models.OperatorGreaterThan: true,
		models.OperatorLessThan:    true,
		models.OperatorContains:    true,
		models.OperatorNotContains: true,
		models.OperatorIsEmpty:     true,
		models.OperatorIsNotEmpty:  true,
	}

	if !validFields[condition.Field] {
		return NewValidationError(
			"validateCondition",
			"INVALID_CONDITION",
			fmt.Sprintf("unknown field '%s' in condition %d", condition.Field, index),
			ErrInvalidCondition,
		)
	}

	if !validOperators[condition.Operator] {
		return NewValidationError(
			"validateCondition",
			"INVALID_CONDITION",
			fmt.Sprintf("unknown operator '%s' in condition %d", condition.Operator, index),
			ErrInvalidCondition,
		)
	}

	return nil
}

func configError(kind, typeName string, fieldErrors []models.FieldError) error {
	detail := fmt.Sprintf("invalid %s configuration for '%s':", kind, typeName)
	for _, fieldError := range fieldErrors {
		detail += fmt.Sprintf(" %s: %s;", fieldError.Field, fieldError.Message)
	}

	return NewValidationError("validateWorkflow", "INVALID_CONFIG", detail, ErrInvalidConfig)
}
