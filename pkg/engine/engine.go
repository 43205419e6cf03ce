package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dealgrid/dealgrid/pkg/conditions"
	"github.com/dealgrid/dealgrid/pkg/eventbus"
	"github.com/dealgrid/dealgrid/pkg/events"
	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/otelhelper"
	"github.com/dealgrid/dealgrid/pkg/persistence"
	"github.com/dealgrid/dealgrid/pkg/protocol"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the trigger dispatcher: it receives one CRM domain event,
// selects the team's matching enabled workflows, gates them through the
// condition evaluator and executes their actions in order.
//
// OnEvent is safe for concurrent use; overlapping events only share state
// through the persistence layer, whose stats increments are atomic.
type Engine struct {
	persistence persistence.Persistence
	executor    *Executor
	publisher   eventbus.ExecutionPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// NewEngine creates an engine. publisher may be nil, in which case no
// execution events are emitted.
func NewEngine(log *slog.Logger, store persistence.Persistence, executor *Executor, publisher eventbus.ExecutionPublisher) *Engine {
	return &Engine{
		persistence: store,
		executor:    executor,
		publisher:   publisher,
		logger:      log,
		now:         time.Now,
	}
}

// WithTracer enables per-event tracing.
func (e *Engine) WithTracer(tracer trace.Tracer) *Engine {
	e.tracer = tracer

	return e
}

// OnEvent processes one domain event. Business-level failures (bad config,
// downstream errors) are captured per action inside the returned results;
// only persistence failures surface as an error, so the delivery layer can
// retry the whole event.
func (e *Engine) OnEvent(ctx context.Context, event *events.DealEvent) ([]models.ExecutionResult, error) {
	logger := e.logger.With(
		"event_id", event.ID,
		"event_type", event.Type,
		"team_id", event.TeamID,
		"deal_id", event.Deal.ID,
	)

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "engine.on_event",
			attribute.String(otelhelper.EventIDKey, event.ID),
			attribute.String(otelhelper.TriggerTypeKey, string(event.Type)),
			attribute.String(otelhelper.TeamIDKey, event.TeamID),
		)
		defer span.End()
	}

	candidates, err := e.persistence.ListEnabledByTeamAndTrigger(ctx, event.TeamID, event.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate workflows: %w", err)
	}

	logger.DebugContext(ctx, "Matched candidate workflows", "candidates", len(candidates))

	results := make([]models.ExecutionResult, 0, len(candidates))

	for _, workflow := range candidates {
		result := e.runWorkflow(ctx, logger, workflow, event)
		results = append(results, result)

		if !result.Matched {
			continue
		}

		err = e.persistence.IncrementStats(ctx, workflow.ID, result.Outcome(), e.now())
		if err != nil {
			return results, fmt.Errorf("failed to persist stats for workflow %s: %w", workflow.ID, err)
		}

		e.publishResult(ctx, logger, workflow, event, result)
	}

	return results, nil
}

// runWorkflow gates one candidate and, on match, executes its actions
// sequentially in list order. Action ordering is a user-visible contract.
func (e *Engine) runWorkflow(ctx context.Context, logger *slog.Logger, workflow *models.Workflow, event *events.DealEvent) models.ExecutionResult {
	result := models.ExecutionResult{WorkflowID: workflow.ID}

	if !conditions.Evaluate(event.Deal, workflow.Conditions) {
		logger.DebugContext(ctx, "Conditions did not match", "workflow_id", workflow.ID)

		return result
	}

	result.Matched = true

	capCtx := protocol.CapabilityContext{
		TeamID:       event.TeamID,
		Deal:         event.Deal,
		PreviousDeal: event.PreviousDeal,
		Workflow:     workflow,
	}

	result.ActionResults = make([]models.ActionResult, 0, len(workflow.Actions))

	for _, action := range workflow.Actions {
		actionResult := e.executor.ExecuteAction(ctx, action, capCtx)
		result.ActionResults = append(result.ActionResults, actionResult)

		if !actionResult.OK {
			logger.WarnContext(ctx, "Action failed",
				"workflow_id", workflow.ID,
				"action_type", action.Type,
				"error", actionResult.Error,
			)
		}
	}

	return result
}

// publishResult emits the execution outcome for the notification feed.
// Publishing is best effort; the stats record is the source of truth.
func (e *Engine) publishResult(ctx context.Context, logger *slog.Logger, workflow *models.Workflow, event *events.DealEvent, result models.ExecutionResult) {
	if e.publisher == nil {
		return
	}

	executed := &events.AutomationExecuted{
		ID:            uuid.New().String(),
		WorkflowID:    workflow.ID,
		WorkflowName:  workflow.Name,
		TeamID:        event.TeamID,
		DealID:        event.Deal.ID,
		TriggerType:   event.Type,
		Success:       result.Succeeded(),
		ActionResults: result.ActionResults,
		ExecutedAt:    e.now().UTC(),
	}

	err := e.publisher.PublishExecution(ctx, workflow.TeamID, executed)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish execution result",
			"workflow_id", workflow.ID, "error", err)
	}
}
