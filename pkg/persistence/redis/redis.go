// Package redis provides Redis persistence for workflows. Definitions are
// stored as JSON values; execution counters live in a per-workflow hash so
// HIncrBy gives atomic, lock-free stats updates.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/persistence"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const workflowKeyPrefix = "dealgrid:workflow:"
const workflowIndexKey = "dealgrid:workflows"

const statsFieldTotal = "total"
const statsFieldSuccessful = "successful"
const statsFieldFailed = "failed"
const statsFieldLastExecutedAt = "last_executed_at"

// Persistence implements persistence.Persistence on Redis.
type Persistence struct {
	client *goredis.Client
	logger *slog.Logger
}

// NewPersistence connects to Redis using a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := goredis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{
		client: client,
		logger: logger,
	}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context, teamID string) ([]*models.Workflow, error) {
	ids, err := p.client.SMembers(ctx, workflowIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow ids: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := p.WorkflowByID(ctx, id)
		if persistence.IsWorkflowNotFound(err) {
			// Removed between index read and fetch.
			continue
		}

		if err != nil {
			return nil, err
		}

		if teamID == "" || workflow.TeamID == teamID {
			workflows = append(workflows, workflow)
		}
	}

	persistence.OrderByCreation(workflows)

	return workflows, nil
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	data, err := p.client.Get(ctx, workflowKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.ErrWorkflowNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get workflow %s: %w", id, err)
	}

	workflow := &models.Workflow{}

	err = json.Unmarshal(data, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}

	err = p.loadStats(ctx, workflow)
	if err != nil {
		return nil, err
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

	// Stats are authoritative in the hash; the definition value stores the
	// static shape only.
	definition := *workflow
	definition.Stats = models.Stats{}

	data, err := json.Marshal(&definition)
	if err != nil {
		return fmt.Errorf("failed to encode workflow %s: %w", workflow.ID, err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, workflowKey(workflow.ID), data, 0)
	pipe.SAdd(ctx, workflowIndexKey, workflow.ID)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	removed, err := p.client.Del(ctx, workflowKey(id)).Result()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if removed == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	pipe := p.client.TxPipeline()
	pipe.Del(ctx, statsKey(id))
	pipe.SRem(ctx, workflowIndexKey, id)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

func (p *Persistence) ListEnabledByTeamAndTrigger(ctx context.Context, teamID string, triggerType models.TriggerType) ([]*models.Workflow, error) {
	workflows, err := p.Workflows(ctx, teamID)
	if err != nil {
		return nil, err
	}

	candidates := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if workflow.Enabled && workflow.Trigger.Type == triggerType {
			candidates = append(candidates, workflow)
		}
	}

	return candidates, nil
}

func (p *Persistence) IncrementStats(ctx context.Context, workflowID string, outcome models.ExecutionOutcome, at time.Time) error {
	var outcomeField string

	switch outcome {
	case models.OutcomeSuccess:
		outcomeField = statsFieldSuccessful
	case models.OutcomeFailure:
		outcomeField = statsFieldFailed
	default:
		return persistence.NewWorkflowError("IncrementStats", workflowID, persistence.ErrInvalidOutcome)
	}

	exists, err := p.client.Exists(ctx, workflowKey(workflowID)).Result()
	if err != nil {
		return persistence.NewWorkflowError("IncrementStats", workflowID, err)
	}

	if exists == 0 {
		return persistence.NewWorkflowError("IncrementStats", workflowID, persistence.ErrWorkflowNotFound)
	}

	pipe := p.client.TxPipeline()
	pipe.HIncrBy(ctx, statsKey(workflowID), statsFieldTotal, 1)
	pipe.HIncrBy(ctx, statsKey(workflowID), outcomeField, 1)
	pipe.HSet(ctx, statsKey(workflowID), statsFieldLastExecutedAt, at.UTC().Format(time.RFC3339Nano))

	_, err = pipe.Exec(ctx)
	if err != nil {
		return persistence.NewWorkflowError("IncrementStats", workflowID, err)
	}

	return nil
}

func (p *Persistence) ResetStats(ctx context.Context, workflowID string) error {
	exists, err := p.client.Exists(ctx, workflowKey(workflowID)).Result()
	if err != nil {
		return persistence.NewWorkflowError("ResetStats", workflowID, err)
	}

	if exists == 0 {
		return persistence.NewWorkflowError("ResetStats", workflowID, persistence.ErrWorkflowNotFound)
	}

	err = p.client.Del(ctx, statsKey(workflowID)).Err()
	if err != nil {
		return persistence.NewWorkflowError("ResetStats", workflowID, err)
	}

	return nil
}

func (p *Persistence) loadStats(ctx context.Context, workflow *models.Workflow) error {
	fields, err := p.client.HGetAll(ctx, statsKey(workflow.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to load stats for workflow %s: %w", workflow.ID, err)
	}

	workflow.Stats.TotalExecutions = parseCounter(fields[statsFieldTotal])
	workflow.Stats.SuccessfulExecutions = parseCounter(fields[statsFieldSuccessful])
	workflow.Stats.FailedExecutions = parseCounter(fields[statsFieldFailed])

	if raw := fields[statsFieldLastExecutedAt]; raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err == nil {
			workflow.Stats.LastExecutedAt = &at
		}
	}

	return nil
}

func parseCounter(raw string) int64 {
	if raw == "" {
		return 0
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}

	return value
}

func workflowKey(id string) string {
	return workflowKeyPrefix + id
}

func statsKey(id string) string {
	return workflowKeyPrefix + id + ":stats"
}
