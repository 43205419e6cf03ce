// Package file provides file-based persistence for workflows. One JSON file
// per workflow under <root>/workflows; a process-wide mutex makes stats
// increments atomic, which is enough for the single-process deployments this
// backend targets.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/persistence"
	"github.com/google/uuid"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a file store rooted at the given directory. Accepts
// a plain path or a file:// URL.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context, teamID string) ([]*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflows, err := p.loadAll()
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if teamID == "" || workflow.TeamID == teamID {
			filtered = append(filtered, workflow)
		}
	}

	persistence.OrderByCreation(filtered)

	return filtered, nil
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.load(id)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

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

	return p.write(workflow)
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	path := p.workflowPath(id)

	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return err
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
	p.mu.Lock()
	defer p.mu.Unlock()

	workflow, err := p.load(workflowID)
	if err != nil {
		return persistence.NewWorkflowError("IncrementStats", workflowID, err)
	}

	workflow.Stats.TotalExecutions++

	switch outcome {
	case models.OutcomeSuccess:
		workflow.Stats.SuccessfulExecutions++
	case models.OutcomeFailure:
		workflow.Stats.FailedExecutions++
	default:
		return persistence.NewWorkflowError("IncrementStats", workflowID, persistence.ErrInvalidOutcome)
	}

	at = at.UTC()
	workflow.Stats.LastExecutedAt = &at

	return p.write(workflow)
}

func (p *Persistence) ResetStats(ctx context.Context, workflowID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	workflow, err := p.load(workflowID)
	if err != nil {
		return persistence.NewWorkflowError("ResetStats", workflowID, err)
	}

	workflow.Stats = models.Stats{}

	return p.write(workflow)
}

func (p *Persistence) workflowsDir() string {
	return filepath.Join(p.root, "workflows")
}

func (p *Persistence) workflowPath(id string) string {
	return filepath.Join(p.workflowsDir(), id+".json")
}

func (p *Persistence) load(id string) (*models.Workflow, error) {
	data, err := os.ReadFile(p.workflowPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.ErrWorkflowNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read workflow %s: %w", id, err)
	}

	workflow := &models.Workflow{}

	err = json.Unmarshal(data, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}

	return workflow, nil
}

func (p *Persistence) loadAll() ([]*models.Workflow, error) {
	root := os.DirFS(p.workflowsDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflow, err := p.load(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (p *Persistence) write(workflow *models.Workflow) error {
	err := os.MkdirAll(p.workflowsDir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode workflow %s: %w", workflow.ID, err)
	}

	err = os.WriteFile(p.workflowPath(workflow.ID), data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	return nil
}
