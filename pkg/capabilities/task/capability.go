// Package task implements the create_task action.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dealgrid/dealgrid/pkg/protocol"
	"github.com/dealgrid/dealgrid/pkg/template"
)

// Creator is the CRM-side collaborator that stores tasks.
type Creator interface {
	CreateTask(ctx context.Context, teamID, dealID, title, description string, dueDate *time.Time) error
}

type Capability struct {
	creator Creator
	logger  *slog.Logger
	now     func() time.Time
}

func NewCapability(logger *slog.Logger, creator Creator) *Capability {
	return &Capability{
		creator: creator,
		logger:  logger.With("capability", "create_task"),
		now:     time.Now,
	}
}

func (*Capability) ID() string {
	return "create_task"
}

func (c *Capability) Invoke(ctx context.Context, config map[string]string, capCtx protocol.CapabilityContext) error {
	title, err := template.Render(config["title"], capCtx)
	if err != nil {
		return err
	}

	if title == "" {
		return errors.New("create_task requires a title")
	}

	description, err := template.Render(config["description"], capCtx)
	if err != nil {
		return err
	}

	var dueDate *time.Time

	if raw := config["due_in_days"]; raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid due_in_days %q: %w", raw, err)
		}

		due := c.now().UTC().AddDate(0, 0, days)
		dueDate = &due
	}

	c.logger.DebugContext(ctx, "Creating task", "deal_id", capCtx.Deal.ID, "title", title)

	return c.creator.CreateTask(ctx, capCtx.TeamID, capCtx.Deal.ID, title, description, dueDate)
}
