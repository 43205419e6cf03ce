// Package fieldupdate implements the update_field action: a single deal
// field mutation requested through the CRM core service.
package fieldupdate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dealgrid/dealgrid/pkg/protocol"
	"github.com/dealgrid/dealgrid/pkg/template"
)

// DealUpdater is the CRM-side collaborator that applies field mutations.
type DealUpdater interface {
	UpdateDealField(ctx context.Context, teamID, dealID, field, value string) error
}

type Capability struct {
	updater DealUpdater
	logger  *slog.Logger
}

func NewCapability(logger *slog.Logger, updater DealUpdater) *Capability {
	return &Capability{
		updater: updater,
		logger:  logger.With("capability", "update_field"),
	}
}

func (*Capability) ID() string {
	return "update_field"
}

func (c *Capability) Invoke(ctx context.Context, config map[string]string, capCtx protocol.CapabilityContext) error {
	field := config["field"]
	if field == "" {
		return errors.New("update_field requires a field")
	}

	value, err := template.Render(config["value"], capCtx)
	if err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "Updating deal field",
		"deal_id", capCtx.Deal.ID, "field", field)

	return c.updater.UpdateDealField(ctx, capCtx.TeamID, capCtx.Deal.ID, field, value)
}
