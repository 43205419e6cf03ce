// Package notify implements the send_notification action.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dealgrid/dealgrid/pkg/protocol"
	"github.com/dealgrid/dealgrid/pkg/template"
)

// Notifier is the notification-service collaborator. Transport (socket,
// push) is its concern, not the engine's.
type Notifier interface {
	Notify(ctx context.Context, teamID, userID, message string) error
}

type Capability struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewCapability(logger *slog.Logger, notifier Notifier) *Capability {
	return &Capability{
		notifier: notifier,
		logger:   logger.With("capability", "send_notification"),
	}
}

func (*Capability) ID() string {
	return "send_notification"
}

func (c *Capability) Invoke(ctx context.Context, config map[string]string, capCtx protocol.CapabilityContext) error {
	userID := config["user_id"]
	if userID == "" {
		return errors.New("send_notification requires a user_id")
	}

	message, err := template.Render(config["message"], capCtx)
	if err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "Dispatching notification",
		"deal_id", capCtx.Deal.ID, "user_id", userID)

	return c.notifier.Notify(ctx, capCtx.TeamID, userID, message)
}
