// Package email implements the send_email action. Delivery goes through the
// provider integration layer; this capability only shapes the message.
package email

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dealgrid/dealgrid/pkg/protocol"
	"github.com/dealgrid/dealgrid/pkg/template"
)

// Sender is the provider-integration collaborator that delivers mail.
type Sender interface {
	SendEmail(ctx context.Context, teamID, dealID, to, subject, body string) error
}

type Capability struct {
	sender Sender
	logger *slog.Logger
}

func NewCapability(logger *slog.Logger, sender Sender) *Capability {
	return &Capability{
		sender: sender,
		logger: logger.With("capability", "send_email"),
	}
}

func (*Capability) ID() string {
	return "send_email"
}

func (c *Capability) Invoke(ctx context.Context, config map[string]string, capCtx protocol.CapabilityContext) error {
	to, err := template.Render(config["to"], capCtx)
	if err != nil {
		return err
	}

	if to == "" {
		return errors.New("send_email requires a recipient")
	}

	subject, err := template.Render(config["subject"], capCtx)
	if err != nil {
		return err
	}

	body, err := template.Render(config["body"], capCtx)
	if err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "Sending email", "deal_id", capCtx.Deal.ID, "to", to)

	return c.sender.SendEmail(ctx, capCtx.TeamID, capCtx.Deal.ID, to, subject, body)
}
