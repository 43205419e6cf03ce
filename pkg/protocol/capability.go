// Package protocol defines the contracts between the engine and the action
// back-ends it dispatches to.
package protocol

import (
	"context"

	"github.com/dealgrid/dealgrid/pkg/models"
)

// CapabilityContext carries the read-only evaluation context for one action
// invocation.
type CapabilityContext struct {
	TeamID       string
	Deal         models.DealSnapshot
	PreviousDeal *models.DealSnapshot
	Workflow     *models.Workflow
}

// Capability is one external back-end the engine can delegate an action to
// (CRM field mutation, task creation, email, notification dispatch). The
// engine only knows the mapping from action type to capability; any failure
// must be returned, never panicked.
type Capability interface {
	ID() string
	Invoke(ctx context.Context, config map[string]string, capCtx CapabilityContext) error
}
