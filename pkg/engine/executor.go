// Package engine contains the deal automation core: the action executor and
// the trigger dispatcher that reacts to CRM domain events.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/protocol"
	"github.com/dealgrid/dealgrid/pkg/registry"
)

// DefaultActionTimeout bounds a single capability call. Actions that exceed
// it report a timeout failure and the pipeline moves on.
const DefaultActionTimeout = 5 * time.Second

// Executor dispatches one action to its bound capability and converts every
// failure mode into an ActionResult. It never returns an error: one action's
// failure must not block its siblings.
type Executor struct {
	registry *registry.Registry
	timeout  time.Duration
	logger   *slog.Logger
}

func NewExecutor(log *slog.Logger, reg *registry.Registry, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}

	return &Executor{
		registry: reg,
		timeout:  timeout,
		logger:   log,
	}
}

// ExecuteAction runs a single action against its capability.
func (e *Executor) ExecuteAction(ctx context.Context, action models.Action, capCtx protocol.CapabilityContext) models.ActionResult {
	result := models.ActionResult{ActionType: action.Type}

	capability, ok := e.registry.CapabilityFor(action.Type)
	if !ok || capability == nil {
		result.Error = "unknown action type"

		return result
	}

	actionCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err := invoke(actionCtx, capability, action.Config, capCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			result.Error = "timeout"
		} else {
			result.Error = err.Error()
		}

		return result
	}

	result.OK = true

	return result
}

// invoke shields the pipeline from panicking capabilities; a panic degrades
// to a failed action like any other downstream error.
func invoke(ctx context.Context, capability protocol.Capability, config map[string]string, capCtx protocol.CapabilityContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capability panicked: %v", r)
		}
	}()

	return capability.Invoke(ctx, config, capCtx)
}
