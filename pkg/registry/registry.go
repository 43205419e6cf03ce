// Package registry is the catalog of available trigger and action types. It
// serves descriptor listings to the authoring API, validates configuration
// maps against descriptor schemas and binds action types to capabilities.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/protocol"
)

type Registry struct {
	logger       *slog.Logger
	triggers     []models.TriggerDescriptor
	triggerIndex map[models.TriggerType]int
	actions      []models.ActionDescriptor
	actionIndex  map[string]int
	capabilities map[string]protocol.Capability
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:       log,
		triggerIndex: make(map[models.TriggerType]int),
		actionIndex:  make(map[string]int),
		capabilities: make(map[string]protocol.Capability),
	}
}

// RegisterTrigger adds a trigger descriptor. Re-registering a type replaces
// the descriptor but keeps its position, so listing order stays stable.
func (r *Registry) RegisterTrigger(descriptor models.TriggerDescriptor) {
	if i, ok := r.triggerIndex[descriptor.Type]; ok {
		r.triggers[i] = descriptor

		return
	}

	r.triggerIndex[descriptor.Type] = len(r.triggers)
	r.triggers = append(r.triggers, descriptor)
}

// RegisterAction adds an action descriptor together with the capability that
// executes it.
func (r *Registry) RegisterAction(descriptor models.ActionDescriptor, capability protocol.Capability) {
	if i, ok := r.actionIndex[descriptor.Type]; ok {
		r.actions[i] = descriptor
	} else {
		r.actionIndex[descriptor.Type] = len(r.actions)
		r.actions = append(r.actions, descriptor)
	}

	r.capabilities[descriptor.Type] = capability
}

// ListTriggers returns all trigger descriptors in registration order.
func (r *Registry) ListTriggers() []models.TriggerDescriptor {
	out := make([]models.TriggerDescriptor, len(r.triggers))
	copy(out, r.triggers)

	return out
}

// ListActions returns all action descriptors in registration order.
func (r *Registry) ListActions() []models.ActionDescriptor {
	out := make([]models.ActionDescriptor, len(r.actions))
	copy(out, r.actions)

	return out
}

func (r *Registry) TriggerDescriptor(triggerType models.TriggerType) (models.TriggerDescriptor, bool) {
	i, ok := r.triggerIndex[triggerType]
	if !ok {
		return models.TriggerDescriptor{}, false
	}

	return r.triggers[i], true
}

func (r *Registry) ActionDescriptor(actionType string) (models.ActionDescriptor, bool) {
	i, ok := r.actionIndex[actionType]
	if !ok {
		return models.ActionDescriptor{}, false
	}

	return r.actions[i], true
}

// CapabilityFor resolves the capability bound to an action type. The engine
// treats a missing binding as a failed action, never as an error.
func (r *Registry) CapabilityFor(actionType string) (protocol.Capability, bool) {
	capability, ok := r.capabilities[actionType]

	return capability, ok
}

// ValidateTriggerConfig checks a trigger configuration against the
// descriptor schema. An empty slice means the config is valid.
func (r *Registry) ValidateTriggerConfig(triggerType models.TriggerType, config map[string]string) []models.FieldError {
	descriptor, ok := r.TriggerDescriptor(triggerType)
	if !ok {
		return []models.FieldError{{
			Field:   "type",
			Message: fmt.Sprintf("unknown trigger type %q", triggerType),
		}}
	}

	return validateConfig(descriptor.ConfigSchema, config)
}

// ValidateActionConfig checks an action configuration against the descriptor
// schema.
func (r *Registry) ValidateActionConfig(actionType string, config map[string]string) []models.FieldError {
	descriptor, ok := r.ActionDescriptor(actionType)
	if !ok {
		return []models.FieldError{{
			Field:   "type",
			Message: fmt.Sprintf("unknown action type %q", actionType),
		}}
	}

	return validateConfig(descriptor.ConfigSchema, config)
}

// HealthCheck reports whether the catalog was populated and every action has
// a capability bound.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.triggers) == 0 || len(r.actions) == 0 {
		return "Registry catalog is empty", false
	}

	for actionType := range r.actionIndex {
		if r.capabilities[actionType] == nil {
			return "Action type " + actionType + " has no capability bound", false
		}
	}

	return "Registry is healthy", true
}
