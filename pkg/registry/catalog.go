package registry

import (
	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/protocol"
)

// Capabilities bundles the action back-ends the catalog binds to. Entries
// may be nil in authoring-only deployments; the engine requires all of them.
type Capabilities struct {
	UpdateField      protocol.Capability
	CreateTask       protocol.Capability
	SendEmail        protocol.Capability
	SendNotification protocol.Capability
	Webhook          protocol.Capability
}

// RegisterCatalog registers the built-in trigger and action types. The
// registration order here is the order the authoring UI shows them in.
func RegisterCatalog(r *Registry, capabilities Capabilities) {
	registerTriggers(r)
	registerActions(r, capabilities)
}

func registerTriggers(r *Registry) {
	r.RegisterTrigger(models.TriggerDescriptor{
		Type:        models.TriggerDealCreated,
		Name:        "Deal created",
		Description: "Fires when a new deal enters the pipeline",
	})

	r.RegisterTrigger(models.TriggerDescriptor{
		Type:        models.TriggerDealUpdated,
		Name:        "Deal updated",
		Description: "Fires on any change to a deal's fields",
	})

	r.RegisterTrigger(models.TriggerDescriptor{
		Type:        models.TriggerDealStageChanged,
		Name:        "Deal stage changed",
		Description: "Fires when a deal moves between pipeline stages",
	})

	r.RegisterTrigger(models.TriggerDescriptor{
		Type:        models.TriggerDealDeleted,
		Name:        "Deal deleted",
		Description: "Fires when a deal is removed from the pipeline",
	})

	r.RegisterTrigger(models.TriggerDescriptor{
		Type:        models.TriggerDealRotting,
		Name:        "Deal rotting",
		Description: "Fires when a deal sits untouched in its stage for too long",
		ConfigSchema: map[string]models.ConfigField{
			"idle_days": {
				Type: models.ConfigFieldString,
				Help: "Days without activity before a deal counts as rotting (default 14)",
			},
		},
	})
}

func registerActions(r *Registry, capabilities Capabilities) {
	r.RegisterAction(models.ActionDescriptor{
		Type:        "update_field",
		Name:        "Update deal field",
		Description: "Sets a field on the deal that fired the workflow",
		ConfigSchema: map[string]models.ConfigField{
			"field": {
				Type:     models.ConfigFieldSelect,
				Required: true,
				Options:  []string{"stage", "amount", "probability", "close_date", "owner_id"},
			},
			"value": {
				Type:     models.ConfigFieldString,
				Required: true,
				Help:     "Supports {{.deal.*}} placeholders",
			},
		},
	}, capabilities.UpdateField)

	r.RegisterAction(models.ActionDescriptor{
		Type:        "create_task",
		Name:        "Create task",
		Description: "Creates a follow-up task linked to the deal",
		ConfigSchema: map[string]models.ConfigField{
			"title": {
				Type:     models.ConfigFieldString,
				Required: true,
			},
			"description": {
				Type: models.ConfigFieldTextarea,
			},
			"due_in_days": {
				Type: models.ConfigFieldString,
				Help: "Due date offset from execution time",
			},
		},
	}, capabilities.CreateTask)

	r.RegisterAction(models.ActionDescriptor{
		Type:        "send_email",
		Name:        "Send email",
		Description: "Sends an email through the team's connected provider",
		ConfigSchema: map[string]models.ConfigField{
			"to": {
				Type:     models.ConfigFieldString,
				Required: true,
			},
			"subject": {
				Type:     models.ConfigFieldString,
				Required: true,
			},
			"body": {
				Type: models.ConfigFieldTextarea,
				Help: "Supports {{.deal.*}} placeholders",
			},
		},
	}, capabilities.SendEmail)

	r.RegisterAction(models.ActionDescriptor{
		Type:        "send_notification",
		Name:        "Notify user",
		Description: "Pushes an in-app notification to a team member",
		ConfigSchema: map[string]models.ConfigField{
			"user_id": {
				Type:     models.ConfigFieldString,
				Required: true,
			},
			"message": {
				Type:     models.ConfigFieldTextarea,
				Required: true,
			},
		},
	}, capabilities.SendNotification)

	r.RegisterAction(models.ActionDescriptor{
		Type:        "webhook",
		Name:        "Call webhook",
		Description: "Sends an HTTP request to an external endpoint",
		ConfigSchema: map[string]models.ConfigField{
			"url": {
				Type:     models.ConfigFieldString,
				Required: true,
			},
			"method": {
				Type:    models.ConfigFieldSelect,
				Options: []string{"POST", "PUT", "GET"},
			},
			"body": {
				Type: models.ConfigFieldTextarea,
			},
			"retry_attempts": {
				Type: models.ConfigFieldString,
				Help: "Retries on server errors, 1-3 (default 1)",
			},
		},
	}, capabilities.Webhook)
}
