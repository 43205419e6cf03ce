// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/dealgrid/dealgrid/pkg/capabilities/email"
	"github.com/dealgrid/dealgrid/pkg/capabilities/fieldupdate"
	"github.com/dealgrid/dealgrid/pkg/capabilities/notify"
	"github.com/dealgrid/dealgrid/pkg/capabilities/task"
	"github.com/dealgrid/dealgrid/pkg/capabilities/webhook"
	"github.com/dealgrid/dealgrid/pkg/crmclient"
	"github.com/dealgrid/dealgrid/pkg/registry"
)

// NewRegistry builds a registry with the built-in catalog bound to the CRM
// internal API. The API service uses it for catalog listing and config
// validation; the engine additionally invokes the bound capabilities.
func NewRegistry(logger *slog.Logger, crmBaseURL, crmAPIToken string) *registry.Registry {
	crm := crmclient.NewClient(logger, crmBaseURL, crmAPIToken)

	reg := registry.NewRegistry(logger)
	registry.RegisterCatalog(reg, registry.Capabilities{
		UpdateField:      fieldupdate.NewCapability(logger, crm),
		CreateTask:       task.NewCapability(logger, crm),
		SendEmail:        email.NewCapability(logger, crm),
		SendNotification: notify.NewCapability(logger, crm),
		Webhook:          webhook.NewCapability(logger),
	})

	return reg
}
