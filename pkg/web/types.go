// Package web provides HTTP request and response types for the automation API.
package web

import "github.com/dealgrid/dealgrid/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string             `json:"name"        validate:"required,min=3"`
	Description string             `json:"description"`
	Enabled     bool               `json:"enabled"`
	Trigger     models.Trigger     `json:"trigger"     validate:"required"`
	Conditions  []models.Condition `json:"conditions"  validate:"dive"`
	Actions     []models.Action    `json:"actions"     validate:"required,min=1,dive"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. Updates are full replacements of the definition; stats and
// identity are preserved server-side.
type UpdateWorkflowRequest struct {
	Name        string             `json:"name"        validate:"required,min=3"`
	Description string             `json:"description"`
	Enabled     bool               `json:"enabled"`
	Trigger     models.Trigger     `json:"trigger"     validate:"required"`
	Conditions  []models.Condition `json:"conditions"  validate:"dive"`
	Actions     []models.Action    `json:"actions"     validate:"required,min=1,dive"`
}

// ToggleWorkflowRequest represents the request body for enabling or disabling
// a workflow.
type ToggleWorkflowRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
