// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/registry"
	"github.com/dealgrid/dealgrid/pkg/services"
)

type APIHandlers struct {
	workflowService *services.Workflow
	validator       *validator.Validate
	registry        *registry.Registry
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		validator:       validator,
		registry:        registry,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	teamID := c.Params("teamId")
	if teamID == "" {
		return badRequest(c, "Team ID is required")
	}

	workflows, err := h.workflowService.List(c.Context(), teamID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows": workflows,
		"count":     len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	teamID := c.Params("teamId")

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), teamID, id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	teamID := c.Params("teamId")
	if teamID == "" {
		return badRequest(c, "Team ID is required")
	}

	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		TeamID:      teamID,
		Name:        req.Name,
		Description: req.Description,
		Enabled:     req.Enabled,
		Trigger:     req.Trigger,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	teamID := c.Params("teamId")

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Enabled:     req.Enabled,
		Trigger:     req.Trigger,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
	}

	updated, err := h.workflowService.Update(c.Context(), teamID, id, workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	teamID := c.Params("teamId")

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), teamID, id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ToggleWorkflow(c fiber.Ctx) error {
	teamID := c.Params("teamId")

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req ToggleWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.SetEnabled(c.Context(), teamID, id, *req.Enabled)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) ResetWorkflowStats(c fiber.Ctx) error {
	teamID := c.Params("teamId")

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	updated, err := h.workflowService.ResetStats(c.Context(), teamID, id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) GetTriggers(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"triggers": h.registry.ListTriggers(),
	})
}

func (h *APIHandlers) GetActions(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"actions": h.registry.ListActions(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Dealgrid API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Dealgrid API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
