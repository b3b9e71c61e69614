package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/leadflowhq/leadflow/pkg/engine"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
	"github.com/leadflowhq/leadflow/pkg/registry"

	"github.com/google/uuid"
)

type APIHandlers struct {
	persistence persistence.Persistence
	dispatcher  *engine.Dispatcher
	registry    *registry.Registry
	validator   *validator.Validate
}

func NewAPIHandlers(
	p persistence.Persistence,
	dispatcher *engine.Dispatcher,
	reg *registry.Registry,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persistence: p,
		dispatcher:  dispatcher,
		registry:    reg,
		validator:   validate,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Leadflow API is healthy"
	httpStatus := http.StatusOK

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "Leadflow API is unhealthy: " + err.Error()
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

// Dispatch is the inbound trigger endpoint: one lead event fans out to every
// active workflow matching the trigger type. The batch report comes back to
// the caller; per-run failures are inside it, never as an HTTP error.
func (h *APIHandlers) Dispatch(c fiber.Ctx) error {
	organizationID := c.Params("orgId")
	triggerType := c.Params("type")

	if organizationID == "" || triggerType == "" {
		return badRequest(c, "Organization ID and trigger type are required")
	}

	var req DispatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	lead := req.Lead
	lead.OrganizationID = organizationID

	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}

	if err := h.persistence.Leads().Save(c.Context(), &lead); err != nil {
		return internalError(c, err)
	}

	report, err := h.dispatcher.Dispatch(c.Context(), organizationID, triggerType, &lead)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(dispatchResponse(report))
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	organizationID := c.Params("orgId")
	if organizationID == "" {
		return badRequest(c, "Organization ID is required")
	}

	workflows, err := h.persistence.Workflows().List(c.Context(), organizationID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows, "total_count": len(workflows)})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	organizationID := c.Params("orgId")
	id := c.Params("id")

	workflow, err := h.persistence.Workflows().GetByID(c.Context(), organizationID, id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	organizationID := c.Params("orgId")
	if organizationID == "" {
		return badRequest(c, "Organization ID is required")
	}

	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		ID:             uuid.New().String(),
		OrganizationID: organizationID,
		Name:           req.Name,
		IsActive:       req.IsActive,
		Trigger:        req.Trigger,
		Nodes:          req.Nodes,
	}

	if err := h.validateDefinition(workflow); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.Workflows().Save(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	organizationID := c.Params("orgId")
	id := c.Params("id")

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.persistence.Workflows().GetByID(c.Context(), organizationID, id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if req.Trigger != nil {
		existing.Trigger = *req.Trigger
	}

	if req.Nodes != nil {
		existing.Nodes = req.Nodes
	}

	if err := h.validateDefinition(existing); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.Workflows().Save(c.Context(), existing); err != nil {
		return internalError(c, err)
	}

	return c.JSON(existing)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	organizationID := c.Params("orgId")
	id := c.Params("id")

	if err := h.persistence.Workflows().Delete(c.Context(), organizationID, id); err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	organizationID := c.Params("orgId")
	if organizationID == "" {
		return badRequest(c, "Organization ID is required")
	}

	opts, err := parseListLogsOptions(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	logs, err := h.persistence.ExecutionLogs().List(c.Context(), organizationID, opts)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions": logs,
		"pagination": fiber.Map{"limit": opts.Limit, "offset": opts.Offset},
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	organizationID := c.Params("orgId")
	id := c.Params("id")

	log, err := h.persistence.ExecutionLogs().GetByID(c.Context(), organizationID, id)
	if err != nil {
		if persistence.IsExecutionLogNotFound(err) {
			return notFound(c, "Execution log not found")
		}

		return internalError(c, err)
	}

	return c.JSON(log)
}

// validateDefinition runs the full save-time gauntlet: struct tags, graph
// integrity, then per-provider config schemas.
func (h *APIHandlers) validateDefinition(workflow *models.Workflow) error {
	if err := h.validator.Struct(workflow); err != nil {
		return err
	}

	if err := workflow.Validate(); err != nil {
		return err
	}

	return h.registry.ValidateWorkflow(workflow)
}

const defaultPageSize = 50

func parseListLogsOptions(c fiber.Ctx) (persistence.ListLogsOptions, error) {
	opts := persistence.ListLogsOptions{
		WorkflowID: c.Query("workflow_id"),
		LeadID:     c.Query("lead_id"),
		Status:     models.RunStatus(c.Query("status")),
		Limit:      defaultPageSize,
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return opts, err
		}

		opts.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return opts, err
		}

		opts.Offset = offset
	}

	return opts, nil
}

// dispatchResponse flattens the batch report; errors become strings so the
// report serializes cleanly.
func dispatchResponse(report *engine.Report) fiber.Map {
	results := make([]fiber.Map, 0, len(report.Results))

	for _, result := range report.Results {
		entry := fiber.Map{
			"workflow_id":   result.WorkflowID,
			"workflow_name": result.WorkflowName,
		}

		if result.Log != nil {
			entry["run_id"] = result.Log.ID
			entry["status"] = result.Log.Status
			entry["steps"] = len(result.Log.Steps)
		}

		if result.Err != nil {
			entry["error"] = result.Err.Error()
		}

		results = append(results, entry)
	}

	return fiber.Map{
		"organization_id": report.OrganizationID,
		"trigger_type":    report.TriggerType,
		"matched":         report.Matched,
		"results":         results,
	}
}
