// Package web provides the HTTP surface: trigger dispatch, workflow CRUD,
// and execution-log queries, all scoped to an organization.
package web

import "github.com/leadflowhq/leadflow/pkg/models"

// DispatchRequest is the inbound trigger event body: the lead that seeds the
// matched workflow runs.
type DispatchRequest struct {
	Lead models.Lead `json:"lead" validate:"required"`
}

// CreateWorkflowRequest is the request body for creating a workflow.
type CreateWorkflowRequest struct {
	Name     string         `json:"name"      validate:"required,min=3"`
	IsActive bool           `json:"is_active"`
	Trigger  models.Trigger `json:"trigger"   validate:"required"`
	Nodes    []*models.Node `json:"nodes"`
}

// UpdateWorkflowRequest supports partial updates; nil fields are untouched.
type UpdateWorkflowRequest struct {
	Name     *string         `json:"name,omitempty" validate:"omitempty,min=3"`
	IsActive *bool           `json:"is_active,omitempty"`
	Trigger  *models.Trigger `json:"trigger,omitempty"`
	Nodes    []*models.Node  `json:"nodes,omitempty"`
}
