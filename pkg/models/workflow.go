// Package models defines the core domain models for tenant-scoped lead
// automation workflows.
package models

import (
	"fmt"
	"time"
)

// Trigger describes the event that starts a workflow, matched by exact type.
type Trigger struct {
	Type   string         `json:"type"   validate:"required"`
	Config map[string]any `json:"config,omitempty"`
}

// Workflow is a tenant-scoped workflow definition: a directed graph of typed
// nodes walked by the engine. Definitions are immutable from the engine's
// point of view once a run starts.
type Workflow struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id" validate:"required"`
	Name           string     `json:"name"            validate:"required,min=3"`
	IsActive       bool       `json:"is_active"`
	Trigger        Trigger    `json:"trigger"`
	Nodes          []*Node    `json:"nodes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// NodeByID resolves a node id within the workflow. A dangling reference
// resolves to nil, which the engine treats as natural termination.
func (w *Workflow) NodeByID(id string) *Node {
	if id == "" {
		return nil
	}

	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// EntryNode selects where execution begins: the node literally named "start"
// (by id or display name), falling back to the first successor of the trigger
// node. Returns nil when the workflow has no runnable entry.
func (w *Workflow) EntryNode() *Node {
	for _, node := range w.Nodes {
		if node.ID == "start" || node.Name == "start" {
			return node
		}
	}

	for _, node := range w.Nodes {
		if node.Type == NodeTypeTrigger && len(node.Next) > 0 {
			return w.NodeByID(node.Next[0])
		}
	}

	return nil
}

// Validate checks the structural integrity of the definition: unique node
// ids, known node types, and edge references that resolve within the
// workflow. Provider-level config validation lives in the registry.
func (w *Workflow) Validate() error {
	seen := make(map[string]bool, len(w.Nodes))

	for _, node := range w.Nodes {
		if node.ID == "" {
			return fmt.Errorf("workflow %s: %w", w.ID, ErrNodeMissingID)
		}

		if seen[node.ID] {
			return fmt.Errorf("workflow %s: duplicate node id %q: %w", w.ID, node.ID, ErrDuplicateNodeID)
		}

		seen[node.ID] = true

		if !node.Type.Valid() {
			return fmt.Errorf("workflow %s node %s: unknown node type %q: %w", w.ID, node.ID, node.Type, ErrUnknownNodeType)
		}

		if node.Type == NodeTypeAction && node.Provider == "" {
			return fmt.Errorf("workflow %s node %s: %w", w.ID, node.ID, ErrActionMissingProvider)
		}
	}

	for _, node := range w.Nodes {
		for _, edge := range node.Edges() {
			if !seen[edge.To] {
				return fmt.Errorf("workflow %s node %s: edge %s points to unknown node %q: %w",
					w.ID, node.ID, edge.Kind, edge.To, ErrDanglingEdge)
			}
		}
	}

	return nil
}
