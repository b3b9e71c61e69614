package models

import "errors"

// NodeType is the closed set of node kinds the engine can execute.
type NodeType string

const (
	NodeTypeAction    NodeType = "action"
	NodeTypeCondition NodeType = "condition"
	NodeTypeDelay     NodeType = "delay"
	NodeTypeTrigger   NodeType = "trigger"
)

func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeAction, NodeTypeCondition, NodeTypeDelay, NodeTypeTrigger:
		return true
	default:
		return false
	}
}

// ProviderKind identifies which handler executes an action node.
type ProviderKind string

const (
	ProviderWhatsApp         ProviderKind = "whatsapp"
	ProviderEmail            ProviderKind = "email"
	ProviderSMS              ProviderKind = "sms"
	ProviderCRM              ProviderKind = "crm"
	ProviderWebhook          ProviderKind = "webhook"
	ProviderAIScorer         ProviderKind = "ai_scorer"
	ProviderPredictiveRouter ProviderKind = "predictive_router"
	ProviderROIGuard         ProviderKind = "roi_guard"
	ProviderABTest           ProviderKind = "ab_test"
)

// Internal providers run against in-process services and never require a
// tenant integration record.
func (p ProviderKind) Internal() bool {
	switch p {
	case ProviderAIScorer, ProviderPredictiveRouter, ProviderROIGuard, ProviderABTest:
		return true
	default:
		return false
	}
}

// Validation errors reported when a workflow definition is saved.
var (
	ErrNodeMissingID         = errors.New("node id is required")
	ErrDuplicateNodeID       = errors.New("duplicate node id")
	ErrUnknownNodeType       = errors.New("unknown node type")
	ErrActionMissingProvider = errors.New("action node requires a provider")
	ErrDanglingEdge          = errors.New("edge references unknown node")
)

// EdgeKind is the typed role of an outgoing edge.
type EdgeKind string

const (
	EdgeNext      EdgeKind = "next"
	EdgeTrue      EdgeKind = "true"
	EdgeFalse     EdgeKind = "false"
	EdgeOnFailure EdgeKind = "on_failure"
)

// Edge is a typed successor reference resolved against the owning workflow.
type Edge struct {
	Kind EdgeKind
	To   string
}

// Node is one vertex of a workflow graph. For condition nodes Next[0] is the
// true branch and Next[1] the false branch; for every other type Next[0] is
// the single successor. OnFailure[0], when present, receives control if the
// node's handler returns an error.
type Node struct {
	ID        string         `json:"id"       validate:"required"`
	Type      NodeType       `json:"type"     validate:"required"`
	Provider  ProviderKind   `json:"provider,omitempty"`
	Name      string         `json:"name"`
	Config    map[string]any `json:"config,omitempty"`
	Next      []string       `json:"next_nodes,omitempty"`
	OnFailure []string       `json:"failure_nodes,omitempty"`
}

// Edges returns the node's outgoing edges with their typed roles.
func (n *Node) Edges() []Edge {
	edges := make([]Edge, 0, len(n.Next)+len(n.OnFailure))

	for i, to := range n.Next {
		kind := EdgeNext
		if n.Type == NodeTypeCondition {
			if i == 0 {
				kind = EdgeTrue
			} else {
				kind = EdgeFalse
			}
		}

		edges = append(edges, Edge{Kind: kind, To: to})
	}

	for _, to := range n.OnFailure {
		edges = append(edges, Edge{Kind: EdgeOnFailure, To: to})
	}

	return edges
}

// Successor picks the next node id for a completed node. Condition nodes
// branch on the result; everything else follows the single next edge. An
// empty return means the run terminates.
func (n *Node) Successor(result bool) string {
	if n.Type == NodeTypeCondition {
		if result {
			return n.at(n.Next, 0)
		}

		return n.at(n.Next, 1)
	}

	return n.at(n.Next, 0)
}

// FailureSuccessor is the node that receives control when the handler errors.
func (n *Node) FailureSuccessor() string {
	return n.at(n.OnFailure, 0)
}

func (n *Node) at(ids []string, i int) string {
	if i >= len(ids) {
		return ""
	}

	return ids[i]
}
