package models

// HistoryEntry records one executed node and whether it succeeded.
type HistoryEntry struct {
	NodeID  string `json:"node_id"`
	Success bool   `json:"success"`
}

// ExecutionState is the per-run mutable context. It is owned exclusively by
// the run that created it and discarded afterwards; handlers write variables
// for later nodes to read.
type ExecutionState struct {
	OrganizationID string         `json:"organization_id"`
	Payload        *Lead          `json:"payload"`
	Variables      map[string]any `json:"variables"`
	History        []HistoryEntry `json:"history"`
}

// NewExecutionState creates a fresh state seeded with the triggering lead.
func NewExecutionState(organizationID string, payload *Lead) *ExecutionState {
	return &ExecutionState{
		OrganizationID: organizationID,
		Payload:        payload,
		Variables:      make(map[string]any),
		History:        make([]HistoryEntry, 0),
	}
}

// Record appends a node outcome to the run history.
func (s *ExecutionState) Record(nodeID string, success bool) {
	s.History = append(s.History, HistoryEntry{NodeID: nodeID, Success: success})
}

// SetVariable stores a handler-produced value for later nodes.
func (s *ExecutionState) SetVariable(key string, value any) {
	if s.Variables == nil {
		s.Variables = make(map[string]any)
	}

	s.Variables[key] = value
}

// Variable reads a previously stored value.
func (s *ExecutionState) Variable(key string) (any, bool) {
	v, ok := s.Variables[key]

	return v, ok
}
