package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of one workflow run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial" // a node failed but a failure path was taken
	RunStatusFailed  RunStatus = "failed"
)

// StepStatus is the outcome of one node execution.
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepRecord is one entry of the per-run audit trail.
type StepRecord struct {
	NodeID     string     `json:"node_id"`
	NodeName   string     `json:"node_name"`
	NodeType   NodeType   `json:"node_type"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Status     StepStatus `json:"status"`
	Output     any        `json:"output,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// ExecutionLog is the persisted audit record of one run: created when the
// run starts, appended step by step, finalized exactly once. A run abandoned
// by a process crash stays `running` until the sweeper reconciles it.
type ExecutionLog struct {
	ID              string         `json:"id"`
	OrganizationID  string         `json:"organization_id"`
	WorkflowID      string         `json:"workflow_id"`
	LeadID          string         `json:"lead_id"`
	Status          RunStatus      `json:"status"`
	Steps           []StepRecord   `json:"steps"`
	TriggerData     map[string]any `json:"trigger_data,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      *time.Time     `json:"finished_at,omitempty"`
	TotalDurationMs int64          `json:"total_duration_ms"`
}

// NewExecutionLog opens a run log in the running state with a snapshot of
// the triggering payload for replay and audit.
func NewExecutionLog(organizationID, workflowID, leadID string, triggerData map[string]any) *ExecutionLog {
	return &ExecutionLog{
		ID:             uuid.New().String(),
		OrganizationID: organizationID,
		WorkflowID:     workflowID,
		LeadID:         leadID,
		Status:         RunStatusRunning,
		Steps:          make([]StepRecord, 0),
		TriggerData:    triggerData,
		StartedAt:      time.Now().UTC(),
	}
}

// Append adds one step record to the trail.
func (l *ExecutionLog) Append(step StepRecord) {
	l.Steps = append(l.Steps, step)
}

// Finalize closes the log. A log still running at loop exit becomes a
// success; partial and failed statuses set during the run are preserved.
func (l *ExecutionLog) Finalize(now time.Time) {
	if l.Status == RunStatusRunning {
		l.Status = RunStatusSuccess
	}

	finished := now.UTC()
	l.FinishedAt = &finished
	l.TotalDurationMs = finished.Sub(l.StartedAt).Milliseconds()

	if l.TotalDurationMs < 0 {
		l.TotalDurationMs = 0
	}
}

// Terminal reports whether the log reached a final status.
func (l *ExecutionLog) Terminal() bool {
	return l.Status != RunStatusRunning
}
