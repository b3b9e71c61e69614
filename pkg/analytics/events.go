// Package analytics emits fire-and-forget BI tracking events for workflow
// activity. Emission failures are logged and never fail a run.
package analytics

import (
	"time"

	"github.com/google/uuid"
)

// Topic is the stream all tracking events are published to.
const Topic = "leadflow.tracking-events"

type EventType string

const (
	WorkflowTriggeredEvent    EventType = "workflow.triggered"
	MessageSentEvent          EventType = "message.sent"
	CRMSyncEvent              EventType = "crm.sync"
	ABAssignmentEvent         EventType = "abtest.assignment"
	PredictiveAssignmentEvent EventType = "predictive.assignment"
	ROIGuardTriggeredEvent    EventType = "roi_guard.triggered"
)

// Event is one BI tracking record scoped to a tenant and, usually, a lead.
type Event struct {
	ID             string         `json:"id"`
	Type           EventType      `json:"type"`
	OrganizationID string         `json:"organization_id"`
	LeadID         string         `json:"lead_id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// NewEvent builds a tracking event stamped with a fresh id and UTC time.
func NewEvent(eventType EventType, organizationID, leadID string, metadata map[string]any) Event {
	return Event{
		ID:             uuid.New().String(),
		Type:           eventType,
		OrganizationID: organizationID,
		LeadID:         leadID,
		Timestamp:      time.Now().UTC(),
		Metadata:       metadata,
	}
}
