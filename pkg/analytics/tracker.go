package analytics

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Tracker publishes tracking events to the BI stream. Publishing is
// best-effort: a broker outage must never surface as a workflow failure.
type Tracker struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewTracker(publisher message.Publisher, logger *slog.Logger) *Tracker {
	return &Tracker{
		publisher: publisher,
		logger:    logger.With("module", "analytics"),
	}
}

// Track serializes and publishes one event, logging on failure.
func (t *Tracker) Track(ctx context.Context, event Event) {
	if t == nil || t.publisher == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		t.logger.ErrorContext(ctx, "Failed to marshal tracking event", "error", err, "event_type", event.Type)

		return
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("organization_id", event.OrganizationID)

	if err := t.publisher.Publish(Topic, msg); err != nil {
		t.logger.ErrorContext(ctx, "Failed to publish tracking event",
			"error", err, "event_type", event.Type, "organization_id", event.OrganizationID)
	}
}

// Close releases the underlying publisher.
func (t *Tracker) Close() error {
	if t == nil || t.publisher == nil {
		return nil
	}

	return t.publisher.Close()
}
