// Package messaging implements the whatsapp, email and sms action handlers.
// One handler type serves all three channels; the channel decides the
// recipient field and the transport does the actual delivery.
package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leadflowhq/leadflow/pkg/analytics"
	"github.com/leadflowhq/leadflow/pkg/locale"
	"github.com/leadflowhq/leadflow/pkg/models"
)

// Result is the handler output stored on the step record. A delivery the
// provider rejected is reported here, not raised, so the run keeps walking
// its success path.
type Result struct {
	Sent      bool   `json:"sent"`
	Channel   string `json:"channel"`
	Recipient string `json:"recipient,omitempty"`
	Locale    string `json:"locale"`
	Message   string `json:"message"`
	Subject   string `json:"subject,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Handler struct {
	kind      models.ProviderKind
	transport Transport
	tracker   *analytics.Tracker
	logger    *slog.Logger
}

func NewHandler(kind models.ProviderKind, transport Transport, tracker *analytics.Tracker, logger *slog.Logger) *Handler {
	return &Handler{
		kind:      kind,
		transport: transport,
		tracker:   tracker,
		logger:    logger.With("module", "messaging", "channel", string(kind)),
	}
}

func (h *Handler) Kind() models.ProviderKind {
	return h.kind
}

// Execute resolves the lead's locale, selects the localized content and hands
// the message to the transport. Config decode failures are raised; transport
// failures are reported in the result.
func (h *Handler) Execute(ctx context.Context, node *models.Node, state *models.ExecutionState, integration *models.Integration) (any, error) {
	var cfg models.MessagingConfig

	if err := models.DecodeConfig(node.Config, &cfg); err != nil {
		return nil, fmt.Errorf("messaging node %s: %w", node.ID, err)
	}

	lead := state.Payload
	loc := locale.Detect(lead)
	body, subject := locale.Content(cfg, loc)

	result := Result{
		Channel: string(h.kind),
		Locale:  loc,
		Message: body,
		Subject: subject,
	}

	recipient := h.recipient(lead)
	if recipient == "" {
		result.Error = "lead has no recipient address for channel"

		h.logger.WarnContext(ctx, "Skipping delivery, lead has no recipient",
			"node_id", node.ID, "lead_id", lead.ID)

		return result, nil
	}

	result.Recipient = recipient

	err := h.transport.Send(ctx, Message{
		Integration: integration,
		Channel:     h.kind,
		Recipient:   recipient,
		Body:        body,
		Subject:     subject,
		Locale:      loc,
	})
	if err != nil {
		result.Error = err.Error()

		h.logger.ErrorContext(ctx, "Message delivery failed",
			"node_id", node.ID, "lead_id", lead.ID, "error", err)

		return result, nil
	}

	result.Sent = true

	h.tracker.Track(ctx, analytics.NewEvent(analytics.MessageSentEvent, state.OrganizationID, lead.ID, map[string]any{
		"channel": string(h.kind),
		"locale":  loc,
		"node_id": node.ID,
	}))

	return result, nil
}

func (h *Handler) recipient(lead *models.Lead) string {
	if lead == nil {
		return ""
	}

	if h.kind == models.ProviderEmail {
		return lead.Email
	}

	return lead.Phone
}
