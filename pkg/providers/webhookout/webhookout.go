// Package webhookout implements the outbound webhook action handler. Unlike
// CRM sync, delivery problems are absorbed into the result so a flaky
// customer endpoint cannot derail a run.
package webhookout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leadflowhq/leadflow/pkg/models"
)

const requestTimeout = 30 * time.Second

// Result reports the delivery attempt. Delivered is false on any transport
// or non-2xx failure.
type Result struct {
	Delivered  bool   `json:"delivered"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// payload is the JSON document posted to the customer endpoint.
type payload struct {
	OrganizationID string         `json:"organization_id"`
	Lead           *models.Lead   `json:"lead"`
	Variables      map[string]any `json:"variables,omitempty"`
	SentAt         time.Time      `json:"sent_at"`
}

type Handler struct {
	client *http.Client
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{
		client: &http.Client{Timeout: requestTimeout},
		logger: logger.With("module", "webhookout"),
	}
}

func (h *Handler) Kind() models.ProviderKind {
	return models.ProviderWebhook
}

func (h *Handler) Execute(ctx context.Context, node *models.Node, state *models.ExecutionState, _ *models.Integration) (any, error) {
	var cfg models.WebhookConfig

	if err := models.DecodeConfig(node.Config, &cfg); err != nil {
		return nil, fmt.Errorf("webhook node %s: %w", node.ID, err)
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook node %s: missing url", node.ID)
	}

	result := Result{URL: cfg.URL}

	body, err := json.Marshal(payload{
		OrganizationID: state.OrganizationID,
		Lead:           state.Payload,
		Variables:      state.Variables,
		SentAt:         time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		result.Error = err.Error()

		return result, nil
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		result.Error = err.Error()

		h.logger.WarnContext(ctx, "Webhook delivery failed",
			"node_id", node.ID, "url", cfg.URL, "error", err)

		return result, nil
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	result.StatusCode = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("endpoint returned status %d", resp.StatusCode)

		h.logger.WarnContext(ctx, "Webhook endpoint rejected delivery",
			"node_id", node.ID, "url", cfg.URL, "status", resp.StatusCode)

		return result, nil
	}

	result.Delivered = true

	return result, nil
}
