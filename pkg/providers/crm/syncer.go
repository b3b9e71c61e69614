package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/leadflowhq/leadflow/pkg/models"
)

// Syncer pushes one lead into a tenant CRM account.
type Syncer interface {
	Sync(ctx context.Context, integration *models.Integration, lead *models.Lead) error
}

// ErrCRMEndpointMissing is returned when an integration carries no endpoint
// credential.
var ErrCRMEndpointMissing = errors.New("integration has no endpoint credential")

const syncTimeout = 30 * time.Second

// HTTPSyncer POSTs the lead as JSON to the integration's endpoint, carrying
// its api_key credential as a bearer token.
type HTTPSyncer struct {
	client *http.Client
}

func NewHTTPSyncer() *HTTPSyncer {
	return &HTTPSyncer{
		client: &http.Client{Timeout: syncTimeout},
	}
}

func (s *HTTPSyncer) Sync(ctx context.Context, integration *models.Integration, lead *models.Lead) error {
	endpoint := integration.Credential("endpoint")
	if endpoint == "" {
		return fmt.Errorf("crm integration %s: %w", integration.ID, ErrCRMEndpointMissing)
	}

	payload, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to marshal lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create crm request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if apiKey := integration.Credential("api_key"); apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("crm endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
