package webhookout_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/providers/webhookout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookNode(url string) *models.Node {
	return &models.Node{
		ID:       "hook-1",
		Type:     models.NodeTypeAction,
		Provider: models.ProviderWebhook,
		Config:   map[string]any{"url": url},
	}
}

func TestExecutePostsLeadPayload(t *testing.T) {
	t.Parallel()

	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	handler := webhookout.NewHandler(slog.Default())
	state := models.NewExecutionState("org-1", &models.Lead{ID: "lead-1", Email: "lead@example.com"})
	state.SetVariable("ab_variant", "A")

	output, err := handler.Execute(context.Background(), webhookNode(server.URL), state, nil)
	require.NoError(t, err)

	result, ok := output.(webhookout.Result)
	require.True(t, ok)
	assert.True(t, result.Delivered)
	assert.Equal(t, http.StatusOK, result.StatusCode)

	require.NotNil(t, received)
	assert.Equal(t, "org-1", received["organization_id"])
	assert.Equal(t, "A", received["variables"].(map[string]any)["ab_variant"])
}

func TestExecuteEndpointErrorIsReportedNotRaised(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	handler := webhookout.NewHandler(slog.Default())
	state := models.NewExecutionState("org-1", &models.Lead{ID: "lead-1"})

	output, err := handler.Execute(context.Background(), webhookNode(server.URL), state, nil)
	require.NoError(t, err)

	result, ok := output.(webhookout.Result)
	require.True(t, ok)
	assert.False(t, result.Delivered)
	assert.Equal(t, http.StatusBadGateway, result.StatusCode)
	assert.NotEmpty(t, result.Error)
}

func TestExecuteUnreachableEndpointIsReportedNotRaised(t *testing.T) {
	t.Parallel()

	handler := webhookout.NewHandler(slog.Default())
	state := models.NewExecutionState("org-1", &models.Lead{ID: "lead-1"})

	output, err := handler.Execute(context.Background(), webhookNode("http://127.0.0.1:1/hook"), state, nil)
	require.NoError(t, err)

	result, ok := output.(webhookout.Result)
	require.True(t, ok)
	assert.False(t, result.Delivered)
	assert.NotEmpty(t, result.Error)
}

func TestExecuteMissingURLRaises(t *testing.T) {
	t.Parallel()

	handler := webhookout.NewHandler(slog.Default())
	state := models.NewExecutionState("org-1", &models.Lead{ID: "lead-1"})

	node := &models.Node{ID: "hook-1", Type: models.NodeTypeAction, Provider: models.ProviderWebhook}

	_, err := handler.Execute(context.Background(), node, state, nil)
	assert.Error(t, err)
}
