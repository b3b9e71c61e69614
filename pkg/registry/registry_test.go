package registry_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	kind models.ProviderKind
}

func (h *fakeHandler) Kind() models.ProviderKind {
	return h.kind
}

func (h *fakeHandler) Execute(_ context.Context, _ *models.Node, _ *models.ExecutionState, _ *models.Integration) (any, error) {
	return nil, nil
}

func newRegistry(kinds ...models.ProviderKind) *registry.Registry {
	reg := registry.NewRegistry(slog.Default())
	for _, kind := range kinds {
		reg.Register(&fakeHandler{kind: kind})
	}

	return reg
}

func TestResolveRegisteredHandler(t *testing.T) {
	t.Parallel()

	reg := newRegistry(models.ProviderWhatsApp)

	handler, err := reg.Resolve(models.ProviderWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderWhatsApp, handler.Kind())
}

func TestResolveUnknownProviderFails(t *testing.T) {
	t.Parallel()

	reg := newRegistry(models.ProviderWhatsApp)

	_, err := reg.Resolve(models.ProviderCRM)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestKnownAndKinds(t *testing.T) {
	t.Parallel()

	reg := newRegistry(models.ProviderWhatsApp, models.ProviderCRM)

	assert.True(t, reg.Known(models.ProviderWhatsApp))
	assert.False(t, reg.Known(models.ProviderWebhook))
	assert.Len(t, reg.Kinds(), 2)
}

func TestValidateWorkflow(t *testing.T) {
	t.Parallel()

	reg := newRegistry(
		models.ProviderWhatsApp,
		models.ProviderCRM,
		models.ProviderWebhook,
		models.ProviderABTest,
		models.ProviderAIScorer,
	)

	tests := []struct {
		name    string
		node    *models.Node
		wantErr string
	}{
		{
			name: "valid messaging config",
			node: &models.Node{
				ID: "n1", Type: models.NodeTypeAction, Provider: models.ProviderWhatsApp,
				Config: map[string]any{"message": "Hello!"},
			},
		},
		{
			name: "messaging config missing message",
			node: &models.Node{
				ID: "n1", Type: models.NodeTypeAction, Provider: models.ProviderWhatsApp,
				Config: map[string]any{"subject": "no body"},
			},
			wantErr: "invalid config",
		},
		{
			name: "unregistered provider",
			node: &models.Node{
				ID: "n1", Type: models.NodeTypeAction, Provider: models.ProviderSMS,
				Config: map[string]any{"message": "Hello!"},
			},
			wantErr: "not registered",
		},
		{
			name: "webhook requires url",
			node: &models.Node{
				ID: "n1", Type: models.NodeTypeAction, Provider: models.ProviderWebhook,
			},
			wantErr: "invalid config",
		},
		{
			name: "valid webhook config",
			node: &models.Node{
				ID: "n1", Type: models.NodeTypeAction, Provider: models.ProviderWebhook,
				Config: map[string]any{"url": "https://example.com/hook"},
			},
		},
		{
			name: "ab test rejects zero weight",
			node: &models.Node{
				ID: "n1", Type: models.NodeTypeAction, Provider: models.ProviderABTest,
				Config: map[string]any{
					"test_id":  "t1",
					"variants": []any{map[string]any{"id": "A", "weight": 0}},
				},
			},
			wantErr: "invalid config",
		},
		{
			name: "ab test requires variants",
			node: &models.Node{
				ID: "n1", Type: models.NodeTypeAction, Provider: models.ProviderABTest,
				Config: map[string]any{"test_id": "t1"},
			},
			wantErr: "invalid config",
		},
		{
			name: "crm rejects non string override",
			node: &models.Node{
				ID: "n1", Type: models.NodeTypeAction, Provider: models.ProviderCRM,
				Config: map[string]any{"regional_overrides": map[string]any{"IN": 42}},
			},
			wantErr: "invalid config",
		},
		{
			name: "crm config is optional",
			node: &models.Node{
				ID: "n1", Type: models.NodeTypeAction, Provider: models.ProviderCRM,
			},
		},
		{
			name: "internal provider accepts any object",
			node: &models.Node{
				ID: "n1", Type: models.NodeTypeAction, Provider: models.ProviderAIScorer,
			},
		},
		{
			name: "non action nodes are not config checked",
			node: &models.Node{
				ID: "n1", Type: models.NodeTypeCondition,
				Config: map[string]any{"field": "score"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			workflow := &models.Workflow{
				ID: "wf-1", OrganizationID: "org-1", Name: "test",
				Nodes: []*models.Node{tt.node},
			}

			err := reg.ValidateWorkflow(workflow)

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
