package engine_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/providers/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSyncer struct {
	synced []string
}

func (s *capturingSyncer) Sync(_ context.Context, integration *models.Integration, _ *models.Lead) error {
	s.synced = append(s.synced, integration.ID)

	return nil
}

// The full path: a lead walks a start action, a country condition, and a crm
// action whose regional override routes it to a country-specific integration.
func TestRunRoutesIndianLeadToRegionalCRM(t *testing.T) {
	t.Parallel()

	syncer := &capturingSyncer{}
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.persistence.Integrations().Save(ctx, &models.Integration{
		ID: "int-default", OrganizationID: "org-1", Provider: models.ProviderCRM, IsActive: true,
	}))
	require.NoError(t, eng.persistence.Integrations().Save(ctx, &models.Integration{
		ID: "int-india", OrganizationID: "org-1", Provider: models.ProviderCRM, Region: "IN", IsActive: true,
	}))

	eng.registry.Register(crm.NewHandler(syncer, eng.persistence.Integrations(), nil, slog.Default()))
	eng.registry.Register(&stubHandler{kind: models.ProviderAIScorer})

	workflow := testWorkflow(
		&models.Node{ID: "start", Type: models.NodeTypeAction, Provider: models.ProviderAIScorer, Next: []string{"cond"}},
		&models.Node{
			ID: "cond", Type: models.NodeTypeCondition,
			Config: map[string]any{"field": "country", "operator": "equals", "value": "IN"},
			Next:   []string{"sync-in", "sync-default"},
		},
		&models.Node{
			ID: "sync-in", Type: models.NodeTypeAction, Provider: models.ProviderCRM,
			Config: map[string]any{"regional_overrides": map[string]any{"IN": "int-india"}},
		},
		actionNode("sync-default", models.ProviderCRM),
	)

	log, err := eng.runner.Run(ctx, workflow, testLead(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, log.Status)
	require.Len(t, log.Steps, 3)
	assert.Equal(t, "start", log.Steps[0].NodeID)
	assert.Equal(t, "cond", log.Steps[1].NodeID)
	assert.Equal(t, "sync-in", log.Steps[2].NodeID)
	assert.Equal(t, []string{"int-india"}, syncer.synced)

	result, ok := log.Steps[2].Output.(crm.Result)
	require.True(t, ok)
	assert.True(t, result.Overridden)
	assert.Equal(t, "int-india", result.IntegrationID)
}
