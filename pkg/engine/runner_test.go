package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/leadflowhq/leadflow/pkg/engine"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence/file"
	"github.com/leadflowhq/leadflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHandler is a provider handler driven entirely by the test.
type stubHandler struct {
	kind    models.ProviderKind
	calls   atomic.Int64
	err     error
	output  any
	execute func(ctx context.Context, node *models.Node, state *models.ExecutionState, integration *models.Integration) (any, error)
}

func (h *stubHandler) Kind() models.ProviderKind {
	return h.kind
}

func (h *stubHandler) Execute(ctx context.Context, node *models.Node, state *models.ExecutionState, integration *models.Integration) (any, error) {
	h.calls.Add(1)

	if h.execute != nil {
		return h.execute(ctx, node, state, integration)
	}

	if h.err != nil {
		return nil, h.err
	}

	return h.output, nil
}

type testEngine struct {
	persistence *file.Persistence
	registry    *registry.Registry
	runner      *engine.Runner
}

func newTestEngine(t *testing.T, handlers ...*stubHandler) *testEngine {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	reg := registry.NewRegistry(slog.Default())

	for _, handler := range handlers {
		reg.Register(handler)
	}

	return &testEngine{
		persistence: p,
		registry:    reg,
		runner:      engine.NewRunner(p, reg, slog.Default()),
	}
}

func actionNode(id string, provider models.ProviderKind, next ...string) *models.Node {
	return &models.Node{ID: id, Type: models.NodeTypeAction, Provider: provider, Next: next}
}

func testWorkflow(nodes ...*models.Node) *models.Workflow {
	return &models.Workflow{
		ID:             "wf-1",
		OrganizationID: "org-1",
		Name:           "test workflow",
		IsActive:       true,
		Trigger:        models.Trigger{Type: "lead_created"},
		Nodes:          nodes,
	}
}

func testLead() *models.Lead {
	return &models.Lead{ID: "lead-1", OrganizationID: "org-1", Email: "lead@example.com", Country: "IN", Score: 75}
}

func TestRunConditionTrueBranch(t *testing.T) {
	t.Parallel()

	high := &stubHandler{kind: models.ProviderAIScorer}
	low := &stubHandler{kind: models.ProviderROIGuard}
	eng := newTestEngine(t, high, low)

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"cond"}},
		&models.Node{
			ID: "cond", Type: models.NodeTypeCondition,
			Config: map[string]any{"field": "score", "operator": "greater_than", "value": "50"},
			Next:   []string{"high", "low"},
		},
		actionNode("high", models.ProviderAIScorer),
		actionNode("low", models.ProviderROIGuard),
	)

	log, err := eng.runner.Run(context.Background(), workflow, testLead(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, log.Status)
	require.Len(t, log.Steps, 2)
	assert.Equal(t, "cond", log.Steps[0].NodeID)
	assert.Equal(t, "high", log.Steps[1].NodeID)
	assert.Equal(t, int64(1), high.calls.Load())
	assert.Equal(t, int64(0), low.calls.Load())
}

func TestRunConditionFalseBranch(t *testing.T) {
	t.Parallel()

	high := &stubHandler{kind: models.ProviderAIScorer}
	low := &stubHandler{kind: models.ProviderROIGuard}
	eng := newTestEngine(t, high, low)

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"cond"}},
		&models.Node{
			ID: "cond", Type: models.NodeTypeCondition,
			Config: map[string]any{"field": "score", "operator": "greater_than", "value": "90"},
			Next:   []string{"high", "low"},
		},
		actionNode("high", models.ProviderAIScorer),
		actionNode("low", models.ProviderROIGuard),
	)

	log, err := eng.runner.Run(context.Background(), workflow, testLead(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, log.Status)
	assert.Equal(t, int64(0), high.calls.Load())
	assert.Equal(t, int64(1), low.calls.Load())
}

func TestRunConditionMissingFalseBranchTerminatesSuccessfully(t *testing.T) {
	t.Parallel()

	high := &stubHandler{kind: models.ProviderAIScorer}
	eng := newTestEngine(t, high)

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"cond"}},
		&models.Node{
			ID: "cond", Type: models.NodeTypeCondition,
			Config: map[string]any{"field": "score", "operator": "greater_than", "value": "90"},
			Next:   []string{"high"},
		},
		actionNode("high", models.ProviderAIScorer),
	)

	log, err := eng.runner.Run(context.Background(), workflow, testLead(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, log.Status)
	assert.Equal(t, int64(0), high.calls.Load())
	require.Len(t, log.Steps, 1)
}

func TestRunComplianceGateSkipsActionsWithoutConsent(t *testing.T) {
	t.Parallel()

	action := &stubHandler{kind: models.ProviderAIScorer}
	after := &stubHandler{kind: models.ProviderROIGuard}
	eng := newTestEngine(t, action, after)

	org := &models.Organization{ID: "org-1", Name: "Acme", Compliance: models.Compliance{IsGDPR: true}}
	require.NoError(t, eng.persistence.Organizations().Save(context.Background(), org))

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"gated"}},
		actionNode("gated", models.ProviderAIScorer, "after"),
		actionNode("after", models.ProviderROIGuard),
	)

	lead := testLead()
	lead.GDPRConsent = false

	log, err := eng.runner.Run(context.Background(), workflow, lead, nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, log.Status)
	assert.Equal(t, int64(0), action.calls.Load(), "gated handler must never be invoked")

	require.Len(t, log.Steps, 2)
	assert.Equal(t, models.StepStatusSkipped, log.Steps[0].Status)
	assert.Equal(t, models.StepStatusSkipped, log.Steps[1].Status)
}

func TestRunComplianceGateAllowsConsentedLeads(t *testing.T) {
	t.Parallel()

	action := &stubHandler{kind: models.ProviderAIScorer}
	eng := newTestEngine(t, action)

	org := &models.Organization{ID: "org-1", Name: "Acme", Compliance: models.Compliance{IsGDPR: true}}
	require.NoError(t, eng.persistence.Organizations().Save(context.Background(), org))

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"gated"}},
		actionNode("gated", models.ProviderAIScorer),
	)

	lead := testLead()
	lead.GDPRConsent = true

	log, err := eng.runner.Run(context.Background(), workflow, lead, nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, log.Status)
	assert.Equal(t, int64(1), action.calls.Load())
	assert.Equal(t, models.StepStatusCompleted, log.Steps[0].Status)
}

func TestRunFailurePathRouting(t *testing.T) {
	t.Parallel()

	failing := &stubHandler{kind: models.ProviderAIScorer, err: errors.New("boom")}
	recovery := &stubHandler{kind: models.ProviderROIGuard}
	eng := newTestEngine(t, failing, recovery)

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"flaky"}},
		&models.Node{
			ID: "flaky", Type: models.NodeTypeAction, Provider: models.ProviderAIScorer,
			Next: []string{"never"}, OnFailure: []string{"recover"},
		},
		actionNode("never", models.ProviderAIScorer),
		actionNode("recover", models.ProviderROIGuard),
	)

	log, err := eng.runner.Run(context.Background(), workflow, testLead(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusPartial, log.Status)
	assert.Equal(t, int64(1), recovery.calls.Load())

	require.Len(t, log.Steps, 2)
	assert.Equal(t, models.StepStatusFailed, log.Steps[0].Status)
	assert.Contains(t, log.Steps[0].Error, "boom")
	assert.Equal(t, "recover", log.Steps[1].NodeID)
}

func TestRunFailureWithoutFailurePathStopsImmediately(t *testing.T) {
	t.Parallel()

	failing := &stubHandler{kind: models.ProviderAIScorer, err: errors.New("boom")}
	next := &stubHandler{kind: models.ProviderROIGuard}
	eng := newTestEngine(t, failing, next)

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"flaky"}},
		actionNode("flaky", models.ProviderAIScorer, "after"),
		actionNode("after", models.ProviderROIGuard),
	)

	log, err := eng.runner.Run(context.Background(), workflow, testLead(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusFailed, log.Status)
	assert.Equal(t, int64(0), next.calls.Load())
	require.Len(t, log.Steps, 1)
}

func TestRunMissingIntegrationRaises(t *testing.T) {
	t.Parallel()

	// whatsapp is external: the runner must resolve an active integration
	// before invoking the handler.
	external := &stubHandler{kind: models.ProviderWhatsApp}
	eng := newTestEngine(t, external)

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"send"}},
		actionNode("send", models.ProviderWhatsApp),
	)

	log, err := eng.runner.Run(context.Background(), workflow, testLead(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusFailed, log.Status)
	assert.Equal(t, int64(0), external.calls.Load())
	assert.Contains(t, log.Steps[0].Error, "missing active integration")
}

func TestRunUnknownProviderRaises(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t)

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"send"}},
		actionNode("send", models.ProviderCRM),
	)

	log, err := eng.runner.Run(context.Background(), workflow, testLead(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusFailed, log.Status)
	assert.Contains(t, log.Steps[0].Error, "not registered")
}

func TestRunDelayNode(t *testing.T) {
	t.Parallel()

	after := &stubHandler{kind: models.ProviderAIScorer}
	eng := newTestEngine(t, after)

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"wait"}},
		&models.Node{
			ID: "wait", Type: models.NodeTypeDelay,
			Config: map[string]any{"duration_ms": 10},
			Next:   []string{"after"},
		},
		actionNode("after", models.ProviderAIScorer),
	)

	log, err := eng.runner.Run(context.Background(), workflow, testLead(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, log.Status)
	assert.Equal(t, int64(1), after.calls.Load())
	assert.Equal(t, models.StepStatusCompleted, log.Steps[0].Status)
}

func TestRunEmptyWorkflowFinalizesSuccessfully(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t)

	workflow := testWorkflow(
		&models.Node{ID: "orphan", Type: models.NodeTypeDelay},
	)

	log, err := eng.runner.Run(context.Background(), workflow, testLead(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, log.Status)
	assert.True(t, log.Terminal())
	assert.Empty(t, log.Steps)
	assert.GreaterOrEqual(t, log.TotalDurationMs, int64(0))
}

func TestRunAlwaysFinalizesToTerminalStatus(t *testing.T) {
	t.Parallel()

	failing := &stubHandler{kind: models.ProviderAIScorer, err: errors.New("boom")}
	eng := newTestEngine(t, failing)

	workflows := []*models.Workflow{
		testWorkflow(
			&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"a"}},
			actionNode("a", models.ProviderAIScorer),
		),
		testWorkflow(&models.Node{ID: "orphan", Type: models.NodeTypeDelay}),
	}

	for _, workflow := range workflows {
		log, err := eng.runner.Run(context.Background(), workflow, testLead(), nil)
		require.NoError(t, err)
		assert.True(t, log.Terminal())
		require.NotNil(t, log.FinishedAt)
	}
}

func TestRunStepLimitGuardsAgainstCycles(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t)

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"a"}},
		&models.Node{ID: "a", Type: models.NodeTypeDelay, Config: map[string]any{"duration_ms": 1}, Next: []string{"b"}},
		&models.Node{ID: "b", Type: models.NodeTypeDelay, Config: map[string]any{"duration_ms": 1}, Next: []string{"a"}},
	)

	log, err := eng.runner.Run(context.Background(), workflow, testLead(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusFailed, log.Status)
}

func TestRunPersistsLogToStore(t *testing.T) {
	t.Parallel()

	action := &stubHandler{kind: models.ProviderAIScorer, output: map[string]any{"scored": true}}
	eng := newTestEngine(t, action)

	workflow := testWorkflow(
		&models.Node{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"a"}},
		actionNode("a", models.ProviderAIScorer),
	)

	log, err := eng.runner.Run(context.Background(), workflow, testLead(), map[string]any{"trigger_type": "lead_created"})
	require.NoError(t, err)

	stored, err := eng.persistence.ExecutionLogs().GetByID(context.Background(), "org-1", log.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, stored.Status)
	assert.Equal(t, "wf-1", stored.WorkflowID)
	assert.Equal(t, "lead-1", stored.LeadID)
	require.Len(t, stored.Steps, 1)
	assert.NotNil(t, stored.Steps[0].Output)
}
