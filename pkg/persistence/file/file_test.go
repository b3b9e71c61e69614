package file_test

import (
	"context"
	"testing"
	"time"

	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
	"github.com/leadflowhq/leadflow/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *file.Persistence {
	t.Helper()

	return file.NewPersistence(t.TempDir())
}

func sampleWorkflow(id, triggerType string, active bool) *models.Workflow {
	return &models.Workflow{
		ID:             id,
		OrganizationID: "org-1",
		Name:           "workflow " + id,
		IsActive:       active,
		Trigger:        models.Trigger{Type: triggerType},
		Nodes: []*models.Node{
			{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"a"}},
			{ID: "a", Type: models.NodeTypeAction, Provider: models.ProviderAIScorer},
		},
	}
}

func TestWorkflowSaveAndGet(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	workflow := sampleWorkflow("wf-1", "lead_created", true)
	require.NoError(t, store.Workflows().Save(ctx, workflow))

	loaded, err := store.Workflows().GetByID(ctx, "org-1", "wf-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	assert.Len(t, loaded.Nodes, 2)
}

func TestWorkflowGetMissing(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	_, err := store.Workflows().GetByID(context.Background(), "org-1", "nope")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflowListActiveByTrigger(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Workflows().Save(ctx, sampleWorkflow("wf-active", "lead_created", true)))
	require.NoError(t, store.Workflows().Save(ctx, sampleWorkflow("wf-inactive", "lead_created", false)))
	require.NoError(t, store.Workflows().Save(ctx, sampleWorkflow("wf-other", "lead_updated", true)))

	matched, err := store.Workflows().ListActiveByTrigger(ctx, "org-1", "lead_created")
	require.NoError(t, err)

	require.Len(t, matched, 1)
	assert.Equal(t, "wf-active", matched[0].ID)
}

func TestWorkflowListIsTenantScoped(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	other := sampleWorkflow("wf-foreign", "lead_created", true)
	other.OrganizationID = "org-2"

	require.NoError(t, store.Workflows().Save(ctx, sampleWorkflow("wf-1", "lead_created", true)))
	require.NoError(t, store.Workflows().Save(ctx, other))

	workflows, err := store.Workflows().List(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "wf-1", workflows[0].ID)

	_, err = store.Workflows().GetByID(ctx, "org-1", "wf-foreign")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflowDelete(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Workflows().Save(ctx, sampleWorkflow("wf-1", "lead_created", true)))
	require.NoError(t, store.Workflows().Delete(ctx, "org-1", "wf-1"))

	_, err := store.Workflows().GetByID(ctx, "org-1", "wf-1")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func storedLog(workflowID, leadID string, status models.RunStatus, startedAt time.Time) *models.ExecutionLog {
	log := models.NewExecutionLog("org-1", workflowID, leadID, nil)
	log.Status = status
	log.StartedAt = startedAt

	return log
}

func TestExecutionLogListFiltersAndSorts(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	logs := []*models.ExecutionLog{
		storedLog("wf-1", "lead-1", models.RunStatusSuccess, now.Add(-3*time.Minute)),
		storedLog("wf-1", "lead-2", models.RunStatusFailed, now.Add(-2*time.Minute)),
		storedLog("wf-2", "lead-1", models.RunStatusSuccess, now.Add(-1*time.Minute)),
	}

	for _, log := range logs {
		require.NoError(t, store.ExecutionLogs().Create(ctx, log))
	}

	all, err := store.ExecutionLogs().List(ctx, "org-1", persistence.ListLogsOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "wf-2", all[0].WorkflowID, "newest first")

	byWorkflow, err := store.ExecutionLogs().List(ctx, "org-1", persistence.ListLogsOptions{WorkflowID: "wf-1"})
	require.NoError(t, err)
	assert.Len(t, byWorkflow, 2)

	byLead, err := store.ExecutionLogs().List(ctx, "org-1", persistence.ListLogsOptions{LeadID: "lead-1"})
	require.NoError(t, err)
	assert.Len(t, byLead, 2)

	byStatus, err := store.ExecutionLogs().List(ctx, "org-1", persistence.ListLogsOptions{Status: models.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "lead-2", byStatus[0].LeadID)
}

func TestExecutionLogListPagination(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := range 5 {
		log := storedLog("wf-1", "lead-1", models.RunStatusSuccess, now.Add(time.Duration(-i)*time.Minute))
		require.NoError(t, store.ExecutionLogs().Create(ctx, log))
	}

	page, err := store.ExecutionLogs().List(ctx, "org-1", persistence.ListLogsOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := store.ExecutionLogs().List(ctx, "org-1", persistence.ListLogsOptions{Offset: 4, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	past, err := store.ExecutionLogs().List(ctx, "org-1", persistence.ListLogsOptions{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestExecutionLogMarkStale(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := storedLog("wf-1", "lead-1", models.RunStatusRunning, now.Add(-2*time.Hour))
	fresh := storedLog("wf-1", "lead-2", models.RunStatusRunning, now.Add(-time.Minute))
	done := storedLog("wf-1", "lead-3", models.RunStatusSuccess, now.Add(-3*time.Hour))

	for _, log := range []*models.ExecutionLog{stale, fresh, done} {
		require.NoError(t, store.ExecutionLogs().Create(ctx, log))
	}

	marked, err := store.ExecutionLogs().MarkStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	reloaded, err := store.ExecutionLogs().GetByID(ctx, "org-1", stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, reloaded.Status)
	require.NotNil(t, reloaded.FinishedAt)

	untouched, err := store.ExecutionLogs().GetByID(ctx, "org-1", fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, untouched.Status)
}

func TestIntegrationFindActive(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	active := &models.Integration{ID: "int-1", OrganizationID: "org-1", Provider: models.ProviderWhatsApp, IsActive: true}
	inactive := &models.Integration{ID: "int-2", OrganizationID: "org-1", Provider: models.ProviderCRM, IsActive: false}

	require.NoError(t, store.Integrations().Save(ctx, active))
	require.NoError(t, store.Integrations().Save(ctx, inactive))

	found, err := store.Integrations().FindActive(ctx, "org-1", models.ProviderWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, "int-1", found.ID)

	_, err = store.Integrations().FindActive(ctx, "org-1", models.ProviderCRM)
	assert.ErrorIs(t, err, persistence.ErrIntegrationNotFound)
}

func TestLeadUpdateAnalysisAndAssignment(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	lead := &models.Lead{ID: "lead-1", OrganizationID: "org-1", Email: "a@b.com"}
	require.NoError(t, store.Leads().Save(ctx, lead))

	analysis := &models.AIAnalysis{Score: 85, Intent: "ready_now", AnalyzedAt: time.Now().UTC()}
	require.NoError(t, store.Leads().UpdateAnalysis(ctx, "org-1", "lead-1", analysis, 85))
	require.NoError(t, store.Leads().UpdateAssignment(ctx, "org-1", "lead-1", "agent-7"))

	reloaded, err := store.Leads().GetByID(ctx, "org-1", "lead-1")
	require.NoError(t, err)
	assert.Equal(t, 85, reloaded.Score)
	require.NotNil(t, reloaded.AIAnalysis)
	assert.Equal(t, "ready_now", reloaded.AIAnalysis.Intent)
	assert.Equal(t, "agent-7", reloaded.AssignedTo)
}

func TestExpertiseLookupTiers(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	cells := []persistence.ExpertiseCell{
		{OrganizationID: "org-1", AgentID: "agent-a", Country: "IN", Intent: "ready_now", Conversions: 10},
		{OrganizationID: "org-1", AgentID: "agent-b", Country: "IN", Intent: "ready_now", Conversions: 25},
		{OrganizationID: "org-1", AgentID: "agent-b", Country: "IN", Intent: "cold", Conversions: 5},
		{OrganizationID: "org-1", AgentID: "agent-c", Country: "BR", Intent: "engaged", Conversions: 40},
	}

	for _, cell := range cells {
		require.NoError(t, store.Expertise().Record(ctx, cell))
	}

	best, err := store.Expertise().TopAgentByCountryIntent(ctx, "org-1", "IN", "ready_now")
	require.NoError(t, err)
	assert.Equal(t, "agent-b", best)

	byCountry, err := store.Expertise().TopAgentByCountry(ctx, "org-1", "IN")
	require.NoError(t, err)
	assert.Equal(t, "agent-b", byCountry)

	_, err = store.Expertise().TopAgentByCountryIntent(ctx, "org-1", "FR", "cold")
	assert.ErrorIs(t, err, persistence.ErrNoEligibleAgent)
}

func TestCampaignStatsRoundTrip(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	health := &persistence.CampaignHealth{
		OrganizationID: "org-1",
		Campaign:       "summer-sale",
		ROIPercent:     42.5,
		LeadVolume:     120,
	}
	require.NoError(t, store.CampaignStats().Save(ctx, health))

	loaded, err := store.CampaignStats().Health(ctx, "org-1", "summer-sale")
	require.NoError(t, err)
	assert.Equal(t, 42.5, loaded.ROIPercent)

	_, err = store.CampaignStats().Health(ctx, "org-1", "unknown")
	assert.ErrorIs(t, err, persistence.ErrCampaignStatsNotFound)
}
