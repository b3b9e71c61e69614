// Package persistence provides the data storage abstraction for workflow
// definitions, execution logs, and the tenant directory the engine reads.
package persistence

import (
	"context"
	"time"

	"github.com/leadflowhq/leadflow/pkg/models"
)

// Persistence is the root handle to a storage backend.
type Persistence interface {
	Workflows() WorkflowRepository
	ExecutionLogs() ExecutionLogRepository
	Integrations() IntegrationRepository
	Organizations() OrganizationRepository
	Leads() LeadRepository
	Expertise() ExpertiseRepository
	CampaignStats() CampaignStatsRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores tenant-scoped workflow definitions. Every query
// is partitioned by organization id.
type WorkflowRepository interface {
	List(ctx context.Context, organizationID string) ([]*models.Workflow, error)
	ListActiveByTrigger(ctx context.Context, organizationID, triggerType string) ([]*models.Workflow, error)
	GetByID(ctx context.Context, organizationID, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, organizationID, id string) error
}

// ListLogsOptions filters execution-log queries.
type ListLogsOptions struct {
	WorkflowID string
	LeadID     string
	Status     models.RunStatus
	Limit      int
	Offset     int
}

// ExecutionLogRepository stores per-run audit logs. Each log is owned by the
// single run that created it: create on start, update during the run,
// finalize on completion.
type ExecutionLogRepository interface {
	Create(ctx context.Context, log *models.ExecutionLog) error
	Update(ctx context.Context, log *models.ExecutionLog) error
	GetByID(ctx context.Context, organizationID, id string) (*models.ExecutionLog, error)
	List(ctx context.Context, organizationID string, opts ListLogsOptions) ([]*models.ExecutionLog, error)

	// MarkStale fails logs abandoned in the running state for longer than
	// ttl. Run by the sweeper, never by the engine.
	MarkStale(ctx context.Context, ttl time.Duration) (int64, error)
}

// IntegrationRepository resolves tenant provider credentials. Read-only from
// the engine's perspective.
type IntegrationRepository interface {
	FindActive(ctx context.Context, organizationID string, provider models.ProviderKind) (*models.Integration, error)
	GetByID(ctx context.Context, organizationID, id string) (*models.Integration, error)
	Save(ctx context.Context, integration *models.Integration) error
}

// OrganizationRepository resolves tenants and their compliance settings.
type OrganizationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	Save(ctx context.Context, organization *models.Organization) error
}

// LeadRepository stores leads. Updates are partial by design; concurrent
// runs enriching the same lead race last-write-wins on the fields they
// touch, matching the source system's behavior.
type LeadRepository interface {
	GetByID(ctx context.Context, organizationID, id string) (*models.Lead, error)
	Save(ctx context.Context, lead *models.Lead) error
	UpdateAnalysis(ctx context.Context, organizationID, leadID string, analysis *models.AIAnalysis, score int) error
	UpdateAssignment(ctx context.Context, organizationID, leadID, agentID string) error
}

// ExpertiseCell is one entry of the precomputed expertise matrix: how many
// conversions an agent closed for a (country, intent) pair.
type ExpertiseCell struct {
	OrganizationID string `json:"organization_id"`
	AgentID        string `json:"agent_id"`
	Country        string `json:"country"`
	Intent         string `json:"intent"`
	Conversions    int    `json:"conversions"`
}

// ExpertiseRepository serves predictive routing lookups. All three lookups
// are deterministic for a fixed matrix snapshot; ties break on agent id.
type ExpertiseRepository interface {
	TopAgentByCountryIntent(ctx context.Context, organizationID, country, intent string) (string, error)
	TopAgentByCountry(ctx context.Context, organizationID, country string) (string, error)
	LeastLoadedAgent(ctx context.Context, organizationID string) (string, error)
	Record(ctx context.Context, cell ExpertiseCell) error
}

// CampaignHealth is the ROI snapshot the roi-guard handler evaluates.
type CampaignHealth struct {
	OrganizationID string  `json:"organization_id"`
	Campaign       string  `json:"campaign"`
	ROIPercent     float64 `json:"roi_percent"`
	LeadVolume     int     `json:"lead_volume"`
}

// CampaignStatsRepository serves campaign ROI lookups.
type CampaignStatsRepository interface {
	Health(ctx context.Context, organizationID, campaign string) (*CampaignHealth, error)
	Save(ctx context.Context, health *CampaignHealth) error
}
