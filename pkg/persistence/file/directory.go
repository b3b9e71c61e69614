package file

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// Tenant directory repositories: organizations, integrations, leads,
// expertise matrix, and campaign stats on flat JSON files.

type organizationRepository struct {
	root string
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	org := &models.Organization{}
	path := filepath.Join(r.root, "organizations", id+".json")

	if err := readDoc(path, org, persistence.ErrOrganizationNotFound); err != nil {
		return nil, err
	}

	return org, nil
}

func (r *organizationRepository) Save(ctx context.Context, org *models.Organization) error {
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}

	return writeDoc(filepath.Join(r.root, "organizations", org.ID+".json"), org)
}

type integrationRepository struct {
	root string
}

func (r *integrationRepository) path(organizationID, id string) string {
	return filepath.Join(r.root, "integrations", organizationID, id+".json")
}

func (r *integrationRepository) FindActive(ctx context.Context, organizationID string, provider models.ProviderKind) (*models.Integration, error) {
	paths, err := listDocs(filepath.Join(r.root, "integrations", organizationID))
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		integration := &models.Integration{}
		if err := readDoc(path, integration, persistence.ErrIntegrationNotFound); err != nil {
			return nil, err
		}

		if integration.IsActive && integration.Provider == provider {
			return integration, nil
		}
	}

	return nil, persistence.ErrIntegrationNotFound
}

func (r *integrationRepository) GetByID(ctx context.Context, organizationID, id string) (*models.Integration, error) {
	integration := &models.Integration{}
	if err := readDoc(r.path(organizationID, id), integration, persistence.ErrIntegrationNotFound); err != nil {
		return nil, err
	}

	return integration, nil
}

func (r *integrationRepository) Save(ctx context.Context, integration *models.Integration) error {
	if integration.ID == "" {
		integration.ID = uuid.New().String()
	}

	if integration.CreatedAt.IsZero() {
		integration.CreatedAt = time.Now().UTC()
	}

	return writeDoc(r.path(integration.OrganizationID, integration.ID), integration)
}

type leadRepository struct {
	root string
}

func (r *leadRepository) path(organizationID, id string) string {
	return filepath.Join(r.root, "leads", organizationID, id+".json")
}

func (r *leadRepository) GetByID(ctx context.Context, organizationID, id string) (*models.Lead, error) {
	lead := &models.Lead{}
	if err := readDoc(r.path(organizationID, id), lead, persistence.ErrLeadNotFound); err != nil {
		return nil, err
	}

	return lead, nil
}

func (r *leadRepository) Save(ctx context.Context, lead *models.Lead) error {
	now := time.Now().UTC()

	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}

	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}

	lead.UpdatedAt = now

	return writeDoc(r.path(lead.OrganizationID, lead.ID), lead)
}

func (r *leadRepository) UpdateAnalysis(ctx context.Context, organizationID, leadID string, analysis *models.AIAnalysis, score int) error {
	lead, err := r.GetByID(ctx, organizationID, leadID)
	if err != nil {
		return err
	}

	lead.AIAnalysis = analysis
	lead.Score = score

	return r.Save(ctx, lead)
}

func (r *leadRepository) UpdateAssignment(ctx context.Context, organizationID, leadID, agentID string) error {
	lead, err := r.GetByID(ctx, organizationID, leadID)
	if err != nil {
		return err
	}

	lead.AssignedTo = agentID

	return r.Save(ctx, lead)
}

// expertiseRepository stores the matrix as one document per tenant. Load
// balancing counts assigned leads, so it reads the lead documents too.
type expertiseRepository struct {
	root string
}

func (r *expertiseRepository) path(organizationID string) string {
	return filepath.Join(r.root, "expertise", organizationID+".json")
}

func (r *expertiseRepository) cells(organizationID string) ([]persistence.ExpertiseCell, error) {
	cells := make([]persistence.ExpertiseCell, 0)

	err := readDoc(r.path(organizationID), &cells, persistence.ErrNoEligibleAgent)
	if err != nil && err != persistence.ErrNoEligibleAgent {
		return nil, err
	}

	return cells, nil
}

func (r *expertiseRepository) TopAgentByCountryIntent(ctx context.Context, organizationID, country, intent string) (string, error) {
	cells, err := r.cells(organizationID)
	if err != nil {
		return "", err
	}

	return topAgent(cells, func(c persistence.ExpertiseCell) bool {
		return c.Country == country && c.Intent == intent
	})
}

func (r *expertiseRepository) TopAgentByCountry(ctx context.Context, organizationID, country string) (string, error) {
	cells, err := r.cells(organizationID)
	if err != nil {
		return "", err
	}

	return topAgent(cells, func(c persistence.ExpertiseCell) bool {
		return c.Country == country
	})
}

func (r *expertiseRepository) LeastLoadedAgent(ctx context.Context, organizationID string) (string, error) {
	cells, err := r.cells(organizationID)
	if err != nil {
		return "", err
	}

	loads := make(map[string]int)
	for _, cell := range cells {
		loads[cell.AgentID] = 0
	}

	if len(loads) == 0 {
		return "", persistence.ErrNoEligibleAgent
	}

	paths, err := listDocs(filepath.Join(r.root, "leads", organizationID))
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		lead := &models.Lead{}
		if err := readDoc(path, lead, persistence.ErrLeadNotFound); err != nil {
			return "", err
		}

		if _, ok := loads[lead.AssignedTo]; ok {
			loads[lead.AssignedTo]++
		}
	}

	agents := make([]string, 0, len(loads))
	for agent := range loads {
		agents = append(agents, agent)
	}

	sort.Strings(agents)

	best := agents[0]
	for _, agent := range agents[1:] {
		if loads[agent] < loads[best] {
			best = agent
		}
	}

	return best, nil
}

func (r *expertiseRepository) Record(ctx context.Context, cell persistence.ExpertiseCell) error {
	cells, err := r.cells(cell.OrganizationID)
	if err != nil {
		return err
	}

	replaced := false

	for i, existing := range cells {
		if existing.AgentID == cell.AgentID && existing.Country == cell.Country && existing.Intent == cell.Intent {
			cells[i] = cell
			replaced = true

			break
		}
	}

	if !replaced {
		cells = append(cells, cell)
	}

	return writeDoc(r.path(cell.OrganizationID), cells)
}

// topAgent picks the agent with the most conversions among matching cells,
// summing per agent and breaking ties on agent id for determinism.
func topAgent(cells []persistence.ExpertiseCell, match func(persistence.ExpertiseCell) bool) (string, error) {
	totals := make(map[string]int)

	for _, cell := range cells {
		if match(cell) {
			totals[cell.AgentID] += cell.Conversions
		}
	}

	if len(totals) == 0 {
		return "", persistence.ErrNoEligibleAgent
	}

	agents := make([]string, 0, len(totals))
	for agent := range totals {
		agents = append(agents, agent)
	}

	sort.Strings(agents)

	best := agents[0]
	for _, agent := range agents[1:] {
		if totals[agent] > totals[best] {
			best = agent
		}
	}

	return best, nil
}

type campaignStatsRepository struct {
	root string
}

func (r *campaignStatsRepository) path(organizationID, campaign string) string {
	return filepath.Join(r.root, "campaign_stats", organizationID, campaign+".json")
}

func (r *campaignStatsRepository) Health(ctx context.Context, organizationID, campaign string) (*persistence.CampaignHealth, error) {
	health := &persistence.CampaignHealth{}
	if err := readDoc(r.path(organizationID, campaign), health, persistence.ErrCampaignStatsNotFound); err != nil {
		return nil, err
	}

	return health, nil
}

func (r *campaignStatsRepository) Save(ctx context.Context, health *persistence.CampaignHealth) error {
	return writeDoc(r.path(health.OrganizationID, health.Campaign), health)
}
