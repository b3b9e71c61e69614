package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// ExpertiseRepository serves predictive routing lookups against the
// precomputed expertise matrix. Ties break on agent id so routing is
// deterministic for a fixed matrix snapshot.
type ExpertiseRepository struct {
	db *sql.DB
}

func (r *ExpertiseRepository) TopAgentByCountryIntent(ctx context.Context, organizationID, country, intent string) (string, error) {
	query := `
		SELECT agent_id
		FROM expertise_matrix
		WHERE organization_id = $1 AND country = $2 AND intent = $3 AND conversions > 0
		ORDER BY conversions DESC, agent_id ASC
		LIMIT 1
	`

	return r.scanAgent(r.db.QueryRowContext(ctx, query, organizationID, country, intent))
}

func (r *ExpertiseRepository) TopAgentByCountry(ctx context.Context, organizationID, country string) (string, error) {
	query := `
		SELECT agent_id
		FROM (
			SELECT agent_id, SUM(conversions) AS total
			FROM expertise_matrix
			WHERE organization_id = $1 AND country = $2
			GROUP BY agent_id
			HAVING SUM(conversions) > 0
		) totals
		ORDER BY total DESC, agent_id ASC
		LIMIT 1
	`

	return r.scanAgent(r.db.QueryRowContext(ctx, query, organizationID, country))
}

// LeastLoadedAgent picks the known agent with the fewest currently assigned
// leads, the final fallback when the matrix has no signal.
func (r *ExpertiseRepository) LeastLoadedAgent(ctx context.Context, organizationID string) (string, error) {
	query := `
		SELECT em.agent_id
		FROM (SELECT DISTINCT organization_id, agent_id FROM expertise_matrix WHERE organization_id = $1) em
		LEFT JOIN leads l
		  ON l.organization_id = em.organization_id AND l.assigned_to = em.agent_id
		GROUP BY em.agent_id
		ORDER BY COUNT(l.id) ASC, em.agent_id ASC
		LIMIT 1
	`

	return r.scanAgent(r.db.QueryRowContext(ctx, query, organizationID))
}

func (r *ExpertiseRepository) Record(ctx context.Context, cell persistence.ExpertiseCell) error {
	query := `
		INSERT INTO expertise_matrix (organization_id, agent_id, country, intent, conversions)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (organization_id, agent_id, country, intent) DO UPDATE SET
			conversions = EXCLUDED.conversions
	`

	_, err := r.db.ExecContext(ctx, query, cell.OrganizationID, cell.AgentID, cell.Country, cell.Intent, cell.Conversions)
	if err != nil {
		return fmt.Errorf("failed to record expertise cell: %w", err)
	}

	return nil
}

func (r *ExpertiseRepository) scanAgent(row rowScanner) (string, error) {
	var agentID string

	err := row.Scan(&agentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", persistence.ErrNoEligibleAgent
		}

		return "", fmt.Errorf("failed to scan agent: %w", err)
	}

	return agentID, nil
}

// CampaignStatsRepository serves ROI snapshots for the roi-guard handler.
type CampaignStatsRepository struct {
	db *sql.DB
}

func (r *CampaignStatsRepository) Health(ctx context.Context, organizationID, campaign string) (*persistence.CampaignHealth, error) {
	query := `
		SELECT organization_id, campaign, roi_percent, lead_volume
		FROM campaign_stats
		WHERE organization_id = $1 AND campaign = $2
	`

	var health persistence.CampaignHealth

	err := r.db.QueryRowContext(ctx, query, organizationID, campaign).Scan(
		&health.OrganizationID,
		&health.Campaign,
		&health.ROIPercent,
		&health.LeadVolume,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrCampaignStatsNotFound
		}

		return nil, fmt.Errorf("failed to query campaign stats: %w", err)
	}

	return &health, nil
}

func (r *CampaignStatsRepository) Save(ctx context.Context, health *persistence.CampaignHealth) error {
	query := `
		INSERT INTO campaign_stats (organization_id, campaign, roi_percent, lead_volume)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id, campaign) DO UPDATE SET
			roi_percent = EXCLUDED.roi_percent,
			lead_volume = EXCLUDED.lead_volume
	`

	_, err := r.db.ExecContext(ctx, query, health.OrganizationID, health.Campaign, health.ROIPercent, health.LeadVolume)
	if err != nil {
		return fmt.Errorf("failed to save campaign stats: %w", err)
	}

	return nil
}
