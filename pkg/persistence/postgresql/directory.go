package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// OrganizationRepository resolves tenants.
type OrganizationRepository struct {
	db *sql.DB
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	query := `
		SELECT id, name, is_gdpr, timezone, created_at
		FROM organizations
		WHERE id = $1
	`

	var (
		org      models.Organization
		timezone sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Compliance.IsGDPR,
		&timezone,
		&org.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrOrganizationNotFound
		}

		return nil, fmt.Errorf("failed to query organization: %w", err)
	}

	org.Settings.Timezone = timezone.String

	return &org, nil
}

func (r *OrganizationRepository) Save(ctx context.Context, org *models.Organization) error {
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO organizations (id, name, is_gdpr, timezone, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			is_gdpr = EXCLUDED.is_gdpr,
			timezone = EXCLUDED.timezone
	`

	_, err := r.db.ExecContext(ctx, query, org.ID, org.Name, org.Compliance.IsGDPR, org.Settings.Timezone, org.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save organization: %w", err)
	}

	return nil
}

// IntegrationRepository resolves tenant provider credentials.
type IntegrationRepository struct {
	db *sql.DB
}

const integrationColumns = `
	id
  , organization_id
  , provider
  , name
  , region
  , is_active
  , credentials
  , created_at
`

func (r *IntegrationRepository) FindActive(ctx context.Context, organizationID string, provider models.ProviderKind) (*models.Integration, error) {
	query := `
		SELECT ` + integrationColumns + `
		FROM integrations
		WHERE organization_id = $1 AND provider = $2 AND is_active = TRUE
		ORDER BY created_at ASC
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, organizationID, provider))
}

func (r *IntegrationRepository) GetByID(ctx context.Context, organizationID, id string) (*models.Integration, error) {
	query := `
		SELECT ` + integrationColumns + `
		FROM integrations
		WHERE id = $1 AND organization_id = $2
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id, organizationID))
}

func (r *IntegrationRepository) Save(ctx context.Context, integration *models.Integration) error {
	if integration.ID == "" {
		integration.ID = uuid.New().String()
	}

	if integration.CreatedAt.IsZero() {
		integration.CreatedAt = time.Now().UTC()
	}

	credentialsJSON, err := json.Marshal(integration.Credentials)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	query := `
		INSERT INTO integrations (id, organization_id, provider, name, region, is_active, credentials, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			region = EXCLUDED.region,
			is_active = EXCLUDED.is_active,
			credentials = EXCLUDED.credentials
	`

	_, err = r.db.ExecContext(ctx, query,
		integration.ID,
		integration.OrganizationID,
		integration.Provider,
		integration.Name,
		integration.Region,
		integration.IsActive,
		credentialsJSON,
		integration.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save integration: %w", err)
	}

	return nil
}

func (r *IntegrationRepository) scanOne(row rowScanner) (*models.Integration, error) {
	var (
		integration     models.Integration
		region          sql.NullString
		credentialsJSON []byte
	)

	err := row.Scan(
		&integration.ID,
		&integration.OrganizationID,
		&integration.Provider,
		&integration.Name,
		&region,
		&integration.IsActive,
		&credentialsJSON,
		&integration.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrIntegrationNotFound
		}

		return nil, fmt.Errorf("failed to scan integration: %w", err)
	}

	integration.Region = region.String

	if len(credentialsJSON) > 0 {
		if err := json.Unmarshal(credentialsJSON, &integration.Credentials); err != nil {
			return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
		}
	}

	return &integration, nil
}

// LeadRepository stores leads. Partial updates only; concurrent workflow
// runs race last-write-wins on the fields they touch.
type LeadRepository struct {
	db *sql.DB
}

func (r *LeadRepository) GetByID(ctx context.Context, organizationID, id string) (*models.Lead, error) {
	query := `
		SELECT id, organization_id, name, email, phone, country, locale, campaign, campaign_name,
		       score, assigned_to, gdpr_consent, ai_analysis, raw_data, created_at, updated_at
		FROM leads
		WHERE id = $1 AND organization_id = $2
	`

	var (
		lead         models.Lead
		locale       sql.NullString
		assignedTo   sql.NullString
		analysisJSON []byte
		rawJSON      []byte
	)

	err := r.db.QueryRowContext(ctx, query, id, organizationID).Scan(
		&lead.ID,
		&lead.OrganizationID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Country,
		&locale,
		&lead.Campaign,
		&lead.CampaignName,
		&lead.Score,
		&assignedTo,
		&lead.GDPRConsent,
		&analysisJSON,
		&rawJSON,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrLeadNotFound
		}

		return nil, fmt.Errorf("failed to query lead: %w", err)
	}

	lead.Locale = locale.String
	lead.AssignedTo = assignedTo.String

	if len(analysisJSON) > 0 {
		if err := json.Unmarshal(analysisJSON, &lead.AIAnalysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ai analysis: %w", err)
		}
	}

	if len(rawJSON) > 0 {
		if err := json.Unmarshal(rawJSON, &lead.RawData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal raw data: %w", err)
		}
	}

	return &lead, nil
}

func (r *LeadRepository) Save(ctx context.Context, lead *models.Lead) error {
	now := time.Now().UTC()

	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}

	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}

	lead.UpdatedAt = now

	analysisJSON, err := json.Marshal(lead.AIAnalysis)
	if err != nil {
		return fmt.Errorf("failed to marshal ai analysis: %w", err)
	}

	rawJSON, err := json.Marshal(lead.RawData)
	if err != nil {
		return fmt.Errorf("failed to marshal raw data: %w", err)
	}

	query := `
		INSERT INTO leads (id, organization_id, name, email, phone, country, locale, campaign, campaign_name,
		                   score, assigned_to, gdpr_consent, ai_analysis, raw_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			country = EXCLUDED.country,
			locale = EXCLUDED.locale,
			campaign = EXCLUDED.campaign,
			campaign_name = EXCLUDED.campaign_name,
			score = EXCLUDED.score,
			assigned_to = EXCLUDED.assigned_to,
			gdpr_consent = EXCLUDED.gdpr_consent,
			ai_analysis = EXCLUDED.ai_analysis,
			raw_data = EXCLUDED.raw_data,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		lead.ID, lead.OrganizationID, lead.Name, lead.Email, lead.Phone, lead.Country,
		lead.Locale, lead.Campaign, lead.CampaignName, lead.Score, lead.AssignedTo,
		lead.GDPRConsent, analysisJSON, rawJSON, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}

	return nil
}

func (r *LeadRepository) UpdateAnalysis(ctx context.Context, organizationID, leadID string, analysis *models.AIAnalysis, score int) error {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal ai analysis: %w", err)
	}

	query := `
		UPDATE leads
		SET ai_analysis = $3, score = $4, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
	`

	return r.execOne(ctx, query, leadID, organizationID, analysisJSON, score)
}

func (r *LeadRepository) UpdateAssignment(ctx context.Context, organizationID, leadID, agentID string) error {
	query := `
		UPDATE leads
		SET assigned_to = $3, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
	`

	return r.execOne(ctx, query, leadID, organizationID, agentID)
}

func (r *LeadRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrLeadNotFound
	}

	return nil
}
