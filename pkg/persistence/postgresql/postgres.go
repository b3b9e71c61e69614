// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver
	"github.com/leadflowhq/leadflow/pkg/persistence"
	"github.com/leadflowhq/leadflow/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	workflows     *WorkflowRepository
	executionLogs *ExecutionLogRepository
	organizations *OrganizationRepository
	integrations  *IntegrationRepository
	leads         *LeadRepository
	expertise     *ExpertiseRepository
	campaignStats *CampaignStatsRepository
}

// NewPersistence connects, migrates, and returns a ready persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		workflows:     &WorkflowRepository{db: database, logger: logger},
		executionLogs: &ExecutionLogRepository{db: database, logger: logger},
		organizations: &OrganizationRepository{db: database},
		integrations:  &IntegrationRepository{db: database},
		leads:         &LeadRepository{db: database},
		expertise:     &ExpertiseRepository{db: database},
		campaignStats: &CampaignStatsRepository{db: database},
	}, nil
}

func (p *Persistence) Workflows() persistence.WorkflowRepository          { return p.workflows }
func (p *Persistence) ExecutionLogs() persistence.ExecutionLogRepository  { return p.executionLogs }
func (p *Persistence) Integrations() persistence.IntegrationRepository    { return p.integrations }
func (p *Persistence) Organizations() persistence.OrganizationRepository  { return p.organizations }
func (p *Persistence) Leads() persistence.LeadRepository                  { return p.leads }
func (p *Persistence) Expertise() persistence.ExpertiseRepository         { return p.expertise }
func (p *Persistence) CampaignStats() persistence.CampaignStatsRepository { return p.campaignStats }

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
