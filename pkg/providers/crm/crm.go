// Package crm implements the CRM sync action handler. Regional overrides let
// one node fan leads out to different tenant CRM accounts by country.
package crm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leadflowhq/leadflow/pkg/analytics"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// Result reports which integration the lead was pushed to.
type Result struct {
	Synced        bool   `json:"synced"`
	IntegrationID string `json:"integration_id"`
	Region        string `json:"region,omitempty"`
	Overridden    bool   `json:"overridden"`
}

type Handler struct {
	syncer       Syncer
	integrations persistence.IntegrationRepository
	tracker      *analytics.Tracker
	logger       *slog.Logger
}

func NewHandler(syncer Syncer, integrations persistence.IntegrationRepository, tracker *analytics.Tracker, logger *slog.Logger) *Handler {
	return &Handler{
		syncer:       syncer,
		integrations: integrations,
		tracker:      tracker,
		logger:       logger.With("module", "crm"),
	}
}

func (h *Handler) Kind() models.ProviderKind {
	return models.ProviderCRM
}

// Execute pushes the lead into the tenant's CRM. A sync error is raised so
// the workflow's failure path can compensate; there is no partial success to
// report.
func (h *Handler) Execute(ctx context.Context, node *models.Node, state *models.ExecutionState, integration *models.Integration) (any, error) {
	var cfg models.CRMConfig

	if err := models.DecodeConfig(node.Config, &cfg); err != nil {
		return nil, fmt.Errorf("crm node %s: %w", node.ID, err)
	}

	lead := state.Payload

	target, overridden, err := h.resolveIntegration(ctx, state.OrganizationID, lead, cfg, integration)
	if err != nil {
		return nil, err
	}

	if err := h.syncer.Sync(ctx, target, lead); err != nil {
		return nil, fmt.Errorf("crm sync to integration %s failed: %w", target.ID, err)
	}

	h.tracker.Track(ctx, analytics.NewEvent(analytics.CRMSyncEvent, state.OrganizationID, lead.ID, map[string]any{
		"integration_id": target.ID,
		"region":         target.Region,
		"overridden":     overridden,
		"node_id":        node.ID,
	}))

	return Result{
		Synced:        true,
		IntegrationID: target.ID,
		Region:        target.Region,
		Overridden:    overridden,
	}, nil
}

// resolveIntegration applies the node's regional overrides: a lead from an
// overridden country syncs to that country's integration, everyone else goes
// to the engine-resolved default.
func (h *Handler) resolveIntegration(
	ctx context.Context,
	organizationID string,
	lead *models.Lead,
	cfg models.CRMConfig,
	fallback *models.Integration,
) (*models.Integration, bool, error) {
	if lead != nil && len(cfg.RegionalOverrides) > 0 {
		if overrideID, ok := cfg.RegionalOverrides[lead.Country]; ok && overrideID != "" {
			override, err := h.integrations.GetByID(ctx, organizationID, overrideID)
			if err != nil {
				return nil, false, fmt.Errorf("regional override integration %s: %w", overrideID, err)
			}

			return override, true, nil
		}
	}

	if fallback == nil {
		return nil, false, fmt.Errorf("crm handler: %w", persistence.ErrIntegrationNotFound)
	}

	return fallback, false, nil
}
