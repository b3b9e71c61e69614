// Package roiguard implements the roi_guard internal action handler: it
// flags leads from campaigns that are burning budget without converting so
// workflows can divert them off expensive follow-up paths.
package roiguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leadflowhq/leadflow/pkg/analytics"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// SafeVariable exposes the verdict to downstream condition nodes.
const SafeVariable = "campaign_safe"

// A campaign is unhealthy when ROI is below break-even and the sample is big
// enough to trust.
const (
	roiThreshold      = 100.0
	minimumLeadVolume = 10
)

// Result reports the campaign health verdict. Campaigns without stats are
// treated as safe; the guard only acts on evidence.
type Result struct {
	Safe       bool    `json:"safe"`
	Campaign   string  `json:"campaign,omitempty"`
	ROIPercent float64 `json:"roi_percent,omitempty"`
	LeadVolume int     `json:"lead_volume,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

type Handler struct {
	stats   persistence.CampaignStatsRepository
	tracker *analytics.Tracker
	logger  *slog.Logger
}

func NewHandler(stats persistence.CampaignStatsRepository, tracker *analytics.Tracker, logger *slog.Logger) *Handler {
	return &Handler{
		stats:   stats,
		tracker: tracker,
		logger:  logger.With("module", "roiguard"),
	}
}

func (h *Handler) Kind() models.ProviderKind {
	return models.ProviderROIGuard
}

func (h *Handler) Execute(ctx context.Context, node *models.Node, state *models.ExecutionState, _ *models.Integration) (any, error) {
	lead := state.Payload
	campaign := lead.CampaignKey()

	if campaign == "" {
		state.SetVariable(SafeVariable, true)

		return Result{Safe: true, Reason: "lead has no campaign"}, nil
	}

	health, err := h.stats.Health(ctx, state.OrganizationID, campaign)
	if err != nil {
		if errors.Is(err, persistence.ErrCampaignStatsNotFound) {
			state.SetVariable(SafeVariable, true)

			return Result{Safe: true, Campaign: campaign, Reason: "no stats for campaign"}, nil
		}

		return nil, fmt.Errorf("failed to load campaign stats: %w", err)
	}

	result := Result{
		Safe:       true,
		Campaign:   campaign,
		ROIPercent: health.ROIPercent,
		LeadVolume: health.LeadVolume,
	}

	if health.ROIPercent < roiThreshold && health.LeadVolume > minimumLeadVolume {
		result.Safe = false
		result.Reason = fmt.Sprintf("roi %.1f%% below threshold over %d leads", health.ROIPercent, health.LeadVolume)

		h.logger.WarnContext(ctx, "Campaign flagged by ROI guard",
			"node_id", node.ID, "campaign", campaign,
			"roi_percent", health.ROIPercent, "lead_volume", health.LeadVolume)

		h.tracker.Track(ctx, analytics.NewEvent(analytics.ROIGuardTriggeredEvent, state.OrganizationID, lead.ID, map[string]any{
			"campaign":    campaign,
			"roi_percent": health.ROIPercent,
			"lead_volume": health.LeadVolume,
			"node_id":     node.ID,
		}))
	}

	state.SetVariable(SafeVariable, result.Safe)

	return result, nil
}
