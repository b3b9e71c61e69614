// Package predictive implements the predictive_router internal action
// handler: it assigns the lead to the agent most likely to convert it, based
// on the tenant's historical expertise matrix.
package predictive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leadflowhq/leadflow/pkg/analytics"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// AgentVariable exposes the chosen agent to downstream nodes.
const AgentVariable = "assigned_agent"

// Routing tiers, strongest signal first.
const (
	TierCountryIntent = "country_intent"
	TierCountry       = "country"
	TierLeastLoaded   = "least_loaded"
)

// Result reports the assignment and which fallback tier produced it.
type Result struct {
	Assigned bool   `json:"assigned"`
	AgentID  string `json:"agent_id,omitempty"`
	Tier     string `json:"tier,omitempty"`
	Country  string `json:"country"`
	Intent   string `json:"intent,omitempty"`
}

type Handler struct {
	expertise persistence.ExpertiseRepository
	leads     persistence.LeadRepository
	tracker   *analytics.Tracker
	logger    *slog.Logger
}

func NewHandler(expertise persistence.ExpertiseRepository, leads persistence.LeadRepository, tracker *analytics.Tracker, logger *slog.Logger) *Handler {
	return &Handler{
		expertise: expertise,
		leads:     leads,
		tracker:   tracker,
		logger:    logger.With("module", "predictive"),
	}
}

func (h *Handler) Kind() models.ProviderKind {
	return models.ProviderPredictiveRouter
}

// Execute walks the fallback chain: best converter for the lead's
// country+intent, then best for the country alone, then the least loaded
// agent. A tenant with no agents at all yields an unassigned result, not an
// error.
func (h *Handler) Execute(ctx context.Context, node *models.Node, state *models.ExecutionState, _ *models.Integration) (any, error) {
	lead := state.Payload
	country := lead.Country
	intent := h.leadIntent(state)

	result := Result{Country: country, Intent: intent}

	agentID, tier, err := h.route(ctx, state.OrganizationID, country, intent)
	if err != nil {
		if errors.Is(err, persistence.ErrNoEligibleAgent) {
			h.logger.WarnContext(ctx, "No eligible agent for lead",
				"node_id", node.ID, "lead_id", lead.ID, "country", country, "intent", intent)

			return result, nil
		}

		return nil, fmt.Errorf("predictive routing failed: %w", err)
	}

	if err := h.leads.UpdateAssignment(ctx, state.OrganizationID, lead.ID, agentID); err != nil {
		return nil, fmt.Errorf("failed to assign lead %s to agent %s: %w", lead.ID, agentID, err)
	}

	lead.AssignedTo = agentID
	state.SetVariable(AgentVariable, agentID)

	result.Assigned = true
	result.AgentID = agentID
	result.Tier = tier

	h.tracker.Track(ctx, analytics.NewEvent(analytics.PredictiveAssignmentEvent, state.OrganizationID, lead.ID, map[string]any{
		"agent_id": agentID,
		"tier":     tier,
		"country":  country,
		"intent":   intent,
		"node_id":  node.ID,
	}))

	return result, nil
}

func (h *Handler) route(ctx context.Context, organizationID, country, intent string) (string, string, error) {
	if country != "" && intent != "" {
		agentID, err := h.expertise.TopAgentByCountryIntent(ctx, organizationID, country, intent)
		if err == nil {
			return agentID, TierCountryIntent, nil
		}

		if !errors.Is(err, persistence.ErrNoEligibleAgent) {
			return "", "", err
		}
	}

	if country != "" {
		agentID, err := h.expertise.TopAgentByCountry(ctx, organizationID, country)
		if err == nil {
			return agentID, TierCountry, nil
		}

		if !errors.Is(err, persistence.ErrNoEligibleAgent) {
			return "", "", err
		}
	}

	agentID, err := h.expertise.LeastLoadedAgent(ctx, organizationID)
	if err != nil {
		return "", "", err
	}

	return agentID, TierLeastLoaded, nil
}

// leadIntent prefers the intent produced earlier in this run over a stale
// analysis persisted by a previous run.
func (h *Handler) leadIntent(state *models.ExecutionState) string {
	if v, ok := state.Variable("ai_intent"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}

	if state.Payload != nil && state.Payload.AIAnalysis != nil {
		return state.Payload.AIAnalysis.Intent
	}

	return ""
}
