// Package aiscore implements the ai_scorer internal action handler. It runs
// an analyzer over the lead, stamps the result onto the lead and exposes it
// as run variables for downstream condition nodes.
package aiscore

import (
	"context"
	"log/slog"
	"time"

	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
)

// Variable names downstream condition nodes read.
const (
	ScoreVariable  = "ai_score"
	IntentVariable = "ai_intent"
)

// Result reports the scoring outcome. Scored is false when the analyzer
// failed; the run continues unscored rather than failing over a best-effort
// enrichment.
type Result struct {
	Scored bool   `json:"scored"`
	Score  int    `json:"score,omitempty"`
	Intent string `json:"intent,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Handler struct {
	analyzer Analyzer
	leads    persistence.LeadRepository
	logger   *slog.Logger
}

func NewHandler(analyzer Analyzer, leads persistence.LeadRepository, logger *slog.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		leads:    leads,
		logger:   logger.With("module", "aiscore"),
	}
}

func (h *Handler) Kind() models.ProviderKind {
	return models.ProviderAIScorer
}

func (h *Handler) Execute(ctx context.Context, node *models.Node, state *models.ExecutionState, _ *models.Integration) (any, error) {
	lead := state.Payload

	analysis, err := h.analyzer.Analyze(ctx, lead)
	if err != nil {
		h.logger.ErrorContext(ctx, "Lead analysis failed",
			"node_id", node.ID, "lead_id", lead.ID, "error", err)

		return Result{Error: err.Error()}, nil
	}

	if analysis.AnalyzedAt.IsZero() {
		analysis.AnalyzedAt = time.Now().UTC()
	}

	lead.AIAnalysis = analysis
	lead.Score = analysis.Score

	state.SetVariable(ScoreVariable, analysis.Score)
	state.SetVariable(IntentVariable, analysis.Intent)

	if err := h.leads.UpdateAnalysis(ctx, state.OrganizationID, lead.ID, analysis, analysis.Score); err != nil {
		// The score still lives in the run state; persistence is retried on
		// the next scoring pass.
		h.logger.ErrorContext(ctx, "Failed to persist lead analysis",
			"node_id", node.ID, "lead_id", lead.ID, "error", err)
	}

	return Result{
		Scored: true,
		Score:  analysis.Score,
		Intent: analysis.Intent,
	}, nil
}
