// Package abtest implements the ab_test internal action handler: a
// deterministic, weight-proportional variant split. The same lead always
// lands in the same variant of a given test, across runs and across
// processes.
package abtest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leadflowhq/leadflow/pkg/analytics"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/spaolacci/murmur3"
)

// VariantVariable exposes the assignment to downstream condition nodes.
const VariantVariable = "ab_variant"

// Result reports the variant assignment.
type Result struct {
	TestID  string `json:"test_id"`
	Variant string `json:"variant"`
}

type Handler struct {
	tracker *analytics.Tracker
	logger  *slog.Logger
}

func NewHandler(tracker *analytics.Tracker, logger *slog.Logger) *Handler {
	return &Handler{
		tracker: tracker,
		logger:  logger.With("module", "abtest"),
	}
}

func (h *Handler) Kind() models.ProviderKind {
	return models.ProviderABTest
}

func (h *Handler) Execute(ctx context.Context, node *models.Node, state *models.ExecutionState, _ *models.Integration) (any, error) {
	var cfg models.ABTestConfig

	if err := models.DecodeConfig(node.Config, &cfg); err != nil {
		return nil, fmt.Errorf("ab_test node %s: %w", node.ID, err)
	}

	if cfg.TestID == "" || len(cfg.Variants) == 0 {
		return nil, fmt.Errorf("ab_test node %s: test_id and variants are required", node.ID)
	}

	lead := state.Payload

	variant, err := Assign(cfg, lead.Identifier())
	if err != nil {
		return nil, fmt.Errorf("ab_test node %s: %w", node.ID, err)
	}

	state.SetVariable(VariantVariable, variant)

	h.tracker.Track(ctx, analytics.NewEvent(analytics.ABAssignmentEvent, state.OrganizationID, lead.ID, map[string]any{
		"test_id": cfg.TestID,
		"variant": variant,
		"node_id": node.ID,
	}))

	return Result{TestID: cfg.TestID, Variant: variant}, nil
}

// Assign hashes the test id and lead identity into a bucket and walks the
// variants in declared order until the cumulative weight covers it. Identity
// hashing, not randomness: re-running a workflow never flips a lead's arm.
func Assign(cfg models.ABTestConfig, identity string) (string, error) {
	total := 0
	for _, v := range cfg.Variants {
		if v.Weight <= 0 {
			return "", fmt.Errorf("variant %q has non-positive weight %d", v.ID, v.Weight)
		}

		total += v.Weight
	}

	bucket := int(murmur3.Sum32([]byte(cfg.TestID+":"+identity)) % uint32(total))

	cumulative := 0
	for _, v := range cfg.Variants {
		cumulative += v.Weight
		if bucket < cumulative {
			return v.ID, nil
		}
	}

	// Unreachable: bucket < total and the cumulative walk covers total.
	return cfg.Variants[len(cfg.Variants)-1].ID, nil
}
