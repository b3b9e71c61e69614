package registry

import (
	"fmt"

	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// Per-provider JSON schemas applied to node configs at workflow-save time,
// so a malformed config is rejected at the API boundary instead of failing
// mid-run inside a handler.
var configSchemas = map[models.ProviderKind]map[string]any{
	models.ProviderWhatsApp: messagingSchema(),
	models.ProviderEmail:    messagingSchema(),
	models.ProviderSMS:      messagingSchema(),
	models.ProviderCRM: {
		"type": "object",
		"properties": map[string]any{
			"regional_overrides": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
	},
	models.ProviderWebhook: {
		"type":     "object",
		"required": []any{"url"},
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "format": "uri"},
		},
	},
	models.ProviderABTest: {
		"type":     "object",
		"required": []any{"test_id", "variants"},
		"properties": map[string]any{
			"test_id": map[string]any{"type": "string", "minLength": 1},
			"variants": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"id", "weight"},
					"properties": map[string]any{
						"id":     map[string]any{"type": "string", "minLength": 1},
						"weight": map[string]any{"type": "integer", "minimum": 1},
					},
				},
			},
		},
	},
	models.ProviderAIScorer:         {"type": "object"},
	models.ProviderPredictiveRouter: {"type": "object"},
	models.ProviderROIGuard:         {"type": "object"},
}

func messagingSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"message"},
		"properties": map[string]any{
			"message": map[string]any{"type": "string", "minLength": 1},
			"subject": map[string]any{"type": "string"},
			"translations": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"message": map[string]any{"type": "string"},
						"subject": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}

// ValidateWorkflow checks that every action node targets a registered
// provider and carries a config its schema accepts. Structural graph checks
// live on models.Workflow.Validate.
func (r *Registry) ValidateWorkflow(workflow *models.Workflow) error {
	for _, node := range workflow.Nodes {
		if node.Type != models.NodeTypeAction {
			continue
		}

		if !r.Known(node.Provider) {
			return fmt.Errorf("node %s: provider %q not registered", node.ID, node.Provider)
		}

		if err := validateConfig(node); err != nil {
			return fmt.Errorf("node %s: %w", node.ID, err)
		}
	}

	return nil
}

func validateConfig(node *models.Node) error {
	schema, ok := configSchemas[node.Provider]
	if !ok {
		return nil
	}

	config := node.Config
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("config schema validation failed: %w", err)
	}

	if !result.Valid() {
		return fmt.Errorf("invalid config for provider %q: %s", node.Provider, result.Errors()[0].String())
	}

	return nil
}
