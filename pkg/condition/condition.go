// Package condition evaluates workflow condition nodes: a flat
// field/operator/value triple checked against the current execution state.
// Evaluation never raises; an unknown operator or unresolvable field simply
// yields false so a misconfigured condition routes to the false branch
// instead of failing the run.
package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leadflowhq/leadflow/pkg/models"
)

// Supported operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpGreaterThan = "greater_than"
	OpIsInRegion  = "is_in_region"
)

// regions maps a region code to the country codes it covers.
var regions = map[string][]string{
	"EU":    {"AT", "BE", "DE", "DK", "ES", "FI", "FR", "IE", "IT", "NL", "PL", "PT", "SE"},
	"NA":    {"US", "CA", "MX"},
	"LATAM": {"AR", "BR", "CL", "CO", "EC", "PE", "UY"},
	"MENA":  {"AE", "BH", "EG", "JO", "KW", "LB", "MA", "OM", "QA", "SA"},
	"APAC":  {"AU", "ID", "IN", "JP", "KR", "MY", "NZ", "PH", "SG", "TH", "VN"},
}

// Evaluate resolves the configured field against the run's payload and
// applies the operator. String comparisons are case-insensitive; numeric
// comparison treats non-numeric operands as NaN and returns false.
func Evaluate(cfg models.ConditionConfig, state *models.ExecutionState) bool {
	if state == nil || state.Payload == nil {
		return false
	}

	actual := state.Payload.Field(cfg.Field)

	switch strings.ToLower(cfg.Operator) {
	case OpEquals:
		return strings.EqualFold(asString(actual), cfg.Value)
	case OpNotEquals:
		return !strings.EqualFold(asString(actual), cfg.Value)
	case OpContains:
		return strings.Contains(strings.ToLower(asString(actual)), strings.ToLower(cfg.Value))
	case OpGreaterThan:
		lhs, lok := asNumber(actual)
		rhs, rok := asNumber(cfg.Value)

		return lok && rok && lhs > rhs
	case OpIsInRegion:
		return inRegion(asString(actual), cfg.Value)
	default:
		return false
	}
}

func inRegion(country, region string) bool {
	countries, ok := regions[strings.ToUpper(region)]
	if !ok {
		return false
	}

	for _, c := range countries {
		if strings.EqualFold(c, country) {
			return true
		}
	}

	return false
}

func asString(v any) string {
	if v == nil {
		return ""
	}

	return fmt.Sprintf("%v", v)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(asString(v)), 64)
		if err != nil {
			return 0, false
		}

		return f, true
	}
}
