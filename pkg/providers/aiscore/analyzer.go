package aiscore

import (
	"context"
	"fmt"
	"strings"

	"github.com/leadflowhq/leadflow/pkg/models"
)

// Analyzer produces an AI analysis for a lead. The production deployment
// plugs an LLM-backed implementation in here.
type Analyzer interface {
	Analyze(ctx context.Context, lead *models.Lead) (*models.AIAnalysis, error)
}

// Known intents, weakest to strongest.
const (
	IntentCold     = "cold"
	IntentCurious  = "curious"
	IntentEngaged  = "engaged"
	IntentReadyNow = "ready_now"
)

// RuleAnalyzer scores leads from their ingestion metadata without calling an
// external model: profile completeness plus buying-signal keywords in the
// free-text fields.
type RuleAnalyzer struct{}

func NewRuleAnalyzer() *RuleAnalyzer {
	return &RuleAnalyzer{}
}

var buyingSignals = []string{"buy", "price", "pricing", "quote", "demo", "urgent", "budget", "asap"}

func (a *RuleAnalyzer) Analyze(_ context.Context, lead *models.Lead) (*models.AIAnalysis, error) {
	score := 20

	if lead.Email != "" {
		score += 15
	}

	if lead.Phone != "" {
		score += 15
	}

	if lead.Country != "" {
		score += 10
	}

	text := a.freeText(lead)

	signals := 0

	for _, keyword := range buyingSignals {
		if strings.Contains(text, keyword) {
			signals++
		}
	}

	score += signals * 10
	if score > 100 {
		score = 100
	}

	intent := IntentCold

	switch {
	case score >= 80:
		intent = IntentReadyNow
	case score >= 60:
		intent = IntentEngaged
	case score >= 40:
		intent = IntentCurious
	}

	return &models.AIAnalysis{
		Score:   score,
		Intent:  intent,
		Summary: fmt.Sprintf("rule-based score %d with %d buying signals", score, signals),
	}, nil
}

func (a *RuleAnalyzer) freeText(lead *models.Lead) string {
	var b strings.Builder

	for _, v := range lead.RawData {
		if s, ok := v.(string); ok {
			b.WriteString(strings.ToLower(s))
			b.WriteByte(' ')
		}
	}

	return b.String()
}
