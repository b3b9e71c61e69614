package aiscore_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/providers/aiscore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLeads struct {
	analysisFor string
	err         error
}

func (r *recordingLeads) GetByID(_ context.Context, _, _ string) (*models.Lead, error) {
	return nil, errors.New("not implemented")
}

func (r *recordingLeads) Save(_ context.Context, _ *models.Lead) error {
	return nil
}

func (r *recordingLeads) UpdateAnalysis(_ context.Context, _, leadID string, _ *models.AIAnalysis, _ int) error {
	if r.err != nil {
		return r.err
	}

	r.analysisFor = leadID

	return nil
}

func (r *recordingLeads) UpdateAssignment(_ context.Context, _, _, _ string) error {
	return nil
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(_ context.Context, _ *models.Lead) (*models.AIAnalysis, error) {
	return nil, errors.New("model unavailable")
}

func scorerNode() *models.Node {
	return &models.Node{ID: "score-1", Type: models.NodeTypeAction, Provider: models.ProviderAIScorer}
}

func TestRuleAnalyzerScoring(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		lead   *models.Lead
		score  int
		intent string
	}{
		{
			name:   "bare lead",
			lead:   &models.Lead{ID: "l1"},
			score:  20,
			intent: aiscore.IntentCold,
		},
		{
			name:   "complete profile",
			lead:   &models.Lead{ID: "l1", Email: "a@b.com", Phone: "+1555", Country: "US"},
			score:  60,
			intent: aiscore.IntentEngaged,
		},
		{
			name: "complete profile with buying signals",
			lead: &models.Lead{
				ID: "l1", Email: "a@b.com", Phone: "+1555", Country: "US",
				RawData: map[string]any{"notes": "need pricing and a demo asap"},
			},
			score:  90,
			intent: aiscore.IntentReadyNow,
		},
		{
			name: "score capped at 100",
			lead: &models.Lead{
				ID: "l1", Email: "a@b.com", Phone: "+1555", Country: "US",
				RawData: map[string]any{"notes": "buy price pricing quote demo urgent budget asap"},
			},
			score:  100,
			intent: aiscore.IntentReadyNow,
		},
		{
			name:   "email only is curious",
			lead:   &models.Lead{ID: "l1", Email: "a@b.com", RawData: map[string]any{"notes": "saw the demo"}},
			score:  45,
			intent: aiscore.IntentCurious,
		},
	}

	analyzer := aiscore.NewRuleAnalyzer()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			analysis, err := analyzer.Analyze(context.Background(), tt.lead)
			require.NoError(t, err)

			assert.Equal(t, tt.score, analysis.Score)
			assert.Equal(t, tt.intent, analysis.Intent)
		})
	}
}

func TestExecuteEnrichesLeadAndState(t *testing.T) {
	t.Parallel()

	leads := &recordingLeads{}
	handler := aiscore.NewHandler(aiscore.NewRuleAnalyzer(), leads, slog.Default())

	lead := &models.Lead{ID: "lead-1", Email: "a@b.com", Phone: "+1555", Country: "US"}
	state := models.NewExecutionState("org-1", lead)

	output, err := handler.Execute(context.Background(), scorerNode(), state, nil)
	require.NoError(t, err)

	result, ok := output.(aiscore.Result)
	require.True(t, ok)
	assert.True(t, result.Scored)
	assert.Equal(t, 60, result.Score)

	require.NotNil(t, lead.AIAnalysis)
	assert.Equal(t, 60, lead.Score)
	assert.False(t, lead.AIAnalysis.AnalyzedAt.IsZero())

	score, ok := state.Variable(aiscore.ScoreVariable)
	require.True(t, ok)
	assert.Equal(t, 60, score)

	intent, ok := state.Variable(aiscore.IntentVariable)
	require.True(t, ok)
	assert.Equal(t, aiscore.IntentEngaged, intent)

	assert.Equal(t, "lead-1", leads.analysisFor)
}

func TestExecuteAnalyzerFailureIsReportedNotRaised(t *testing.T) {
	t.Parallel()

	handler := aiscore.NewHandler(failingAnalyzer{}, &recordingLeads{}, slog.Default())

	lead := &models.Lead{ID: "lead-1"}
	state := models.NewExecutionState("org-1", lead)

	output, err := handler.Execute(context.Background(), scorerNode(), state, nil)
	require.NoError(t, err)

	result, ok := output.(aiscore.Result)
	require.True(t, ok)
	assert.False(t, result.Scored)
	assert.Contains(t, result.Error, "model unavailable")
	assert.Nil(t, lead.AIAnalysis)
}

func TestExecutePersistenceFailureDoesNotFailStep(t *testing.T) {
	t.Parallel()

	leads := &recordingLeads{err: errors.New("store offline")}
	handler := aiscore.NewHandler(aiscore.NewRuleAnalyzer(), leads, slog.Default())

	state := models.NewExecutionState("org-1", &models.Lead{ID: "lead-1", Email: "a@b.com"})

	output, err := handler.Execute(context.Background(), scorerNode(), state, nil)
	require.NoError(t, err)

	result, ok := output.(aiscore.Result)
	require.True(t, ok)
	assert.True(t, result.Scored)

	_, ok = state.Variable(aiscore.ScoreVariable)
	assert.True(t, ok)
}
