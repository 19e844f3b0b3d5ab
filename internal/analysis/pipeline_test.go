package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedScorer struct {
	score int
	seen  []FeatureVector
}

func (f *fixedScorer) Score(features FeatureVector) int {
	f.seen = append(f.seen, features)
	return f.score
}

func TestAnalyzer_Analyze(t *testing.T) {
	scorer := &fixedScorer{score: 72}
	analyzer := NewAnalyzer(scorer)

	result, err := analyzer.Analyze(samplePortfolio(), Options{DailyPnL: -0.06})
	require.NoError(t, err)

	assert.Equal(t, 72, result.Score)
	require.Len(t, scorer.seen, 1)
	assert.Equal(t, result.Features, scorer.seen[0])

	assert.Equal(t, 5050.0, result.Metrics.TotalValue)
	assert.Equal(t, RiskLow, result.RiskReport.OverallRisk)
	assert.Len(t, result.PositionRisks, 2)
	assert.Equal(t, 40, result.Diversification.DiversificationScore)

	// daily loss plus both positions above 25%
	require.Len(t, result.Alerts, 3)
	assert.Equal(t, AlertDailyLossLimit, result.Alerts[0].Type)

	require.Len(t, result.Suggestions, 2)
	assert.Equal(t, "AAPL", result.Suggestions[0].Symbol)
	assert.Equal(t, "TSLA", result.Suggestions[1].Symbol)
}

func TestAnalyzer_Analyze_EmptyPortfolio(t *testing.T) {
	scorer := &fixedScorer{score: 50}
	_, err := NewAnalyzer(scorer).Analyze(nil, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, scorer.seen)
}

func TestSymbols(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "TSLA"}, Symbols(samplePortfolio()))
	assert.Empty(t, Symbols(nil))
}
