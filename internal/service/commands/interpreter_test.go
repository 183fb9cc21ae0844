package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairy-advisor/internal/domain/models"
	"github.com/mamadbah2/dairy-advisor/internal/service/metrics"
)

func newTestInterpreter() *Interpreter {
	sim := metrics.NewTrendSimulator(func() float64 { return 0.5 }).
		WithClock(func() time.Time { return time.Date(2025, time.September, 15, 12, 0, 0, 0, time.UTC) })
	return NewInterpreter(sim, nil)
}

func testView() View {
	return View{
		Params:        models.FarmParameters{ConcentrateFeed: 8.08, NitrogenRate: 180},
		FeedCostPerKg: 0.30,
		Metrics: models.DerivedMetrics{
			Emissions:          1.39,
			Yield:              8750,
			CostPerLitre:       0.351,
			ProteinEfficiency:  14.3,
			NitrogenEfficiency: 17.6,
		},
		Score: models.EfficiencyScore{
			Environmental: 7.3,
			Economic:      0,
			Operational:   15.95,
			Total:         7.75,
		},
		Timeframe: models.TimeframeSixMonths,
	}
}

func TestShowEmissionsReturnsTrend(t *testing.T) {
	result := newTestInterpreter().Interpret("please show emissions history", testView())

	assert.Equal(t, models.MessageSystem, result.Response.Kind)
	assert.Nil(t, result.Mutation)
	require.Len(t, result.Response.Trend, 6)
	assert.Equal(t, 1.39, result.Response.Trend[5].Value)
}

func TestAnalyzeEfficiencyReturnsScoreBreakdown(t *testing.T) {
	result := newTestInterpreter().Interpret("analyze efficiency for me", testView())

	assert.Equal(t, models.MessageSystem, result.Response.Kind)
	assert.Nil(t, result.Mutation)
	require.Len(t, result.Response.Metrics, 4)
	assert.Equal(t, "Environmental", result.Response.Metrics[0].Label)
	assert.Equal(t, "Total", result.Response.Metrics[3].Label)
}

func TestFirstMatchWins(t *testing.T) {
	// Contains the substrings of both view rules; the emissions rule sits
	// first in the table, so it must win.
	result := newTestInterpreter().Interpret("analyze efficiency and show emissions", testView())
	assert.NotEmpty(t, result.Response.Trend)
	assert.Empty(t, result.Response.Metrics)
}

func TestReduceFeedValidPercentage(t *testing.T) {
	result := newTestInterpreter().Interpret("reduce feed by 20%", testView())

	require.NotNil(t, result.Mutation)
	assert.InDelta(t, 6.464, result.Mutation.ConcentrateFeed, 1e-9)
	assert.Equal(t, 180.0, result.Mutation.NitrogenRate)
	assert.Equal(t, models.MessageSystem, result.Response.Kind)
	assert.Contains(t, result.Response.Text, "20%")
	assert.Contains(t, result.Response.Text, "6.46")
}

func TestReduceFeedIsCaseInsensitive(t *testing.T) {
	result := newTestInterpreter().Interpret("Reduce Feed By 10%", testView())

	require.NotNil(t, result.Mutation)
	assert.InDelta(t, 8.08*0.9, result.Mutation.ConcentrateFeed, 1e-9)
}

func TestReduceFeedOutOfRange(t *testing.T) {
	for _, utterance := range []string{"reduce feed by 150%", "reduce feed by 0%"} {
		result := newTestInterpreter().Interpret(utterance, testView())

		assert.Equal(t, models.MessageError, result.Response.Kind, utterance)
		assert.Nil(t, result.Mutation, utterance)
	}
}

func TestReduceFeedWithoutPercentageAsksForClarification(t *testing.T) {
	result := newTestInterpreter().Interpret("reduce feed a little", testView())

	assert.Equal(t, models.MessageHelp, result.Response.Kind)
	assert.Nil(t, result.Mutation)
}

func TestUnrecognizedInputGetsFixedHelp(t *testing.T) {
	result := newTestInterpreter().Interpret("banana", testView())

	assert.Equal(t, models.MessageHelp, result.Response.Kind)
	assert.Equal(t, helpText, result.Response.Text)
	assert.Nil(t, result.Mutation)
}

func TestAdvisoryEchoesSuggestions(t *testing.T) {
	view := testView()
	view.Suggestions = []models.Suggestion{
		{Priority: models.PriorityHigh, Category: "emissions", Action: "Reduce concentrate feed by 10%"},
	}

	result := newTestInterpreter().Interpret("suggest optimizations", view)
	assert.Equal(t, models.MessageSystem, result.Response.Kind)
	require.Len(t, result.Response.Suggestions, 1)
}

func TestAdvisoryWithNoSuggestionsIsExplicit(t *testing.T) {
	result := newTestInterpreter().Interpret("suggest optimizations", testView())

	assert.Equal(t, models.MessageSystem, result.Response.Kind)
	assert.Empty(t, result.Response.Suggestions)
	assert.Contains(t, result.Response.Text, "No optimization suggestions")
}
