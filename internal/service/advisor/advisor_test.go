package advisor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairy-advisor/internal/domain/models"
	"github.com/mamadbah2/dairy-advisor/internal/service/metrics"
)

func newTestAdvisor() (*Engine, *metrics.Engine) {
	metricsEngine := metrics.NewEngine(metrics.DefaultBaseline(), metrics.DefaultThresholds())
	return NewEngine(metricsEngine, nil), metricsEngine
}

func categories(suggestions []models.Suggestion) []string {
	out := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, s.Category)
	}
	return out
}

func TestEmissionsRuleFiresOnlyAboveThreshold(t *testing.T) {
	adv, engine := newTestAdvisor()

	// At the baseline feed rate emissions sit at 1.39, below the 1.5 limit.
	params := models.FarmParameters{ConcentrateFeed: 8.08, NitrogenRate: 180}
	m, err := engine.Compute(params, 0.30)
	require.NoError(t, err)
	suggestions := adv.Generate(m, engine.Score(m), params, 0.30)
	assert.NotContains(t, categories(suggestions), "emissions")

	// The rule is strict: emissions sitting exactly on the threshold must
	// not trigger it.
	boundary := models.DerivedMetrics{Emissions: 1.5, Yield: 8750, CostPerLitre: 0.30, ProteinEfficiency: 13, NitrogenEfficiency: 16}
	suggestions = adv.Generate(boundary, models.EfficiencyScore{Operational: 80}, params, 0.30)
	assert.NotContains(t, categories(suggestions), "emissions")

	params = models.FarmParameters{ConcentrateFeed: 11, NitrogenRate: 180}
	m, err = engine.Compute(params, 0.30)
	require.NoError(t, err)
	suggestions = adv.Generate(m, engine.Score(m), params, 0.30)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "emissions", suggestions[0].Category)
	assert.Equal(t, models.PriorityHigh, suggestions[0].Priority)
}

func TestEmissionsRuleReportsReductionPercentage(t *testing.T) {
	adv, engine := newTestAdvisor()

	params := models.FarmParameters{ConcentrateFeed: 12, NitrogenRate: 180}
	m, err := engine.Compute(params, 0.30)
	require.NoError(t, err)

	suggestions := adv.Generate(m, engine.Score(m), params, 0.30)
	require.NotEmpty(t, suggestions)
	require.Equal(t, "emissions", suggestions[0].Category)

	reducedEmissions, reducedYield := engine.Project(12 * 0.9)
	wantCut := (m.Emissions - reducedEmissions) / m.Emissions * 100
	wantYieldHit := (m.Yield - reducedYield) / m.Yield * 100
	wantSaving := (12 - 12*0.9) * 0.30 * 365

	impact := suggestions[0].Impact
	require.Len(t, impact, 3)
	assert.Equal(t, fmt.Sprintf("-%.1f%%", wantCut), impact[0].Value)
	assert.Equal(t, fmt.Sprintf("%.2f", wantSaving), impact[1].Value)
	assert.Equal(t, fmt.Sprintf("-%.1f%%", wantYieldHit), impact[2].Value)
}

func TestOperationalRuleFiresBelowFloor(t *testing.T) {
	adv, engine := newTestAdvisor()

	// Operational is the mean of two efficiency percentages, so with real
	// inputs it always sits well below the 70 floor.
	params := models.FarmParameters{ConcentrateFeed: 8.08, NitrogenRate: 180}
	m, err := engine.Compute(params, 0.30)
	require.NoError(t, err)

	suggestions := adv.Generate(m, engine.Score(m), params, 0.30)
	assert.Contains(t, categories(suggestions), "efficiency")
}

func TestExtendedRules(t *testing.T) {
	adv, _ := newTestAdvisor()
	params := models.FarmParameters{ConcentrateFeed: 8.08, NitrogenRate: 180}

	m := models.DerivedMetrics{
		Emissions:          1.2,
		Yield:              8750,
		CostPerLitre:       0.40,
		ProteinEfficiency:  11.5,
		NitrogenEfficiency: 14.0,
	}
	score := models.EfficiencyScore{Operational: 80}

	suggestions := adv.Generate(m, score, params, 0.30)
	assert.Equal(t, []string{"nitrogen", "protein", "cost"}, categories(suggestions))
	assert.Equal(t, models.PriorityMedium, suggestions[0].Priority)
	assert.Equal(t, models.PriorityMedium, suggestions[1].Priority)
	assert.Equal(t, models.PriorityHigh, suggestions[2].Priority)
}

func TestRuleOrderIsFixedNotPrioritySorted(t *testing.T) {
	adv, _ := newTestAdvisor()
	params := models.FarmParameters{ConcentrateFeed: 12, NitrogenRate: 300}

	// Everything out of range at once: output must follow rule order, with
	// the high-priority cost rule still last.
	m := models.DerivedMetrics{
		Emissions:          1.8,
		Yield:              9142,
		CostPerLitre:       0.50,
		ProteinEfficiency:  11.0,
		NitrogenEfficiency: 14.0,
	}
	score := models.EfficiencyScore{Operational: 12.5}

	suggestions := adv.Generate(m, score, params, 0.30)
	assert.Equal(t, []string{"emissions", "efficiency", "nitrogen", "protein", "cost"}, categories(suggestions))
}

func TestNoSuggestionsWhenAllMetricsHealthy(t *testing.T) {
	adv, _ := newTestAdvisor()
	params := models.FarmParameters{ConcentrateFeed: 8.08, NitrogenRate: 180}

	m := models.DerivedMetrics{
		Emissions:          1.2,
		Yield:              8750,
		CostPerLitre:       0.30,
		ProteinEfficiency:  13.0,
		NitrogenEfficiency: 16.0,
	}
	score := models.EfficiencyScore{Operational: 80}

	assert.Empty(t, adv.Generate(m, score, params, 0.30))
}
