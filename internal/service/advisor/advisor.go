package advisor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-advisor/internal/domain/models"
	"github.com/mamadbah2/dairy-advisor/internal/service/metrics"
)

// feedReductionFactor is the fixed 10% feed cut the emissions advisory
// proposes.
const feedReductionFactor = 0.9

// Engine evaluates the advisory rule set against the current metrics. Rules
// are checked independently against the live values (no rule considers
// another rule's hypothetical effect) and emitted in fixed rule order;
// priority is metadata for the consumer, not an ordering key.
type Engine struct {
	metrics    *metrics.Engine
	thresholds metrics.Thresholds
	logger     *zap.Logger
}

// NewEngine wires an advisory engine on top of the metrics engine.
func NewEngine(metricsEngine *metrics.Engine, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		metrics:    metricsEngine,
		thresholds: metricsEngine.Thresholds(),
		logger:     logger,
	}
}

// Generate produces the ordered suggestion list for the given state. The
// result may be empty; consumers must render an explicit "no suggestions"
// state rather than hiding an empty list.
func (e *Engine) Generate(m models.DerivedMetrics, score models.EfficiencyScore, params models.FarmParameters, feedCostPerKg float64) []models.Suggestion {
	suggestions := make([]models.Suggestion, 0, 5)

	if m.Emissions > e.thresholds.Emissions {
		suggestions = append(suggestions, e.feedReductionSuggestion(m, params, feedCostPerKg))
	}

	if score.Operational < e.thresholds.OperationalEfficiency {
		suggestions = append(suggestions, models.Suggestion{
			Priority: models.PriorityMedium,
			Category: "efficiency",
			Action:   "Review the protein and nitrogen balance of the ration; both conversion efficiencies have headroom.",
			Impact: []models.ImpactEntry{
				{Label: "Operational efficiency", Value: fmt.Sprintf("%.1f (target %.0f+)", score.Operational, e.thresholds.OperationalEfficiency)},
			},
		})
	}

	if m.NitrogenEfficiency < e.thresholds.NitrogenEfficiency {
		suggestions = append(suggestions, models.Suggestion{
			Priority: models.PriorityMedium,
			Category: "nitrogen",
			Action:   "Split nitrogen applications to match grass uptake; current timing is losing nitrogen to the environment.",
			Impact: []models.ImpactEntry{
				{Label: "Nitrogen efficiency", Value: fmt.Sprintf("%.1f%% (target %.0f%%+)", m.NitrogenEfficiency, e.thresholds.NitrogenEfficiency)},
			},
		})
	}

	if m.ProteinEfficiency < e.thresholds.ProteinEfficiency {
		suggestions = append(suggestions, models.Suggestion{
			Priority: models.PriorityMedium,
			Category: "protein",
			Action:   "Review the crude protein content of the concentrate; conversion has dropped below target.",
			Impact: []models.ImpactEntry{
				{Label: "Protein efficiency", Value: fmt.Sprintf("%.1f%% (target %.0f%%+)", m.ProteinEfficiency, e.thresholds.ProteinEfficiency)},
			},
		})
	}

	if m.CostPerLitre > e.thresholds.CostPerLitre {
		suggestions = append(suggestions, models.Suggestion{
			Priority: models.PriorityHigh,
			Category: "cost",
			Action:   "Production cost per litre is above target; review feed contracts and ration composition.",
			Impact: []models.ImpactEntry{
				{Label: "Cost per litre", Value: fmt.Sprintf("%.2f (target %.2f)", m.CostPerLitre, e.thresholds.CostPerLitre)},
			},
		})
	}

	e.logger.Debug("advisory rules evaluated", zap.Int("suggestions", len(suggestions)))
	return suggestions
}

// feedReductionSuggestion quantifies the stock 10% feed cut: emissions drop,
// annualized feed cost saving and the yield give-up that comes with it.
func (e *Engine) feedReductionSuggestion(m models.DerivedMetrics, params models.FarmParameters, feedCostPerKg float64) models.Suggestion {
	reducedFeed := params.ConcentrateFeed * feedReductionFactor
	reducedEmissions, reducedYield := e.metrics.Project(reducedFeed)

	var emissionsCutPct, yieldImpactPct float64
	if m.Emissions != 0 {
		emissionsCutPct = (m.Emissions - reducedEmissions) / m.Emissions * 100
	}
	if m.Yield != 0 {
		yieldImpactPct = (m.Yield - reducedYield) / m.Yield * 100
	}
	annualSaving := (params.ConcentrateFeed - reducedFeed) * feedCostPerKg * 365

	return models.Suggestion{
		Priority: models.PriorityHigh,
		Category: "emissions",
		Action:   fmt.Sprintf("Reduce concentrate feed by 10%% to %.2f kg/day to bring emissions back under %.1f kg CO2e.", reducedFeed, e.thresholds.Emissions),
		Impact: []models.ImpactEntry{
			{Label: "Emissions reduction", Value: fmt.Sprintf("-%.1f%%", emissionsCutPct)},
			{Label: "Annual feed cost saving", Value: fmt.Sprintf("%.2f", annualSaving)},
			{Label: "Yield impact", Value: fmt.Sprintf("-%.1f%%", yieldImpactPct)},
		},
	}
}
