package metrics

import (
	"errors"
	"math"

	"github.com/mamadbah2/dairy-advisor/internal/domain/models"
)

// ErrZeroYield indicates the derived yield is zero, which leaves the cost
// per litre undefined. The engine reports it instead of propagating
// NaN/Inf into downstream calculations.
var ErrZeroYield = errors.New("derived yield is zero, cost per litre undefined")

// ErrNonFiniteResult indicates a derived metric overflowed to NaN or Inf.
var ErrNonFiniteResult = errors.New("derived metrics are not finite")

// Linear response slopes of the what-if model.
const (
	emissionsPerFeedKg = 0.05  // kg CO2e per extra kg feed/day
	yieldPerFeedKg     = 100.0 // litres/yr per extra kg feed/day
	proteinPerFeedKg   = 0.1   // % lost per extra kg feed/day
	nitrogenPerRateKg  = 0.02  // % lost per extra kg N/ha/yr
	feedingDaysPerYear = 365
)

// Baseline anchors the response curves. Values are the reference farm the
// model was calibrated against; they are immutable once the engine is built.
type Baseline struct {
	ConcentrateFeed      float64 // F0, kg/day
	NitrogenRate         float64 // N0, kg N/ha/yr
	EmissionsAt          float64 // kg CO2e per litre at F0
	YieldAt              float64 // litres/yr at F0
	ProteinEfficiencyAt  float64 // % at F0
	NitrogenEfficiencyAt float64 // % at N0
	BaseOperationalCost  float64 // currency/litre floor of the cost curve
}

// DefaultBaseline returns the calibrated reference farm.
func DefaultBaseline() Baseline {
	return Baseline{
		ConcentrateFeed:      8.08,
		NitrogenRate:         180,
		EmissionsAt:          1.39,
		YieldAt:              8750,
		ProteinEfficiencyAt:  14.3,
		NitrogenEfficiencyAt: 17.6,
		BaseOperationalCost:  0.25,
	}
}

// Thresholds are the fixed limits that drive scoring and advisory rules.
type Thresholds struct {
	Emissions             float64 // kg CO2e per litre
	CostPerLitre          float64 // currency per litre
	OperationalEfficiency float64 // score floor for the generic advisory
	NitrogenEfficiency    float64 // % floor for the nitrogen timing advisory
	ProteinEfficiency     float64 // % floor for the protein review advisory
}

// DefaultThresholds returns the stock advisory limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Emissions:             1.5,
		CostPerLitre:          0.35,
		OperationalEfficiency: 70,
		NitrogenEfficiency:    15,
		ProteinEfficiency:     12,
	}
}

// Engine derives metrics and efficiency scores from farm parameters. It is
// pure: no side effects, same inputs always yield the same outputs. Rounding
// happens at the presentation boundary, never here, so chained calculations
// keep full precision.
type Engine struct {
	baseline   Baseline
	thresholds Thresholds
}

// NewEngine builds an engine around an immutable baseline and threshold set.
func NewEngine(baseline Baseline, thresholds Thresholds) *Engine {
	return &Engine{baseline: baseline, thresholds: thresholds}
}

// Thresholds exposes the engine's limit table to advisory consumers.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Project returns the emissions and yield the response curves predict for a
// given concentrate feed rate. Used for what-if comparisons such as the
// 10% feed reduction advisory.
func (e *Engine) Project(concentrateFeed float64) (emissions, yield float64) {
	dF := concentrateFeed - e.baseline.ConcentrateFeed
	return e.baseline.EmissionsAt + emissionsPerFeedKg*dF,
		e.baseline.YieldAt + yieldPerFeedKg*dF
}

// Compute derives the full metric set. It assumes the caller sanitized the
// inputs (non-negative, finite) but still guards the division by yield so a
// bad input surfaces as a domain error rather than NaN.
func (e *Engine) Compute(params models.FarmParameters, feedCostPerKg float64) (models.DerivedMetrics, error) {
	emissions, yield := e.Project(params.ConcentrateFeed)
	if yield == 0 {
		return models.DerivedMetrics{}, ErrZeroYield
	}

	dF := params.ConcentrateFeed - e.baseline.ConcentrateFeed
	dN := params.NitrogenRate - e.baseline.NitrogenRate

	m := models.DerivedMetrics{
		Emissions:          emissions,
		Yield:              yield,
		CostPerLitre:       e.baseline.BaseOperationalCost + (params.ConcentrateFeed*feedCostPerKg*feedingDaysPerYear)/yield,
		ProteinEfficiency:  e.baseline.ProteinEfficiencyAt - proteinPerFeedKg*dF,
		NitrogenEfficiency: e.baseline.NitrogenEfficiencyAt - nitrogenPerRateKg*dN,
	}

	for _, v := range []float64{m.Emissions, m.Yield, m.CostPerLitre, m.ProteinEfficiency, m.NitrogenEfficiency} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.DerivedMetrics{}, ErrNonFiniteResult
		}
	}

	return m, nil
}

// Score folds derived metrics into the four-part efficiency score.
// Environmental and economic are clamped to 0 from below; operational is the
// raw mean of the two efficiency percentages.
func (e *Engine) Score(m models.DerivedMetrics) models.EfficiencyScore {
	environmental := math.Max(0, 100-(m.Emissions/e.thresholds.Emissions)*100)
	economic := math.Max(0, 100-(m.CostPerLitre/e.thresholds.CostPerLitre)*100)
	operational := (m.ProteinEfficiency + m.NitrogenEfficiency) / 2

	return models.EfficiencyScore{
		Environmental: environmental,
		Economic:      economic,
		Operational:   operational,
		Total:         (environmental + economic + operational) / 3,
	}
}
