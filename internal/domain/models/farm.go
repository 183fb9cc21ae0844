package models

// FarmParameters holds the two operator-adjustable inputs of the what-if
// model. A session owns exactly one live instance; every change goes through
// the session store's update protocol so derived state is never stale.
type FarmParameters struct {
	ConcentrateFeed float64 `json:"concentrate_feed"` // kg/day, >= 0
	NitrogenRate    float64 `json:"nitrogen_rate"`    // kg N/ha/yr, >= 0
}

// DerivedMetrics are pure projections of FarmParameters plus the feed cost.
// They are recomputed on every change, never mutated in place.
type DerivedMetrics struct {
	Emissions          float64 `json:"emissions"`           // kg CO2e per litre
	Yield              float64 `json:"yield"`               // litres per year
	CostPerLitre       float64 `json:"cost_per_litre"`      // currency per litre
	ProteinEfficiency  float64 `json:"protein_efficiency"`  // %
	NitrogenEfficiency float64 `json:"nitrogen_efficiency"` // %
}

// EfficiencyScore aggregates DerivedMetrics into 0-100 sub-scores.
// Operational is the plain mean of the two efficiency percentages and is
// unbounded above by construction; the asymmetry is intentional.
type EfficiencyScore struct {
	Environmental float64 `json:"environmental"`
	Economic      float64 `json:"economic"`
	Operational   float64 `json:"operational"`
	Total         float64 `json:"total"`
}
