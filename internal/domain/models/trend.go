package models

import "fmt"

// TrendPoint is one month of the synthetic history shown for a metric.
// Smoothed is a trailing moving average and is only present once enough
// points precede it.
type TrendPoint struct {
	Period   string   `json:"period"` // month label, e.g. "Sep"
	Value    float64  `json:"value"`
	Smoothed *float64 `json:"smoothed,omitempty"`
}

// Timeframe selects how many months of synthetic history are displayed.
type Timeframe string

const (
	TimeframeSixMonths    Timeframe = "6m"
	TimeframeTwelveMonths Timeframe = "12m"
)

// Periods maps the timeframe to its number of monthly points.
func (t Timeframe) Periods() int {
	if t == TimeframeSixMonths {
		return 6
	}
	return 12
}

// ParseTimeframe validates a raw timeframe string.
func ParseTimeframe(raw string) (Timeframe, error) {
	switch Timeframe(raw) {
	case TimeframeSixMonths:
		return TimeframeSixMonths, nil
	case TimeframeTwelveMonths:
		return TimeframeTwelveMonths, nil
	default:
		return "", fmt.Errorf("unsupported timeframe %q (want 6m or 12m)", raw)
	}
}
