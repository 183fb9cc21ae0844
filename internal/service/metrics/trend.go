package metrics

import (
	"math/rand"
	"time"

	"github.com/mamadbah2/dairy-advisor/internal/domain/models"
)

// smoothingWindow is the trailing moving-average width for trend points.
const smoothingWindow = 3

// jitterSpread bounds the synthetic history around the current value
// (+/- half of it).
const jitterSpread = 0.12

// NoiseFunc yields pseudo-random samples in [0,1). Injecting one makes the
// simulator deterministic; production wiring leaves it nil for an unseeded
// source, which is noisy on purpose.
type NoiseFunc func() float64

// TrendSimulator fabricates a plausible monthly history around a current
// metric value for charting. The series is regenerated on every call and is
// never persisted.
type TrendSimulator struct {
	noise NoiseFunc
	now   func() time.Time
}

// NewTrendSimulator builds a simulator. A nil noise function falls back to
// the package-global pseudo-random source, which is safe under concurrent
// sessions.
func NewTrendSimulator(noise NoiseFunc) *TrendSimulator {
	if noise == nil {
		noise = rand.Float64
	}
	return &TrendSimulator{noise: noise, now: time.Now}
}

// WithClock overrides the simulator's clock. Test hook, mirrors the
// injectable now used elsewhere in the service layer.
func (s *TrendSimulator) WithClock(now func() time.Time) *TrendSimulator {
	if now != nil {
		s.now = now
	}
	return s
}

// Simulate returns a series of the given number of monthly points ending at
// the current month. Past points jitter around current; the final point is
// current itself so the chart always lands on the live value.
func (s *TrendSimulator) Simulate(current float64, periods int) []models.TrendPoint {
	if periods <= 0 {
		return nil
	}

	// Anchor on the first of the month: stepping back from day 29-31 would
	// otherwise normalize into the wrong month and skip or duplicate labels.
	now := s.now()
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	points := make([]models.TrendPoint, 0, periods)
	for i := 0; i < periods; i++ {
		value := current
		if i < periods-1 {
			value = current * (1 + (s.noise()-0.5)*jitterSpread)
		}
		points = append(points, models.TrendPoint{
			Period: anchor.AddDate(0, -(periods - 1 - i), 0).Format("Jan"),
			Value:  value,
		})
	}

	Smooth(points)
	return points
}

// Smooth fills the trailing moving average for every point that has a full
// window behind it. Earlier points keep a nil smoothed value.
func Smooth(points []models.TrendPoint) {
	for i := range points {
		if i < smoothingWindow-1 {
			points[i].Smoothed = nil
			continue
		}
		var sum float64
		for j := i - smoothingWindow + 1; j <= i; j++ {
			sum += points[j].Value
		}
		avg := sum / smoothingWindow
		points[i].Smoothed = &avg
	}
}

// monthLabels is the wrap-around label cycle used by the sliding window.
var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// NextPeriodLabel returns the month label following the given one, wrapping
// Dec back to Jan. Unknown labels restart the cycle at Jan.
func NextPeriodLabel(label string) string {
	for i, m := range monthLabels {
		if m == label {
			return monthLabels[(i+1)%len(monthLabels)]
		}
	}
	return monthLabels[0]
}
