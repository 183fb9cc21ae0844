package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairy-advisor/internal/domain/models"
)

func fixedClock(month time.Month) func() time.Time {
	return func() time.Time {
		return time.Date(2025, month, 15, 12, 0, 0, 0, time.UTC)
	}
}

func TestSimulateLabelsEndAtCurrentMonth(t *testing.T) {
	sim := NewTrendSimulator(func() float64 { return 0.5 }).WithClock(fixedClock(time.September))

	points := sim.Simulate(1.39, 6)
	require.Len(t, points, 6)

	assert.Equal(t, "Apr", points[0].Period)
	assert.Equal(t, "Sep", points[5].Period)
}

func TestSimulateFinalPointIsCurrentValue(t *testing.T) {
	sim := NewTrendSimulator(func() float64 { return 0.25 }).WithClock(fixedClock(time.March))

	points := sim.Simulate(2.0, 12)
	require.Len(t, points, 12)

	assert.Equal(t, 2.0, points[11].Value)
	for _, p := range points[:11] {
		// noise fixed at 0.25 jitters every past point by the same factor
		assert.InDelta(t, 2.0*(1+(0.25-0.5)*jitterSpread), p.Value, 1e-9)
	}
}

func TestSimulateLabelsAreConsecutiveOnMonthEndDates(t *testing.T) {
	// Oct 31 has no Sep 31 or Jun 31; naive date arithmetic would skip Jun
	// and Sep and duplicate Jul and Oct.
	sim := NewTrendSimulator(func() float64 { return 0.5 }).
		WithClock(func() time.Time { return time.Date(2025, time.October, 31, 23, 0, 0, 0, time.UTC) })

	points := sim.Simulate(1.39, 6)
	require.Len(t, points, 6)

	want := []string{"May", "Jun", "Jul", "Aug", "Sep", "Oct"}
	for i, p := range points {
		assert.Equal(t, want[i], p.Period, "point %d", i)
	}
}

func TestSimulateDefaultNoiseIsConcurrencySafe(t *testing.T) {
	sim := NewTrendSimulator(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				points := sim.Simulate(1.39, 12)
				assert.Len(t, points, 12)
			}
		}()
	}
	wg.Wait()
}

func TestSimulateNonPositivePeriods(t *testing.T) {
	sim := NewTrendSimulator(func() float64 { return 0.5 })

	assert.Nil(t, sim.Simulate(1.39, 0))
	assert.Nil(t, sim.Simulate(1.39, -3))
}

func TestSmoothTrailingWindow(t *testing.T) {
	points := []models.TrendPoint{
		{Period: "Jan", Value: 1},
		{Period: "Feb", Value: 2},
		{Period: "Mar", Value: 3},
		{Period: "Apr", Value: 4},
	}

	Smooth(points)

	assert.Nil(t, points[0].Smoothed)
	assert.Nil(t, points[1].Smoothed)
	require.NotNil(t, points[2].Smoothed)
	assert.InDelta(t, 2.0, *points[2].Smoothed, 1e-9)
	require.NotNil(t, points[3].Smoothed)
	assert.InDelta(t, 3.0, *points[3].Smoothed, 1e-9)
}

func TestNextPeriodLabel(t *testing.T) {
	assert.Equal(t, "Feb", NextPeriodLabel("Jan"))
	assert.Equal(t, "Jan", NextPeriodLabel("Dec"), "Dec wraps to Jan")
	assert.Equal(t, "Jan", NextPeriodLabel("???"), "unknown labels restart the cycle")
}
