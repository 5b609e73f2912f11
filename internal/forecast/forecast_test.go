package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(offset int) time.Time {
	return time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// flatSeries is n days of constant usage.
func flatSeries(n int, usage float64) []Point {
	series := make([]Point, n)
	for i := range series {
		series[i] = Point{Date: day(i), Usage: usage}
	}
	return series
}

func TestForecastShapeAndTotals(t *testing.T) {
	result, err := Forecast(flatSeries(60, 100), 14)
	require.NoError(t, err)

	assert.Equal(t, 14, result.DaysForecasted)
	require.Len(t, result.PerDay, 14)
	assert.False(t, result.LowConfidence)

	var sum float64
	for i, p := range result.PerDay {
		assert.Equal(t, day(59+i+1), p.Date)
		assert.GreaterOrEqual(t, p.Predicted, 0.0)
		assert.GreaterOrEqual(t, p.LowerBound, 0.0)
		assert.GreaterOrEqual(t, p.UpperBound, p.Predicted)
		assert.LessOrEqual(t, p.LowerBound, p.Predicted)
		sum += p.Predicted
	}
	assert.InDelta(t, sum, result.Total, 0.01)
}

func TestForecastConstantSeries(t *testing.T) {
	result, err := Forecast(flatSeries(40, 50), 7)
	require.NoError(t, err)

	for _, p := range result.PerDay {
		assert.InDelta(t, 50, p.Predicted, 0.01)
		assert.InDelta(t, 50, p.LowerBound, 0.01)
		assert.InDelta(t, 50, p.UpperBound, 0.01)
	}
	assert.InDelta(t, 350, result.Total, 0.1)
}

func TestForecastFollowsTrend(t *testing.T) {
	// Usage grows by 2 per day; the prediction should keep climbing.
	series := make([]Point, 60)
	for i := range series {
		series[i] = Point{Date: day(i), Usage: 10 + 2*float64(i)}
	}

	result, err := Forecast(series, 5)
	require.NoError(t, err)

	last := series[len(series)-1].Usage
	for i, p := range result.PerDay {
		assert.InDelta(t, last+2*float64(i+1), p.Predicted, 1.0)
	}
}

func TestForecastClampsNegative(t *testing.T) {
	// Steeply declining series: the trend crosses zero inside the horizon.
	series := make([]Point, 40)
	for i := range series {
		series[i] = Point{Date: day(i), Usage: math.Max(0, 200-10*float64(i))}
	}

	result, err := Forecast(series, 30)
	require.NoError(t, err)

	for _, p := range result.PerDay {
		assert.GreaterOrEqual(t, p.Predicted, 0.0)
		assert.GreaterOrEqual(t, p.LowerBound, 0.0)
		assert.GreaterOrEqual(t, p.UpperBound, 0.0)
	}
}

func TestForecastWeeklySeasonality(t *testing.T) {
	// Mondays run hot by a fixed amount; the model should carry that into
	// predicted Mondays.
	series := make([]Point, 56)
	for i := range series {
		usage := 100.0
		if day(i).Weekday() == time.Monday {
			usage = 170
		}
		series[i] = Point{Date: day(i), Usage: usage}
	}

	result, err := Forecast(series, 14)
	require.NoError(t, err)

	for _, p := range result.PerDay {
		if p.Date.Weekday() == time.Monday {
			assert.Greater(t, p.Predicted, 140.0)
		} else {
			assert.Less(t, p.Predicted, 130.0)
		}
	}
}

func TestForecastCleansSeries(t *testing.T) {
	series := []Point{
		{Date: day(2), Usage: 30},
		{Date: day(0), Usage: 10},
		{Date: day(1), Usage: math.NaN()},
		{Date: day(0), Usage: 99}, // duplicate date, first wins
	}

	result, err := Forecast(series, 3)
	require.NoError(t, err)
	assert.True(t, result.LowConfidence)
	// Horizon starts after the latest surviving date.
	assert.Equal(t, day(3), result.PerDay[0].Date)
}

func TestForecastDuplicateDateKeepsFirst(t *testing.T) {
	series := []Point{
		{Date: day(0), Usage: 10},
		{Date: day(0), Usage: 99},
	}

	result, err := Forecast(series, 1)
	require.NoError(t, err)

	require.Len(t, result.PerDay, 1)
	assert.InDelta(t, 10, result.PerDay[0].Predicted, 0.01)
}

func TestForecastLowConfidenceFlag(t *testing.T) {
	short, err := Forecast(flatSeries(29, 10), 1)
	require.NoError(t, err)
	assert.True(t, short.LowConfidence)

	long, err := Forecast(flatSeries(30, 10), 1)
	require.NoError(t, err)
	assert.False(t, long.LowConfidence)
}

func TestForecastSinglePoint(t *testing.T) {
	result, err := Forecast([]Point{{Date: day(0), Usage: 42}}, 3)
	require.NoError(t, err)

	require.Len(t, result.PerDay, 3)
	for _, p := range result.PerDay {
		assert.InDelta(t, 42, p.Predicted, 0.01)
	}
}

func TestForecastEmptyHistory(t *testing.T) {
	_, err := Forecast(nil, 7)
	assert.ErrorIs(t, err, ErrEmptyHistory)

	// A series that cleans down to nothing is empty too.
	_, err = Forecast([]Point{{Date: day(0), Usage: math.NaN()}}, 7)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestForecastInvalidHorizon(t *testing.T) {
	for _, days := range []int{0, -1, 366} {
		_, err := Forecast(flatSeries(10, 5), days)
		assert.ErrorIs(t, err, ErrInvalidHorizon)
	}
}
