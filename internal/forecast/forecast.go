// Package forecast predicts future vaccine consumption from a historical
// daily usage series. The model is a linear trend with day-of-week
// seasonal components; interval bounds come from the residual standard
// deviation. It is a stateless batch transform.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyHistory indicates the input series was empty after cleaning.
	ErrEmptyHistory = errors.New("historical data cannot be empty")

	// ErrInvalidHorizon indicates daysAhead is outside [1, 365].
	ErrInvalidHorizon = errors.New("days to forecast must be between 1 and 365")
)

// MaxHorizonDays bounds the forecast horizon.
const MaxHorizonDays = 365

// minConfidentPoints is the series length below which results are flagged
// as low-confidence. Shorter series are still accepted.
const minConfidentPoints = 30

// boundZ is the normal quantile for an 80% prediction interval, matching
// the interval width of the model this one replaces.
const boundZ = 1.28

const dateLayout = "2006-01-02"

// Point is one observation of the historical series.
type Point struct {
	Date  time.Time
	Usage float64
}

// DayForecast is the prediction for a single future day. All three values
// are non-negative and rounded to two decimals.
type DayForecast struct {
	Date       time.Time
	Predicted  float64
	LowerBound float64
	UpperBound float64
}

// Result is the full forecast output.
type Result struct {
	Total          float64
	DaysForecasted int
	PerDay         []DayForecast
	LowConfidence  bool
}

// Forecast fits the model on series and predicts daysAhead consecutive
// days after the last observation. The series is cleaned first: NaN usage
// values are dropped, duplicate dates keep the first value, and points are
// sorted ascending by date.
func Forecast(series []Point, daysAhead int) (*Result, error) {
	if daysAhead < 1 || daysAhead > MaxHorizonDays {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, daysAhead)
	}

	clean := cleanSeries(series)
	if len(clean) == 0 {
		return nil, ErrEmptyHistory
	}

	model := fit(clean)

	first := clean[0].Date
	last := clean[len(clean)-1].Date

	perDay := make([]DayForecast, 0, daysAhead)
	var total float64
	for d := 1; d <= daysAhead; d++ {
		date := last.AddDate(0, 0, d)
		x := float64(date.Sub(first).Hours() / 24)
		yhat := model.predict(x, date.Weekday())

		predicted := round2(math.Max(0, yhat))
		total += predicted

		perDay = append(perDay, DayForecast{
			Date:       date,
			Predicted:  predicted,
			LowerBound: round2(math.Max(0, yhat-boundZ*model.sigma)),
			UpperBound: round2(math.Max(0, yhat+boundZ*model.sigma)),
		})
	}

	return &Result{
		Total:          round2(total),
		DaysForecasted: daysAhead,
		PerDay:         perDay,
		LowConfidence:  len(clean) < minConfidentPoints,
	}, nil
}

// cleanSeries drops NaN values, deduplicates by calendar date with the
// first value winning, and sorts ascending.
func cleanSeries(series []Point) []Point {
	byDate := make(map[string]Point, len(series))
	for _, p := range series {
		if math.IsNaN(p.Usage) || math.IsInf(p.Usage, 0) {
			continue
		}
		key := p.Date.Format(dateLayout)
		if _, seen := byDate[key]; seen {
			continue
		}
		byDate[key] = p
	}

	clean := make([]Point, 0, len(byDate))
	for _, p := range byDate {
		clean = append(clean, p)
	}
	sort.Slice(clean, func(i, j int) bool { return clean[i].Date.Before(clean[j].Date) })
	return clean
}

// trendModel is a fitted linear trend plus additive weekday components.
type trendModel struct {
	alpha    float64
	beta     float64
	seasonal [7]float64
	sigma    float64
}

func (m *trendModel) predict(x float64, wd time.Weekday) float64 {
	return m.alpha + m.beta*x + m.seasonal[wd]
}

func fit(clean []Point) *trendModel {
	first := clean[0].Date

	xs := make([]float64, len(clean))
	ys := make([]float64, len(clean))
	for i, p := range clean {
		xs[i] = float64(p.Date.Sub(first).Hours() / 24)
		ys[i] = p.Usage
	}

	m := &trendModel{}
	if len(clean) == 1 {
		m.alpha = ys[0]
		return m
	}
	m.alpha, m.beta = stat.LinearRegression(xs, ys, nil, false)

	// Weekday components are the mean trend residual per weekday.
	var sums, counts [7]float64
	for i, p := range clean {
		wd := p.Date.Weekday()
		sums[wd] += ys[i] - (m.alpha + m.beta*xs[i])
		counts[wd]++
	}
	for wd := range m.seasonal {
		if counts[wd] > 0 {
			m.seasonal[wd] = sums[wd] / counts[wd]
		}
	}

	residuals := make([]float64, len(clean))
	for i, p := range clean {
		residuals[i] = ys[i] - m.predict(xs[i], p.Date.Weekday())
	}
	sigma := stat.StdDev(residuals, nil)
	if !math.IsNaN(sigma) {
		m.sigma = sigma
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
