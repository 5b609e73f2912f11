package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tikasheba/vaccine-ai/internal/forecast"
)

// UsageClient fetches a historical usage series from the external
// vaccination platform. Satisfied by *usage.Client.
type UsageClient interface {
	DailyUsage(ctx context.Context, centreVaccineID string) ([]forecast.Point, error)
}

type forecastHandler struct {
	usage  UsageClient
	logger *slog.Logger
}

const dateLayout = "2006-01-02"

type forecastDataPoint struct {
	Date         string  `json:"date"`
	AmphulesUsed float64 `json:"amphules_used"`
}

type forecastRequest struct {
	History        []forecastDataPoint `json:"history"`
	DaysToForecast int                 `json:"days_to_forecast"`
}

type demandForecastRequest struct {
	CentreVaccineID string `json:"centre_vaccine_id"`
	DaysToForecast  int    `json:"days_to_forecast"`
}

type forecastPoint struct {
	Date           string  `json:"date"`
	PredictedUsage float64 `json:"predicted_usage"`
	LowerBound     float64 `json:"lower_bound"`
	UpperBound     float64 `json:"upper_bound"`
}

type forecastResponse struct {
	ForecastTotal  float64         `json:"forecast_total"`
	DaysForecasted int             `json:"days_forecasted"`
	DailyForecast  []forecastPoint `json:"daily_forecast"`
	LowConfidence  bool            `json:"low_confidence,omitempty"`
}

// forecastUsage handles POST /forecast: predict future consumption from a
// caller-supplied historical series.
func (h *forecastHandler) forecastUsage(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	series, err := parseSeries(req.History)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindValidation, err.Error())
		return
	}

	h.respondForecast(w, series, req.DaysToForecast)
}

// forecastDemand handles POST /forecast_demand: fetch the series for one
// centre/vaccine from the external platform, then forecast it.
func (h *forecastHandler) forecastDemand(w http.ResponseWriter, r *http.Request) {
	var req demandForecastRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.CentreVaccineID) == "" {
		writeError(w, http.StatusBadRequest, kindValidation, "centre_vaccine_id is required")
		return
	}

	series, err := h.usage.DailyUsage(r.Context(), req.CentreVaccineID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.respondForecast(w, series, req.DaysToForecast)
}

func (h *forecastHandler) respondForecast(w http.ResponseWriter, series []forecast.Point, daysAhead int) {
	result, err := forecast.Forecast(series, daysAhead)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	daily := make([]forecastPoint, 0, len(result.PerDay))
	for _, p := range result.PerDay {
		daily = append(daily, forecastPoint{
			Date:           p.Date.Format(dateLayout),
			PredictedUsage: p.Predicted,
			LowerBound:     p.LowerBound,
			UpperBound:     p.UpperBound,
		})
	}

	writeJSON(w, http.StatusOK, forecastResponse{
		ForecastTotal:  result.Total,
		DaysForecasted: result.DaysForecasted,
		DailyForecast:  daily,
		LowConfidence:  result.LowConfidence,
	})
}

func parseSeries(history []forecastDataPoint) ([]forecast.Point, error) {
	series := make([]forecast.Point, 0, len(history))
	for _, dp := range history {
		date, err := time.Parse(dateLayout, dp.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dp.Date)
		}
		if dp.AmphulesUsed < 0 {
			return nil, fmt.Errorf("usage for %s must be non-negative", dp.Date)
		}
		series = append(series, forecast.Point{Date: date, Usage: dp.AmphulesUsed})
	}
	return series, nil
}
