// Package usage fetches historical vaccine consumption series from the
// external vaccination-platform API, for forecast-by-reference requests.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tikasheba/vaccine-ai/internal/forecast"
)

var (
	// ErrUpstream indicates the external usage API was unreachable or
	// responded with an error status.
	ErrUpstream = errors.New("external usage API unavailable")

	// ErrNoData indicates the external API returned no usage records for
	// the requested centre/vaccine.
	ErrNoData = errors.New("no historical usage data for this centre/vaccine")
)

const dateLayout = "2006-01-02"

// Client reads daily usage series from the platform API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client for the API at baseURL. Every request runs
// under the given timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// dailyResponse mirrors the platform's per-day usage payload.
type dailyResponse struct {
	Daily []struct {
		Date          string  `json:"date"`
		TotalDoseUsed float64 `json:"total_dose_used"`
	} `json:"daily"`
}

// DailyUsage fetches the historical daily series for one centre/vaccine
// pairing and maps it onto forecast input points.
func (c *Client) DailyUsage(ctx context.Context, centreVaccineID string) ([]forecast.Point, error) {
	if strings.TrimSpace(centreVaccineID) == "" {
		return nil, errors.New("centre vaccine id is required")
	}

	endpoint := fmt.Sprintf("%s/api/staff/centre_vaccine/%s/daily", c.baseURL, url.PathEscape(centreVaccineID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building usage request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var payload dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrUpstream, err)
	}

	if len(payload.Daily) == 0 {
		return nil, ErrNoData
	}

	points := make([]forecast.Point, 0, len(payload.Daily))
	for _, rec := range payload.Daily {
		date, err := time.Parse(dateLayout, rec.Date)
		if err != nil {
			c.logger.Warn("skipping usage record with bad date", "date", rec.Date)
			continue
		}
		points = append(points, forecast.Point{Date: date, Usage: rec.TotalDoseUsed})
	}
	if len(points) == 0 {
		return nil, ErrNoData
	}

	c.logger.Debug("fetched usage series", "centre_vaccine_id", centreVaccineID, "points", len(points))
	return points, nil
}
