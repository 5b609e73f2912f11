package usage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikasheba/vaccine-ai/internal/log"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, 5*time.Second, log.NewNop())
	require.NoError(t, err)
	return client
}

func TestDailyUsage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/staff/centre_vaccine/abc123/daily", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"daily":[
			{"date":"2026-01-01","total_dose_used":120},
			{"date":"2026-01-02","total_dose_used":95.5}
		]}`))
	})

	points, err := client.DailyUsage(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.Equal(t, 120.0, points[0].Usage)
	assert.Equal(t, 95.5, points[1].Usage)
}

func TestDailyUsageSkipsBadDates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"daily":[
			{"date":"not-a-date","total_dose_used":10},
			{"date":"2026-01-02","total_dose_used":20}
		]}`))
	})

	points, err := client.DailyUsage(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 20.0, points[0].Usage)
}

func TestDailyUsageEmptySeries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"daily":[]}`))
	})

	_, err := client.DailyUsage(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDailyUsageAllDatesUnparseable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"daily":[{"date":"??","total_dose_used":10}]}`))
	})

	_, err := client.DailyUsage(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDailyUsageUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.DailyUsage(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestDailyUsageUnreachable(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1", 500*time.Millisecond, log.NewNop())
	require.NoError(t, err)

	_, err = client.DailyUsage(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestDailyUsageBadJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"daily": nope`))
	})

	_, err := client.DailyUsage(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestDailyUsageMissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request should not be sent")
	})

	_, err := client.DailyUsage(context.Background(), "  ")
	assert.Error(t, err)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", time.Second, log.NewNop())
	assert.Error(t, err)

	_, err = NewClient("http://localhost:8000", 0, log.NewNop())
	assert.Error(t, err)
}
