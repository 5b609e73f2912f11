package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// health is a simple health check endpoint for container probes.
// Returns 200 OK with {"status":"ok"}.
func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness reports whether the service can reach its database. With no
// pool configured it degrades to a plain liveness answer.
func readiness(pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": "database unreachable",
			})
			return
		}

		stats := pool.Stat()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":           "ok",
			"pool_total_conns": stats.TotalConns(),
			"pool_idle_conns":  stats.IdleConns(),
			"pool_max_conns":   stats.MaxConns(),
			"pool_acquired":    stats.AcquiredConns(),
		})
	})
}
