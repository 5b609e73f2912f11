// Package api is the thin HTTP surface over the conversation engine, the
// knowledge ingestion path, and the forecasting pipeline.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tikasheba/vaccine-ai/internal/chat"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Engine      Responder     // Required
	Ingestor    VaccineStorer // Required
	Usage       UsageClient   // Required
	Pool        *pgxpool.Pool // Optional: nil degrades /ready to liveness
	CORSOrigins []string      // Allowed origins for CORS
	TrustProxy  bool          // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int           // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("conversation engine is required")
	}
	if cfg.Ingestor == nil {
		return nil, errors.New("vaccine ingestor is required")
	}
	if cfg.Usage == nil {
		return nil, errors.New("usage client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	vh := &vaccineHandler{store: cfg.Ingestor, logger: logger}
	ch := &chatHandler{engine: cfg.Engine, logger: logger}
	fh := &forecastHandler{usage: cfg.Usage, logger: logger}

	mux := http.NewServeMux()

	// Knowledge ingestion
	mux.HandleFunc("POST /store-vaccine", vh.storeVaccine)

	// Chat: one handler, four personas
	mux.HandleFunc("POST /chat", ch.persona(chat.PersonaCitizen))
	mux.HandleFunc("POST /center_chat", ch.persona(chat.PersonaCentreStaff))
	mux.HandleFunc("POST /authority_chat", ch.persona(chat.PersonaAuthority))
	mux.HandleFunc("POST /faq_chat", ch.persona(chat.PersonaFAQ))

	// Forecasting
	mux.HandleFunc("POST /forecast", fh.forecastUsage)
	mux.HandleFunc("POST /forecast_demand", fh.forecastDemand)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log
	// attributes. CORS must be before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Top-level mux separates health probes from the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
