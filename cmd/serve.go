package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tikasheba/vaccine-ai/db"
	"github.com/tikasheba/vaccine-ai/internal/api"
	"github.com/tikasheba/vaccine-ai/internal/chat"
	"github.com/tikasheba/vaccine-ai/internal/config"
	"github.com/tikasheba/vaccine-ai/internal/database"
	"github.com/tikasheba/vaccine-ai/internal/knowledge"
	"github.com/tikasheba/vaccine-ai/internal/llm"
	"github.com/tikasheba/vaccine-ai/internal/tools"
	"github.com/tikasheba/vaccine-ai/internal/usage"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // generation can be slow
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// runServe initializes and starts the HTTP API server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	addr, err := parseServeAddr(cfg.Addr)
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting vaccine-ai server", "version", AppVersion)

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// One Gemini SDK client shared by generation and embedding.
	client, err := llm.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("creating Gemini client: %w", err)
	}

	gemini, err := llm.NewGemini(client, cfg.ModelName, cfg.GenerateTimeout, logger)
	if err != nil {
		return fmt.Errorf("creating generation client: %w", err)
	}

	embedder, err := knowledge.NewGeminiEmbedder(client, cfg.EmbedderModel, cfg.EmbedTimeout, logger)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	store, err := knowledge.NewStore(pool, cfg.SearchTimeout, logger)
	if err != nil {
		return fmt.Errorf("creating knowledge store: %w", err)
	}

	retriever, err := knowledge.NewRetriever(embedder, store, cfg.TopK, logger)
	if err != nil {
		return fmt.Errorf("creating retriever: %w", err)
	}

	ingestor, err := knowledge.NewIngestor(embedder, store, logger)
	if err != nil {
		return fmt.Errorf("creating ingestor: %w", err)
	}

	searchTool, err := tools.NewSearchTool(retriever, logger)
	if err != nil {
		return fmt.Errorf("creating search tool: %w", err)
	}

	engine, err := chat.NewEngine(gemini, tools.NewRegistry(searchTool), cfg.MaxToolRounds, logger)
	if err != nil {
		return fmt.Errorf("creating conversation engine: %w", err)
	}

	usageClient, err := usage.NewClient(cfg.UsageAPIBase, cfg.UsageTimeout, logger)
	if err != nil {
		return fmt.Errorf("creating usage client: %w", err)
	}

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:      logger,
		Engine:      engine,
		Ingestor:    ingestor,
		Usage:       usageClient,
		Pool:        pool,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		RateBurst:   cfg.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", addr,
		"model", cfg.ModelName,
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
