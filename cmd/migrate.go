package cmd

import (
	"fmt"
	"log/slog"

	"github.com/tikasheba/vaccine-ai/db"
	"github.com/tikasheba/vaccine-ai/internal/config"
)

// runMigrate applies pending database migrations and exits.
func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (set VACCINE_AI_DATABASE_URL)")
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("migrations applied")
	return nil
}
