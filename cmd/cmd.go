// Package cmd provides the CLI commands for the vaccine-ai service.
//
// Commands:
//   - serve: HTTP API server (chat, ingestion, forecasting)
//   - migrate: apply pending database migrations
//
// Signal handling and graceful shutdown are implemented via context
// cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tikasheba/vaccine-ai/internal/config"
	"github.com/tikasheba/vaccine-ai/internal/log"
)

// Execute is the main entry point for the vaccine-ai application.
func Execute() error {
	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "migrate":
		return runMigrate()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// newLogger builds the process logger from configuration.
func newLogger(cfg *config.Config) log.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: cfg.LogJSON})
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("vaccine-ai - Vaccine RAG chatbot and demand forecasting service")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  vaccine-ai serve [addr]  Start the HTTP API server (default: :8090)")
	fmt.Println("  vaccine-ai migrate       Apply pending database migrations")
	fmt.Println("  vaccine-ai --version     Show version information")
	fmt.Println("  vaccine-ai --help        Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  VACCINE_AI_GEMINI_API_KEY  Required: Gemini API key (GOOGLE_API_KEY works too)")
	fmt.Println("  VACCINE_AI_DATABASE_URL    Required: postgres:// connection URL (DATABASE_URL works too)")
	fmt.Println("  VACCINE_AI_USAGE_API_BASE  Optional: base URL of the historical usage API")
	fmt.Println("  DEBUG                      Optional: enable debug logging")
}
