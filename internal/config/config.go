// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (prefix VACCINE_AI, runtime override)
//  2. Config file (./vaccine-ai.yaml or /etc/vaccine-ai/vaccine-ai.yaml)
//  3. Default values
//
// Required credentials (Gemini API key, PostgreSQL URL) are validated at
// startup; a missing credential is a fatal startup error, never a
// per-request error.
//
// Error Handling: sentinel errors allow errors.Is() checks; wrap with
// fmt.Errorf("%w: details", ErrXxx).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates the Gemini API key is not set.
	ErrMissingAPIKey = errors.New("missing Gemini API key")

	// ErrMissingDatabaseURL indicates the PostgreSQL URL is not set.
	ErrMissingDatabaseURL = errors.New("missing database URL")

	// ErrInvalidDatabaseURL indicates the PostgreSQL URL cannot be parsed.
	ErrInvalidDatabaseURL = errors.New("invalid database URL")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTopK indicates the retrieval topK is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval topK")

	// ErrInvalidToolRounds indicates the tool loop cap is out of range.
	ErrInvalidToolRounds = errors.New("invalid max tool rounds")

	// ErrInvalidTimeout indicates a timeout value is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidUsageAPI indicates the usage API base URL is malformed.
	ErrInvalidUsageAPI = errors.New("invalid usage API base URL")
)

// Defaults applied when neither the environment nor the config file
// provides a value.
const (
	// DefaultModelName is the Gemini model used for chat generation.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel is the Gemini embedding model. It outputs
	// 768-dimension vectors, matching the vaccine_documents schema.
	DefaultEmbedderModel = "text-embedding-004"

	// DefaultTopK is the default number of retrieval hits per search.
	DefaultTopK = 3

	// MaxTopK bounds retrieval result counts.
	MaxTopK = 10

	// DefaultMaxToolRounds caps the model/tool iteration loop. The model
	// normally converges in one or two rounds; the cap exists so a
	// pathological loop fails instead of hanging the caller.
	DefaultMaxToolRounds = 5

	// MaxToolRounds is the absolute upper bound for the loop cap.
	MaxToolRounds = 20
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON. When adding new
// secrets (API keys, passwords), update MarshalJSON.
type Config struct {
	// Gemini credentials and models
	GeminiAPIKey  string `mapstructure:"gemini_api_key" json:"gemini_api_key"`
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// PostgreSQL + pgvector
	DatabaseURL string `mapstructure:"database_url" json:"database_url"`

	// HTTP server
	Addr        string   `mapstructure:"addr" json:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`

	// Conversation engine
	MaxToolRounds int `mapstructure:"max_tool_rounds" json:"max_tool_rounds"`
	TopK          int `mapstructure:"top_k" json:"top_k"`

	// External call timeouts. Every upstream call (generation, embedding,
	// vector search, usage fetch) runs under one of these.
	GenerateTimeout time.Duration `mapstructure:"generate_timeout" json:"generate_timeout"`
	EmbedTimeout    time.Duration `mapstructure:"embed_timeout" json:"embed_timeout"`
	SearchTimeout   time.Duration `mapstructure:"search_timeout" json:"search_timeout"`

	// External historical usage API (forecast-by-reference)
	UsageAPIBase string        `mapstructure:"usage_api_base" json:"usage_api_base"`
	UsageTimeout time.Duration `mapstructure:"usage_timeout" json:"usage_timeout"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load reads configuration from file and environment.
// The config file is optional; environment variables always win.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("vaccine-ai")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/vaccine-ai")

	v.SetEnvPrefix("VACCINE_AI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The upstream services' conventional variable names work too, so the
	// service can share an environment with the rest of the platform.
	_ = v.BindEnv("gemini_api_key", "VACCINE_AI_GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("database_url", "VACCINE_AI_DATABASE_URL", "DATABASE_URL")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No file is fine; defaults + env apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("addr", ":8090")
	v.SetDefault("cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("rate_burst", 60)
	v.SetDefault("trust_proxy", false)
	v.SetDefault("max_tool_rounds", DefaultMaxToolRounds)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("generate_timeout", "60s")
	v.SetDefault("embed_timeout", "15s")
	v.SetDefault("search_timeout", "10s")
	v.SetDefault("usage_api_base", "http://localhost:8000")
	v.SetDefault("usage_timeout", "30s")
	v.SetDefault("log_level", "info")
}

// Validate checks that the configuration is complete enough to serve.
// Called once at startup; any error here is fatal.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration is nil")
	}
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("%w: set VACCINE_AI_GEMINI_API_KEY or GOOGLE_API_KEY", ErrMissingAPIKey)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("%w: set VACCINE_AI_DATABASE_URL or DATABASE_URL", ErrMissingDatabaseURL)
	}
	u, err := url.Parse(c.DatabaseURL)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return fmt.Errorf("%w: expected postgres:// URL", ErrInvalidDatabaseURL)
	}
	if strings.TrimSpace(c.ModelName) == "" {
		return ErrInvalidModelName
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model is empty", ErrInvalidModelName)
	}
	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: must be in [1, %d], got %d", ErrInvalidTopK, MaxTopK, c.TopK)
	}
	if c.MaxToolRounds < 1 || c.MaxToolRounds > MaxToolRounds {
		return fmt.Errorf("%w: must be in [1, %d], got %d", ErrInvalidToolRounds, MaxToolRounds, c.MaxToolRounds)
	}
	for name, d := range map[string]time.Duration{
		"generate_timeout": c.GenerateTimeout,
		"embed_timeout":    c.EmbedTimeout,
		"search_timeout":   c.SearchTimeout,
		"usage_timeout":    c.UsageTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidTimeout, name)
		}
	}
	if _, err := url.Parse(c.UsageAPIBase); err != nil || c.UsageAPIBase == "" {
		return fmt.Errorf("%w: %q", ErrInvalidUsageAPI, c.UsageAPIBase)
	}
	return nil
}

// MarshalJSON masks secrets so the config can be logged safely.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(c)
	if masked.GeminiAPIKey != "" {
		masked.GeminiAPIKey = "***"
	}
	if masked.DatabaseURL != "" {
		masked.DatabaseURL = maskURL(masked.DatabaseURL)
	}
	return json.Marshal(masked)
}

// maskURL hides credentials embedded in a connection URL.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.User("***")
	}
	return u.String()
}
