// Package config provides configuration loading for decisiond.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the decisiond daemon.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Provider  ProviderConfig  `koanf:"provider"`
	Dialogue  DialogueConfig  `koanf:"dialogue"`
	Store     StoreConfig     `koanf:"store"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ProviderConfig configures the reasoning provider gateway.
type ProviderConfig struct {
	// Backend selects the provider implementation: "openai" (also used for
	// OpenRouter and other OpenAI-compatible endpoints) or "anthropic".
	Backend     string        `koanf:"backend"`
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	APIKey      string        `koanf:"api_key"`
	Timeout     time.Duration `koanf:"timeout"`
	Temperature float64       `koanf:"temperature"`
	// RateLimit is the sustained request rate (requests per second) allowed
	// against the provider. Burst is the token-bucket burst size.
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`
}

// DialogueConfig configures the dialogue engine.
type DialogueConfig struct {
	// QuestionBudget is the maximum number of clarifying questions asked
	// before the engine finalizes a recommendation.
	QuestionBudget int `koanf:"question_budget"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	// Provider selects the store implementation: "memory" or "sqlite".
	Provider string       `koanf:"provider"`
	SQLite   SQLiteConfig `koanf:"sqlite"`
}

// SQLiteConfig configures the sqlite-backed session store.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// TelemetryConfig configures OTLP metric export.
type TelemetryConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Endpoint       string        `koanf:"endpoint"`
	Insecure       bool          `koanf:"insecure"`
	ExportInterval time.Duration `koanf:"export_interval"`
	ServiceName    string        `koanf:"service_name"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8800
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Provider.Backend == "" {
		cfg.Provider.Backend = "openai"
	}
	if cfg.Provider.BaseURL == "" && cfg.Provider.Backend == "openai" {
		// OpenRouter speaks the OpenAI wire protocol.
		cfg.Provider.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = "openai/gpt-4o-mini"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 30 * time.Second
	}
	if cfg.Provider.Temperature == 0 {
		cfg.Provider.Temperature = 0.7
	}
	if cfg.Provider.RateLimit == 0 {
		cfg.Provider.RateLimit = 2
	}
	if cfg.Provider.Burst == 0 {
		cfg.Provider.Burst = 4
	}

	if cfg.Dialogue.QuestionBudget == 0 {
		cfg.Dialogue.QuestionBudget = 3
	}

	if cfg.Store.Provider == "" {
		cfg.Store.Provider = "memory"
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = "~/.config/decisiond/sessions.db"
	}

	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 30 * time.Second
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "decisiond"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown_timeout must be > 0")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	switch c.Provider.Backend {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("provider backend must be 'openai' or 'anthropic', got %q", c.Provider.Backend)
	}
	if c.Provider.Model == "" {
		return fmt.Errorf("provider model is required")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be > 0")
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		return fmt.Errorf("provider temperature must be in [0, 2], got %v", c.Provider.Temperature)
	}
	if c.Provider.RateLimit <= 0 {
		return fmt.Errorf("provider rate_limit must be > 0")
	}
	if c.Provider.Burst < 1 {
		return fmt.Errorf("provider burst must be >= 1")
	}

	if c.Dialogue.QuestionBudget < 1 {
		return fmt.Errorf("dialogue question_budget must be >= 1, got %d", c.Dialogue.QuestionBudget)
	}

	switch c.Store.Provider {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("store provider must be 'memory' or 'sqlite', got %q", c.Store.Provider)
	}
	if c.Store.Provider == "sqlite" && c.Store.SQLite.Path == "" {
		return fmt.Errorf("store sqlite path is required")
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry endpoint is required when telemetry is enabled")
		}
		if c.Telemetry.ExportInterval <= 0 {
			return fmt.Errorf("telemetry export_interval must be > 0")
		}
	}

	return nil
}
