// Package assistant implements Lana's conversational action pipeline: the
// intent classifier, the action dispatcher, and the shared entry points both
// transports (HTTP API and Telegram) invoke identically.
package assistant

import (
	"github.com/lanatodoo/lana/pkg/lana/channels/telegram"
)

// Config holds all assistant configuration.
type Config struct {
	// Name is the assistant name used in prompts and responses.
	Name string `yaml:"name"`

	// Model is the LLM model to use (e.g. "llama-3.3-70b-versatile").
	Model string `yaml:"model"`

	// Timezone is the reference timezone for dates shown to the model and
	// the user (e.g. "Europe/Moscow").
	Timezone string `yaml:"timezone"`

	// Language is the response language (e.g. "ru").
	Language string `yaml:"language"`

	// WebAppURL is the companion web app opened from chat buttons.
	WebAppURL string `yaml:"webapp_url"`

	// API configures the completion provider.
	API APIConfig `yaml:"api"`

	// Server configures the HTTP API surface.
	Server ServerConfig `yaml:"server"`

	// Storage configures the persistent store backend.
	Storage StorageConfig `yaml:"storage"`

	// Telegram configures the Telegram channel.
	Telegram telegram.Config `yaml:"telegram"`

	// Scheduler configures the morning digest.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the completion provider endpoint.
type APIConfig struct {
	// BaseURL is the OpenAI-compatible endpoint (empty = Groq).
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against the provider. Usually resolved from
	// the LANA_API_KEY environment variable.
	APIKey string `yaml:"api_key"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Address is the listen address (default ":3000").
	Address string `yaml:"address"`
}

// StorageConfig configures the store backend.
type StorageConfig struct {
	// Type selects the backend: "file" (default) or "sqlite".
	Type string `yaml:"type"`

	// Path is the database file path.
	Path string `yaml:"path"`
}

// SchedulerConfig configures the morning digest job.
type SchedulerConfig struct {
	// Enabled turns the digest on/off.
	Enabled bool `yaml:"enabled"`

	// MorningDigest is the cron expression for the daily greeting,
	// evaluated in the reference timezone.
	MorningDigest string `yaml:"morning_digest"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the log format ("json", "text").
	Format string `yaml:"format"`
}

// DefaultConfig returns the default assistant configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:     "Lana",
		Model:    "llama-3.3-70b-versatile",
		Timezone: "Europe/Moscow",
		Language: "ru",
		Server: ServerConfig{
			Address: ":3000",
		},
		Storage: StorageConfig{
			Type: "file",
			Path: "./data/lana.json",
		},
		Telegram: telegram.DefaultConfig(),
		Scheduler: SchedulerConfig{
			Enabled:       true,
			MorningDigest: "0 8 * * *",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
