// Package assistant – loader.go handles loading configuration from YAML
// files with credential management via environment variables and .env files.
package assistant

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} or $VAR_NAME in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Z_][A-Z0-9_]*)`)

// LoadConfigFromFile reads and parses a YAML configuration file.
// Automatically loads .env files and expands environment variables.
func LoadConfigFromFile(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := ParseConfig([]byte(expandEnvVars(string(data))))
	if err != nil {
		return nil, err
	}

	resolveSecrets(cfg)
	return cfg, nil
}

// LoadConfig resolves the config file from standard locations, falling back
// to defaults (plus environment secrets) when none exists.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	}
	if path == "" {
		loadEnvFiles()
		cfg := DefaultConfig()
		resolveSecrets(cfg)
		return cfg, nil
	}
	return LoadConfigFromFile(path)
}

// ParseConfig parses YAML bytes into a Config.
// Starts with defaults and overlays values from the YAML.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}

// FindConfigFile searches for config files in standard locations.
func FindConfigFile() string {
	candidates := []string{
		"lana.yaml",
		"lana.yml",
		"config.yaml",
		"config.yml",
		"configs/lana.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ---------- Internal ----------

// loadEnvFiles loads .env files from standard locations.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		// godotenv.Load does NOT overwrite existing env vars.
		_ = godotenv.Load(f)
	}
}

// expandEnvVars replaces ${VAR} and $VAR references in a string with their
// environment variable values.
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		// Leave unset placeholders untouched.
		return match
	})
}

// resolveSecrets fills in config secrets from environment variables when the
// config value is empty or a placeholder.
func resolveSecrets(cfg *Config) {
	if cfg.API.APIKey == "" || isEnvReference(cfg.API.APIKey) {
		for _, env := range []string{"LANA_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY"} {
			if key := os.Getenv(env); key != "" {
				cfg.API.APIKey = key
				break
			}
		}
	}
	if cfg.Telegram.Token == "" || isEnvReference(cfg.Telegram.Token) {
		for _, env := range []string{"LANA_BOT_TOKEN", "BOT_TOKEN"} {
			if tok := os.Getenv(env); tok != "" {
				cfg.Telegram.Token = tok
				break
			}
		}
	}
	if cfg.WebAppURL == "" {
		cfg.WebAppURL = os.Getenv("WEBAPP_URL")
	}
}

// isEnvReference checks if a string is an environment variable reference.
func isEnvReference(s string) bool {
	return strings.HasPrefix(s, "${") || strings.HasPrefix(s, "$")
}
