package assistant

import (
	"testing"
)

func TestParseConfigOverlaysDefaults(t *testing.T) {
	yaml := `
name: Лана
timezone: Europe/Berlin
server:
  address: ":8080"
storage:
  type: sqlite
  path: ./data/lana.db
scheduler:
  morning_digest: "30 7 * * *"
`
	cfg, err := ParseConfig([]byte(yaml))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	if cfg.Name != "Лана" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Address = %q", cfg.Server.Address)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.Path != "./data/lana.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Scheduler.MorningDigest != "30 7 * * *" {
		t.Errorf("MorningDigest = %q", cfg.Scheduler.MorningDigest)
	}

	// Untouched keys keep their defaults.
	if cfg.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Model = %q, want default", cfg.Model)
	}
	if cfg.Language != "ru" {
		t.Errorf("Language = %q, want default", cfg.Language)
	}
}

func TestParseConfigInvalidYAML(t *testing.T) {
	if _, err := ParseConfig([]byte("{not: valid: yaml")); err == nil {
		t.Fatal("expected error on invalid YAML")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LANA_TEST_TOKEN", "secret-token")

	tests := []struct {
		in   string
		want string
	}{
		{"token: ${LANA_TEST_TOKEN}", "token: secret-token"},
		{"token: $LANA_TEST_TOKEN", "token: secret-token"},
		{"token: ${LANA_TEST_UNSET}", "token: ${LANA_TEST_UNSET}"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := expandEnvVars(tt.in); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveSecretsFromEnv(t *testing.T) {
	t.Setenv("LANA_API_KEY", "key-from-env")
	t.Setenv("LANA_BOT_TOKEN", "token-from-env")

	cfg := DefaultConfig()
	resolveSecrets(cfg)

	if cfg.API.APIKey != "key-from-env" {
		t.Errorf("APIKey = %q", cfg.API.APIKey)
	}
	if cfg.Telegram.Token != "token-from-env" {
		t.Errorf("Token = %q", cfg.Telegram.Token)
	}
}

func TestResolveSecretsKeepsExplicitValues(t *testing.T) {
	t.Setenv("LANA_API_KEY", "env-key")

	cfg := DefaultConfig()
	cfg.API.APIKey = "explicit-key"
	resolveSecrets(cfg)

	if cfg.API.APIKey != "explicit-key" {
		t.Errorf("APIKey = %q, explicit value must win", cfg.API.APIKey)
	}
}

func TestResolveSecretsReplacesUnexpandedPlaceholder(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-key")

	cfg := DefaultConfig()
	cfg.API.APIKey = "${SOME_UNSET_VAR}"
	resolveSecrets(cfg)

	if cfg.API.APIKey != "groq-key" {
		t.Errorf("APIKey = %q, placeholder should fall through to env", cfg.API.APIKey)
	}
}
