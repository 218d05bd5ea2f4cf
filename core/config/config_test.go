package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
telegram:
  token: "123:abc"
moltin:
  client_id: "client-1"
redis:
  host: "localhost"
`

func TestLoadMinimalConfigAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Moltin.BaseURL != defaultMoltinBaseURL {
		t.Errorf("moltin base url = %q, want default", cfg.Moltin.BaseURL)
	}
	if cfg.Redis.Port != "6379" {
		t.Errorf("redis port = %q, want 6379", cfg.Redis.Port)
	}
	if cfg.Redis.Addr() != "localhost:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr())
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
	if cfg.Database.Enabled() {
		t.Error("database must be disabled when host is empty")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("MOLTIN_CLIENT_ID", "from-env")
	t.Setenv("MOLTIN_BASE_URL", "https://api.example.test/")

	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Moltin.ClientID != "from-env" {
		t.Errorf("client_id = %q, want env value", cfg.Moltin.ClientID)
	}
	if cfg.Moltin.BaseURL != "https://api.example.test" {
		t.Errorf("base url = %q, want trailing slash trimmed", cfg.Moltin.BaseURL)
	}
}

func TestNormalizeRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }, "telegram token"},
		{"missing client id", func(c *Config) { c.Moltin.ClientID = " " }, "moltin.client_id"},
		{"missing redis host", func(c *Config) { c.Redis.Host = "" }, "redis.host"},
		{"bad run mode", func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" }, "run_mode"},
		{"webhook without url", func(c *Config) { c.Telegram.RunMode = RunModeWebhook }, "webhook.url"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Telegram: TelegramConfig{Token: "123:abc"},
				Moltin:   MoltinConfig{ClientID: "client-1"},
				Redis:    RedisConfig{Host: "localhost"},
			}
			tc.mutate(cfg)
			err := Normalize(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestNormalizeRunModeAliases(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "123:abc", RunMode: "Polling"},
		Moltin:   MoltinConfig{ClientID: "client-1"},
		Redis:    RedisConfig{Host: "localhost"},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run mode = %q, want longpoll alias accepted", cfg.Telegram.RunMode)
	}
}

func TestNormalizeDatabaseDefaults(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Moltin:   MoltinConfig{ClientID: "client-1"},
		Redis:    RedisConfig{Host: "localhost"},
		Database: DatabaseConfig{Host: "db.internal", User: "bot", Name: "fishshop"},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !cfg.Database.Enabled() {
		t.Fatal("database must be enabled when host is set")
	}
	if cfg.Database.Port != "5432" || cfg.Database.SSLMode != "disable" || cfg.Database.MaxConnections != 4 {
		t.Errorf("unexpected database defaults: %+v", cfg.Database)
	}
}
