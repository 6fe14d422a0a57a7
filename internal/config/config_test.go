package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var secretEnvVars = []string{
	"ICSWIPE_LLM_GEMINI_KEY", "ICSWIPE_LLM_OPENAI_KEY", "GOOGLE_GEMINI_API_KEY",
	"ICSWIPE_WALLET_TOKEN", "ICSWIPE_JOURNAL_POSTGRES_DSN",
}

func clearSecrets(t *testing.T) {
	t.Helper()
	for _, e := range secretEnvVars {
		t.Setenv(e, "")
		os.Unsetenv(e)
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearSecrets(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.LLM.Primary != "gemini" {
		t.Errorf("LLM.Primary: got %q, want %q", cfg.LLM.Primary, "gemini")
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("LLM.Model: got %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 2048 {
		t.Errorf("LLM.MaxTokens: got %d, want 2048", cfg.LLM.MaxTokens)
	}
	if cfg.Wallet.Provider != "paper" {
		t.Errorf("Wallet.Provider: got %q, want paper", cfg.Wallet.Provider)
	}
	if cfg.Engine.SwipeThresholdPx != 100 {
		t.Errorf("Engine.SwipeThresholdPx: got %f, want 100", cfg.Engine.SwipeThresholdPx)
	}
	if cfg.Engine.ExitOffsetPx != 500 {
		t.Errorf("Engine.ExitOffsetPx: got %f, want 500", cfg.Engine.ExitOffsetPx)
	}
	if cfg.NotificationTTL() != 3*time.Second {
		t.Errorf("NotificationTTL: got %v, want 3s", cfg.NotificationTTL())
	}
	if cfg.TradeTimeout() != 30*time.Second {
		t.Errorf("TradeTimeout: got %v, want 30s", cfg.TradeTimeout())
	}
	if cfg.Catalog.DefaultCategory != "meme-coins" {
		t.Errorf("Catalog.DefaultCategory: got %q", cfg.Catalog.DefaultCategory)
	}
	if cfg.Catalog.CacheTTL != 300 {
		t.Errorf("Catalog.CacheTTL: got %d, want 300", cfg.Catalog.CacheTTL)
	}
	if cfg.Journal.Driver != "memory" {
		t.Errorf("Journal.Driver: got %q, want memory", cfg.Journal.Driver)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("API.CORSOrigins: got %v", cfg.API.CORSOrigins)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
	if cfg.LLM.GeminiKey != "" {
		t.Errorf("GeminiKey should be empty, got %q", cfg.LLM.GeminiKey)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearSecrets(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
llm:
  primary: "openai"
  model: "gpt-4o-mini"
  temperature: 0.3
wallet:
  provider: "http"
  base_url: "https://wallet.example.com"
  principal: "2vxsx-fae"
  paper:
    initial_balance: 100000
    default_trade_size: 500
engine:
  swipe_threshold_px: 120
notify:
  default_ttl_ms: 5000
journal:
  driver: "postgres"
  postgres_dsn: "postgres://u:p@localhost/icswipe"
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.LLM.Primary != "openai" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM: got %+v", cfg.LLM)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Errorf("LLM.Temperature: got %f, want 0.3", cfg.LLM.Temperature)
	}
	if cfg.Wallet.Provider != "http" || cfg.Wallet.BaseURL != "https://wallet.example.com" {
		t.Errorf("Wallet: got %+v", cfg.Wallet)
	}
	if cfg.Wallet.Principal != "2vxsx-fae" {
		t.Errorf("Wallet.Principal: got %q", cfg.Wallet.Principal)
	}
	if cfg.Wallet.Paper.InitialBalance != 100000 || cfg.Wallet.Paper.DefaultTradeSize != 500 {
		t.Errorf("Wallet.Paper: got %+v", cfg.Wallet.Paper)
	}
	if cfg.Engine.SwipeThresholdPx != 120 {
		t.Errorf("Engine.SwipeThresholdPx: got %f", cfg.Engine.SwipeThresholdPx)
	}
	// Untouched keys keep their defaults.
	if cfg.Engine.ExitOffsetPx != 500 {
		t.Errorf("Engine.ExitOffsetPx: got %f, want 500", cfg.Engine.ExitOffsetPx)
	}
	if cfg.NotificationTTL() != 5*time.Second {
		t.Errorf("NotificationTTL: got %v", cfg.NotificationTTL())
	}
	if cfg.Journal.Driver != "postgres" || cfg.Journal.PostgresDSN == "" {
		t.Errorf("Journal: got %+v", cfg.Journal)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr: got %q", cfg.Addr())
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestOverrideFromEnv(t *testing.T) {
	clearSecrets(t)
	t.Setenv("ICSWIPE_LLM_GEMINI_KEY", "gemini-key-789")
	t.Setenv("ICSWIPE_LLM_OPENAI_KEY", "sk-test-openai-key-123456")
	t.Setenv("ICSWIPE_WALLET_TOKEN", "wallet-token")
	t.Setenv("ICSWIPE_JOURNAL_POSTGRES_DSN", "postgres://localhost/x")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.LLM.GeminiKey != "gemini-key-789" {
		t.Errorf("GeminiKey: got %q", cfg.LLM.GeminiKey)
	}
	if cfg.LLM.OpenAIKey != "sk-test-openai-key-123456" {
		t.Errorf("OpenAIKey: got %q", cfg.LLM.OpenAIKey)
	}
	if cfg.Wallet.Token != "wallet-token" {
		t.Errorf("Wallet.Token: got %q", cfg.Wallet.Token)
	}
	if cfg.Journal.PostgresDSN != "postgres://localhost/x" {
		t.Errorf("Journal.PostgresDSN: got %q", cfg.Journal.PostgresDSN)
	}
}

func TestOverrideFromEnvSharedGeminiKey(t *testing.T) {
	clearSecrets(t)
	t.Setenv("GOOGLE_GEMINI_API_KEY", "shared-key")

	cfg := &Config{}
	overrideFromEnv(cfg)
	if cfg.LLM.GeminiKey != "shared-key" {
		t.Errorf("GeminiKey: got %q, want shared-key", cfg.LLM.GeminiKey)
	}

	// The prefixed variable wins over the shared one.
	t.Setenv("ICSWIPE_LLM_GEMINI_KEY", "own-key")
	cfg = &Config{}
	overrideFromEnv(cfg)
	if cfg.LLM.GeminiKey != "own-key" {
		t.Errorf("GeminiKey: got %q, want own-key", cfg.LLM.GeminiKey)
	}
}

// ── Key status ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "***"},
		{"short", "***"},
		{"12345678", "***"},
		{"AIzaSyD-1234567890", "AIz...890"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.in); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckAPIKeysAllEmpty(t *testing.T) {
	clearSecrets(t)
	keys := CheckAPIKeys(&Config{})
	if len(keys) != 4 {
		t.Fatalf("expected 4 key statuses, got %d", len(keys))
	}
	for _, k := range keys {
		if k.IsSet {
			t.Errorf("%s should not be set", k.Name)
		}
		if k.Source != KeySourceNone {
			t.Errorf("%s source: got %q, want none", k.Name, k.Source)
		}
	}
}

func TestCheckAPIKeysSources(t *testing.T) {
	clearSecrets(t)
	t.Setenv("ICSWIPE_LLM_GEMINI_KEY", "gemini-from-env-123")

	cfg := &Config{}
	cfg.LLM.GeminiKey = "gemini-from-env-123"
	cfg.Wallet.Token = "token-from-config-456"

	keys := CheckAPIKeys(cfg)
	if keys[0].Source != KeySourceEnv {
		t.Errorf("Gemini key source: got %q, want env", keys[0].Source)
	}
	if keys[2].Source != KeySourceConfig {
		t.Errorf("Wallet token source: got %q, want config", keys[2].Source)
	}
	if keys[2].Masked != "tok...456" {
		t.Errorf("Wallet token masked: got %q", keys[2].Masked)
	}
}
