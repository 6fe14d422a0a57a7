// Package config handles configuration loading for IcSwipe.
// It supports YAML config files, a local .env file, and environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm" json:"llm"`
	Wallet  WalletConfig  `mapstructure:"wallet" yaml:"wallet" json:"wallet"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine" json:"engine"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify" json:"notify"`
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog" json:"catalog"`
	Journal JournalConfig `mapstructure:"journal" yaml:"journal" json:"journal"`
	API     APIConfig     `mapstructure:"api" yaml:"api" json:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
}

// LLMConfig holds the token generator's LLM provider configuration.
type LLMConfig struct {
	Primary     string  `mapstructure:"primary" yaml:"primary" json:"primary"` // "gemini", "openai", "ollama"
	GeminiKey   string  `mapstructure:"gemini_key" yaml:"gemini_key" json:"-"`
	OpenAIKey   string  `mapstructure:"openai_key" yaml:"openai_key" json:"-"`
	OllamaURL   string  `mapstructure:"ollama_url" yaml:"ollama_url" json:"ollama_url"`
	Model       string  `mapstructure:"model" yaml:"model" json:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens" json:"max_tokens"`
	TimeoutSec  int     `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// WalletConfig selects and configures the wallet backend.
type WalletConfig struct {
	Provider   string      `mapstructure:"provider" yaml:"provider" json:"provider"` // "paper" or "http"
	BaseURL    string      `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	Principal  string      `mapstructure:"principal" yaml:"principal" json:"principal"`
	Token      string      `mapstructure:"token" yaml:"token" json:"-"`
	TimeoutSec int         `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	Paper      PaperConfig `mapstructure:"paper" yaml:"paper" json:"paper"`
}

// PaperConfig seeds the in-memory paper wallet. Amounts are minor units.
type PaperConfig struct {
	InitialBalance   uint64 `mapstructure:"initial_balance" yaml:"initial_balance" json:"initial_balance"`
	DefaultTradeSize uint64 `mapstructure:"default_trade_size" yaml:"default_trade_size" json:"default_trade_size"`
}

// EngineConfig holds swipe engine tuning.
type EngineConfig struct {
	SwipeThresholdPx float64 `mapstructure:"swipe_threshold_px" yaml:"swipe_threshold_px" json:"swipe_threshold_px"`
	ExitOffsetPx     float64 `mapstructure:"exit_offset_px" yaml:"exit_offset_px" json:"exit_offset_px"`
	TradeTimeoutSec  int     `mapstructure:"trade_timeout_sec" yaml:"trade_timeout_sec" json:"trade_timeout_sec"`
}

// NotifyConfig holds notification channel settings.
type NotifyConfig struct {
	DefaultTTLMillis int `mapstructure:"default_ttl_ms" yaml:"default_ttl_ms" json:"default_ttl_ms"`
}

// CatalogConfig holds token catalog settings.
type CatalogConfig struct {
	DefaultCategory   string `mapstructure:"default_category" yaml:"default_category" json:"default_category"`
	CacheTTL          int    `mapstructure:"cache_ttl" yaml:"cache_ttl" json:"cache_ttl"` // seconds
	GenerateRateLimit int    `mapstructure:"generate_rate_per_min" yaml:"generate_rate_per_min" json:"generate_rate_per_min"`
}

// JournalConfig selects the decision journal backend.
type JournalConfig struct {
	Driver      string `mapstructure:"driver" yaml:"driver" json:"driver"` // "memory" or "postgres"
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn" json:"-"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host" yaml:"host" json:"host"`
	Port        int      `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`    // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.icswipe/config.yaml (home directory)
//  3. /etc/icswipe/config.yaml (system)
//
// A .env file in the working directory is loaded first; variables already
// present in the environment win. Format: ICSWIPE_<SECTION>_<KEY>,
// e.g. ICSWIPE_LLM_GEMINI_KEY.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".icswipe"))
	v.AddConfigPath("/etc/icswipe")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ICSWIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// loadDotEnv loads ./.env when present.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env: %w", err)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.primary", "gemini")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout_sec", 30)

	v.SetDefault("wallet.provider", "paper")
	v.SetDefault("wallet.base_url", "http://localhost:4943")
	v.SetDefault("wallet.principal", "")
	v.SetDefault("wallet.timeout_sec", 15)
	v.SetDefault("wallet.paper.initial_balance", 0)
	v.SetDefault("wallet.paper.default_trade_size", 0)

	v.SetDefault("engine.swipe_threshold_px", 100.0)
	v.SetDefault("engine.exit_offset_px", 500.0)
	v.SetDefault("engine.trade_timeout_sec", 30)

	v.SetDefault("notify.default_ttl_ms", 3000)

	v.SetDefault("catalog.default_category", "meme-coins")
	v.SetDefault("catalog.cache_ttl", 300) // 5 minutes
	v.SetDefault("catalog.generate_rate_per_min", 10)

	v.SetDefault("journal.driver", "memory")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// GOOGLE_GEMINI_API_KEY is honoured for setups that share the front-end's key.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("GOOGLE_GEMINI_API_KEY"); key != "" && cfg.LLM.GeminiKey == "" {
		cfg.LLM.GeminiKey = key
	}
	if key := os.Getenv("ICSWIPE_LLM_GEMINI_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	}
	if key := os.Getenv("ICSWIPE_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if tok := os.Getenv("ICSWIPE_WALLET_TOKEN"); tok != "" {
		cfg.Wallet.Token = tok
	}
	if dsn := os.Getenv("ICSWIPE_JOURNAL_POSTGRES_DSN"); dsn != "" {
		cfg.Journal.PostgresDSN = dsn
	}
}

// Addr returns the API listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// NotificationTTL returns the default notification lifetime.
func (c *Config) NotificationTTL() time.Duration {
	return time.Duration(c.Notify.DefaultTTLMillis) * time.Millisecond
}

// TradeTimeout returns the per-swap timeout.
func (c *Config) TradeTimeout() time.Duration {
	return time.Duration(c.Engine.TradeTimeoutSec) * time.Second
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
