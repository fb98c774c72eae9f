// Package config loads runtime settings from a TOML file and environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	DefaultMaxRounds  = 16
	DefaultMaxRetries = 2
	DefaultMaxTokens  = 1024
)

// Config is the persisted config file schema.
type Config struct {
	Provider     string  `toml:"provider"`
	Model        string  `toml:"model"`
	BaseURL      string  `toml:"base_url"`
	APIKey       string  `toml:"api_key"`
	Temperature  float64 `toml:"temperature"`
	MaxTokens    int64   `toml:"max_tokens"`
	MaxRounds    int     `toml:"max_rounds"`
	MaxRetries   int     `toml:"max_retries"`
	LogLevel     string  `toml:"log_level"`
	LogFile      string  `toml:"log_file"`
	Observe      bool    `toml:"observe"`
	ArtifactsDir string  `toml:"artifacts_dir"`

	Source string `toml:"-"`
}

func Default() Config {
	return Config{
		Provider:   ProviderOpenAI,
		MaxTokens:  DefaultMaxTokens,
		MaxRounds:  DefaultMaxRounds,
		MaxRetries: DefaultMaxRetries,
		LogLevel:   "info",
	}
}

// DefaultPath returns $AGT_CONFIG, or ~/.toolchat/config.toml.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv("AGT_CONFIG")); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".toolchat", "config.toml")
}

// Overrides are command-line values applied after the file and the
// environment. Provider is resolved before the provider-specific key and base
// URL variables are read.
type Overrides struct {
	Provider string
}

// Load reads path (DefaultPath when empty) and applies environment
// overrides, then ov. A missing file is not an error.
func Load(path string, ov Overrides) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(content, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
			cfg.Source = path
		case !errors.Is(err, os.ErrNotExist):
			return cfg, err
		}
	}
	if err := applyEnv(&cfg, ov); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, ov Overrides) error {
	if v := env("AGT_PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(ov.Provider); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := env("MODEL_NAME"); v != "" {
		cfg.Model = v
	}

	keyVar, urlVar := "OPENAI_API_KEY", "OPENAI_BASE_URL"
	if cfg.Provider == ProviderAnthropic {
		keyVar, urlVar = "ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL"
	}
	if v := env(keyVar); v != "" {
		cfg.APIKey = v
	}
	if v := env(urlVar); v != "" {
		cfg.BaseURL = v
	}

	if v := env("AGT_MAX_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AGT_MAX_ROUNDS %q: %w", v, err)
		}
		cfg.MaxRounds = n
	}
	if v := env("AGT_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AGT_MAX_RETRIES %q: %w", v, err)
		}
		cfg.MaxRetries = n
	}
	if v := env("AGT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := env("AGT_OBSERVE_JSON"); v != "" {
		cfg.Observe = v == "1"
	}
	if v := env("AGT_ARTIFACTS_DIR"); v != "" {
		cfg.ArtifactsDir = v
	}
	return nil
}

func env(name string) string { return strings.TrimSpace(os.Getenv(name)) }

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderOpenAI, ProviderAnthropic)
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be positive, got %d", c.MaxRounds)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		if c.Provider == ProviderAnthropic {
			return errors.New("missing ANTHROPIC_API_KEY")
		}
		return errors.New("missing OPENAI_API_KEY")
	}
	return nil
}
