// Package config loads the runtime's key=value configuration file and
// applies environment variable overrides on top of it.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds every setting the runtime reads from the config file or
// environment, after overrides have been applied.
type Config struct {
	Workspace string // identity file root and session storage root

	Provider    string // "anthropic" or "openai"
	APIKey      string
	Model       string
	Temperature float64

	TelegramEnabled bool
	TelegramToken   string
	TelegramAllowed []string // comma list of ids/usernames; "*" or empty = allow all

	GatewayPort  int
	GatewayToken string

	MemoryDB string

	LogLevel int // 0=trace .. 5=fatal
}

// DeepCopy returns an independent copy, used when swapping in a
// hot-reloaded configuration without racing readers of the old one.
func (c *Config) DeepCopy() *Config {
	cp := *c
	cp.TelegramAllowed = append([]string(nil), c.TelegramAllowed...)
	return &cp
}

// Default returns a Config with the runtime's baked-in defaults.
func Default() *Config {
	return &Config{
		Workspace:   ".",
		Provider:    "anthropic",
		Model:       "claude-3-5-sonnet-20241022",
		Temperature: 0.7,
		GatewayPort: 8765,
		LogLevel:    2,
	}
}

// Load reads a key=value file (# and [ lines ignored, quoted strings
// permitted) into a Config seeded with Default(), then applies
// environment variable overrides, then validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = unquote(strings.TrimSpace(val))
		setField(cfg, key, val)
	}
	return scanner.Err()
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func setField(cfg *Config, key, val string) {
	switch key {
	case "workspace":
		cfg.Workspace = val
	case "provider":
		cfg.Provider = val
	case "api_key":
		cfg.APIKey = val
	case "model":
		cfg.Model = val
	case "temperature":
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Temperature = f
		}
	case "telegram_enabled":
		cfg.TelegramEnabled = val == "true" || val == "1"
	case "telegram_token":
		cfg.TelegramToken = val
	case "telegram_allowed":
		cfg.TelegramAllowed = splitAllowed(val)
	case "gateway_port":
		if n, err := strconv.Atoi(val); err == nil {
			cfg.GatewayPort = n
		}
	case "gateway_token":
		cfg.GatewayToken = val
	case "memory_db":
		cfg.MemoryDB = val
	case "log_level":
		if n, err := strconv.Atoi(val); err == nil {
			cfg.LogLevel = n
		}
	}
}

func splitAllowed(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CCLAW_WORKSPACE"); v != "" {
		cfg.Workspace = v
	}
	if v := os.Getenv("CCLAW_API_KEY"); v != "" {
		cfg.APIKey = v
	}

	haveCred := cfg.APIKey != ""
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")

	if !haveCred && anthropicKey != "" {
		cfg.APIKey = anthropicKey
		haveCred = true
	}
	if !haveCred && openaiKey != "" {
		cfg.APIKey = openaiKey
		cfg.Provider = "openai"
	}

	if v := os.Getenv("CCLAW_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CCLAW_TELEGRAM_TOKEN"); v != "" {
		cfg.TelegramToken = v
		cfg.TelegramEnabled = true
	}
	if v := os.Getenv("CCLAW_LOG_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LogLevel = n
		}
	}
}

// BothCredentialEnvsSet reports whether the auto-detection ambiguity noted
// in the design notes applies, so the caller can log a warning.
func BothCredentialEnvsSet() bool {
	return os.Getenv("ANTHROPIC_API_KEY") != "" && os.Getenv("OPENAI_API_KEY") != ""
}

// Validate checks the minimal invariants needed before startup proceeds.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("config-missing: no API credential (set api_key, ANTHROPIC_API_KEY, or OPENAI_API_KEY)")
	}
	if c.Provider != "anthropic" && c.Provider != "openai" {
		return fmt.Errorf("config-missing: provider must be anthropic or openai, got %q", c.Provider)
	}
	return nil
}
