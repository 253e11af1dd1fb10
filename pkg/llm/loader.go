package llm

import (
	"fmt"
	"log/slog"
	"time"

	"cclaw/pkg/config"
	"cclaw/pkg/httpclient"
)

// NewFromConfig builds the selected provider's Client and wraps it in a
// FallbackClient with up to 3 attempts — not a multi-provider pool
// (exactly one active provider per run), just retry-on-transient around
// that one. Both adapters report transport failures as a "no response
// from provider" reply with a nil error, so those failures are not
// retried; the only errors an adapter returns are request-marshal
// failures, which IsTransientError does not class as transient.
func NewFromConfig(cfg *config.Config) (Client, error) {
	factory, ok := GetProviderFactory(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("config-missing: unknown provider %q", cfg.Provider)
	}

	http, err := httpclient.New()
	if err != nil {
		return nil, fmt.Errorf("config-missing: %w", err)
	}

	client := factory(http, cfg.APIKey, cfg.Model)
	slog.Info("llm client initialized", "provider", cfg.Provider, "model", cfg.Model)

	return &FallbackClient{
		Clients:    []Client{client},
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}, nil
}
