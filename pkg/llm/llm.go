package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// LLMUsage is the per-call token accounting a provider reports.
type LLMUsage struct {
	InputTokens  int
	OutputTokens int
}

// LogUsage emits a single debug line with the call's token accounting.
func LogUsage(model string, usage *LLMUsage) {
	if usage == nil {
		return
	}
	slog.Debug("llm usage", "model", model, "input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens)
}

// ToolDefinition is the Claude-style tool schema shape; the OpenAI adapter
// translates it on the way out.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ChatRequest bundles everything a provider adapter needs for one call.
type ChatRequest struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolDefinition
	Temperature float64
}

// Client is the provider-agnostic chat surface: one back-end per
// implementation (Claude-style, OpenAI-style), selected once at session
// start rather than dispatched on by string comparison per turn.
type Client interface {
	Provider() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	ChatStream(ctx context.Context, req ChatRequest, onTextDelta func(string)) (*ChatResponse, error)
	IsTransientError(err error) bool
}

// FallbackClient tries each configured Client in order, retrying
// transient errors before moving to the next.
type FallbackClient struct {
	Clients    []Client
	MaxRetries int
	RetryDelay time.Duration
}

func (f *FallbackClient) Provider() string {
	if len(f.Clients) == 0 {
		return ""
	}
	return f.Clients[0].Provider()
}

func (f *FallbackClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return f.attempt(ctx, func(c Client) (*ChatResponse, error) {
		return c.Chat(ctx, req)
	})
}

func (f *FallbackClient) ChatStream(ctx context.Context, req ChatRequest, onTextDelta func(string)) (*ChatResponse, error) {
	return f.attempt(ctx, func(c Client) (*ChatResponse, error) {
		return c.ChatStream(ctx, req, onTextDelta)
	})
}

func (f *FallbackClient) attempt(ctx context.Context, call func(Client) (*ChatResponse, error)) (*ChatResponse, error) {
	var lastErr error
	maxRetries := f.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	for i, client := range f.Clients {
		if i > 0 {
			slog.Warn("provider failed, trying fallback", "index", i)
		}
		for retry := 1; retry <= maxRetries; retry++ {
			if retry > 1 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(retry-1) * f.RetryDelay):
				}
			}
			resp, err := call(client)
			if err == nil {
				return resp, nil
			}
			lastErr = err
			if client.IsTransientError(err) && retry < maxRetries {
				slog.Warn("transient provider error, retrying", "provider", client.Provider(), "attempt", retry, "error", err)
				continue
			}
			slog.Error("provider failed", "provider", client.Provider(), "error", err)
			break
		}
	}
	return nil, fmt.Errorf("transport: all providers failed: %w", lastErr)
}

// IsTransientError always reports false: retrying across the fallback
// group itself is the caller's decision, not this container's.
func (f *FallbackClient) IsTransientError(err error) bool {
	return false
}
