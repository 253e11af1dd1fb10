// Package agent implements the bounded agent loop: a single user turn is
// driven through prompt -> provider -> tools -> prompt until the model
// stops requesting tools or the iteration cap is hit.
package agent

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"

	"cclaw/pkg/llm"
	"cclaw/pkg/tools"
)

// maxIterations is the hard per-turn cap on provider calls (spec §4.5 and
// §8 invariant: the agent loop terminates within 10 provider calls).
const maxIterations = 10

// Engine drives the bounded loop for a single session.
type Engine struct {
	client    llm.Client
	registry  *tools.Registry
	system    string
	workspace string

	// temperature is stored as bits behind an atomic so a config hot-reload
	// (pkg/config.WatchReload) can update sampling temperature without
	// racing in-flight turns on other goroutines (cli/telegram/ws all share
	// one Engine).
	temperature atomic.Uint64
}

// New builds an Engine. system is the system prompt sent on every call;
// workspace is the root tool calls execute against; temperature is the
// sampling temperature forwarded on every provider call.
func New(client llm.Client, registry *tools.Registry, system, workspace string, temperature float64) *Engine {
	e := &Engine{client: client, registry: registry, system: system, workspace: workspace}
	e.SetTemperature(temperature)
	return e
}

// SetTemperature updates the sampling temperature used by subsequent
// turns. Safe to call concurrently with Run.
func (e *Engine) SetTemperature(temperature float64) {
	e.temperature.Store(math.Float64bits(temperature))
}

func (e *Engine) getTemperature() float64 {
	return math.Float64frombits(e.temperature.Load())
}

// Reply is the outcome of one driven turn.
type Reply struct {
	Text          string
	ProviderCalls int
	HitCap        bool
}

// Run appends userText as a user message, drives the loop, and returns the
// final assistant text. onTextDelta, if non-nil, receives streamed text
// deltas as they arrive from the provider (streaming policy in spec §4.5);
// pass nil for non-streaming calls.
func (e *Engine) Run(ctx context.Context, session *llm.Session, userText string, onTextDelta func(string)) Reply {
	session.AddUser(userText)

	var partialText string
	var calls int

	for iteration := 0; iteration < maxIterations; iteration++ {
		calls++

		req := llm.ChatRequest{
			System:      e.system,
			Messages:    session.GetMessages(),
			Tools:       e.registry.Definitions(),
			Temperature: e.getTemperature(),
		}

		var resp *llm.ChatResponse
		var err error
		if onTextDelta != nil {
			resp, err = e.client.ChatStream(ctx, req, onTextDelta)
		} else {
			resp, err = e.client.Chat(ctx, req)
		}
		if err != nil {
			session.AddAssistant("Error: " + err.Error())
			return Reply{Text: "Error: " + err.Error(), ProviderCalls: calls}
		}

		llm.LogUsage(req.Model, &llm.LLMUsage{InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens})

		if resp.Text != "" {
			partialText = resp.Text
		}

		if resp.NumTools() == 0 {
			session.AddAssistant(resp.Text)
			return Reply{Text: resp.Text, ProviderCalls: calls}
		}

		for _, tc := range resp.ToolCalls {
			session.AddToolUse(tc.ID, tc.Name, tc.Input)
			result := e.registry.Dispatch(tc.Name, tc.Input, e.workspace)
			output := result.Output
			if !result.Success {
				slog.WarnContext(ctx, "tool dispatch failed", "name", tc.Name, "output", output)
			}
			session.AddToolResult(tc.ID, output)
		}
	}

	slog.WarnContext(ctx, "agent loop hit iteration cap", "calls", calls)
	if partialText != "" {
		session.AddAssistant(partialText)
	}
	return Reply{Text: partialText, ProviderCalls: calls, HitCap: true}
}

// Summarize asks the provider for a compact summary of the session's
// history so far and stores it via Session.SetSummary. This is an
// explicit, separately-invoked compaction step (SPEC_FULL.md §11) — not
// the automatic per-call context compaction spec.md's Non-goals exclude.
func (e *Engine) Summarize(ctx context.Context, session *llm.Session) (string, error) {
	req := llm.ChatRequest{
		System:      "Summarize the conversation so far in at most five sentences, preserving facts the user will want recalled later.",
		Messages:    session.GetMessages(),
		Temperature: e.getTemperature(),
	}
	resp, err := e.client.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	session.SetSummary(resp.Text)
	return resp.Text, nil
}
