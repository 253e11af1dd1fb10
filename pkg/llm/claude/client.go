// Package claude implements the Claude-style provider adapter: JSON
// request/response shape, x-api-key auth, and the message_start /
// content_block_start / content_block_delta / content_block_stop /
// message_delta streaming event taxonomy.
package claude

import (
	"context"
	"fmt"
	"strings"

	"cclaw/pkg/httpclient"
	"cclaw/pkg/llm"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	apiURL        = "https://api.anthropic.com/v1/messages"
	apiVersion    = "2023-06-01"
	maxTokensCeil = 8192
)

func init() {
	llm.RegisterProvider("anthropic", func(http *httpclient.Client, apiKey, model string) llm.Client {
		return &Client{http: http, apiKey: apiKey, model: model}
	})
}

// Client is the Claude-style adapter over the hand-rolled httpclient.
type Client struct {
	http   *httpclient.Client
	apiKey string
	model  string
}

func (c *Client) Provider() string { return "anthropic" }

func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "transport:") || strings.Contains(msg, "timeout")
}

func (c *Client) headers() []httpclient.Header {
	return []httpclient.Header{
		{Key: "x-api-key", Value: c.apiKey},
		{Key: "anthropic-version", Value: apiVersion},
		{Key: "Content-Type", Value: "application/json"},
	}
}

func (c *Client) buildBody(req llm.ChatRequest, stream bool) ([]byte, error) {
	body := map[string]any{
		"model":       coalesce(req.Model, c.model),
		"max_tokens":  maxTokensCeil,
		"temperature": req.Temperature,
		"messages":    messagesToWire(req.Messages),
	}
	if req.System != "" {
		body["system"] = req.System
	}
	if tools := toolsToWire(req.Tools); len(tools) > 0 {
		body["tools"] = tools
	}
	if stream {
		body["stream"] = true
	}
	return json.Marshal(body)
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Chat performs a non-streaming call.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	body, err := c.buildBody(req, false)
	if err != nil {
		return nil, fmt.Errorf("parse: marshal request: %w", err)
	}

	resp, err := c.http.PostJSON(apiURL, body, c.headers())
	if err != nil || resp.Status == 0 {
		return &llm.ChatResponse{Text: "no response from provider"}, nil
	}

	var wire struct {
		Content []struct {
			Type  string              `json:"type"`
			Text  string              `json:"text"`
			ID    string              `json:"id"`
			Name  string              `json:"name"`
			Input jsoniter.RawMessage `json:"input"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &wire); err != nil {
		return &llm.ChatResponse{Text: fmt.Sprintf("parse error: %v", err)}, nil
	}
	if wire.Error != nil {
		return &llm.ChatResponse{Text: wire.Error.Message}, nil
	}

	out := &llm.ChatResponse{StopReason: normalizeStopReason(wire.StopReason), InputTokens: wire.Usage.InputTokens, OutputTokens: wire.Usage.OutputTokens}
	var text strings.Builder
	for _, block := range wire.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, llm.ToolCallRequest{ID: block.ID, Name: block.Name, Input: string(block.Input)})
		}
	}
	out.Text = text.String()
	return out, nil
}

// ChatStream performs a streaming call, invoking onTextDelta as model text arrives.
func (c *Client) ChatStream(ctx context.Context, req llm.ChatRequest, onTextDelta func(string)) (*llm.ChatResponse, error) {
	body, err := c.buildBody(req, true)
	if err != nil {
		return nil, fmt.Errorf("parse: marshal request: %w", err)
	}

	acc := llm.NewToolAccumulator()
	out := &llm.ChatResponse{}
	var text strings.Builder

	err = c.http.PostStream(apiURL, body, c.headers(), func(payload string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		var evt struct {
			Type  string `json:"type"`
			Usage struct {
				InputTokens  int `json:"input_tokens"`
				OutputTokens int `json:"output_tokens"`
			} `json:"usage"`
			Delta struct {
				Type        string `json:"type"`
				Text        string `json:"text"`
				PartialJSON string `json:"partial_json"`
				StopReason  string `json:"stop_reason"`
			} `json:"delta"`
			ContentBlock struct {
				Type string `json:"type"`
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"content_block"`
			Index int `json:"index"`
		}
		if err := json.Unmarshal([]byte(payload), &evt); err != nil {
			return true // ignore malformed event lines, keep reading
		}

		switch evt.Type {
		case "message_start":
			out.InputTokens = evt.Usage.InputTokens
		case "content_block_start":
			if evt.ContentBlock.Type == "tool_use" {
				acc.Begin(evt.Index, evt.ContentBlock.ID, evt.ContentBlock.Name)
			}
		case "content_block_delta":
			switch evt.Delta.Type {
			case "text_delta":
				text.WriteString(evt.Delta.Text)
				if onTextDelta != nil {
					onTextDelta(evt.Delta.Text)
				}
			case "input_json_delta":
				acc.Append(evt.Index, evt.Delta.PartialJSON)
			}
		case "content_block_stop":
			acc.Finish(evt.Index)
		case "message_delta":
			out.StopReason = normalizeStopReason(evt.Delta.StopReason)
			out.OutputTokens = evt.Usage.OutputTokens
		}
		return true
	})
	if err != nil {
		return &llm.ChatResponse{Text: "no response from provider"}, nil
	}

	out.Text = text.String()
	out.ToolCalls = acc.Calls()
	return out, nil
}

func normalizeStopReason(s string) string {
	if s == "tool_use" {
		return llm.StopReasonToolUse
	}
	if s == "end_turn" {
		return llm.StopReasonEndTurn
	}
	return s // passthrough, including ""
}

func messagesToWire(messages []llm.Message) []map[string]any {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		blocks := make([]map[string]any, 0, len(m.Content))
		for _, b := range m.Content {
			switch b.Type {
			case "text":
				blocks = append(blocks, map[string]any{"type": "text", "text": b.Text})
			case "tool_use":
				var input any
				if len(b.Input) > 0 {
					json.Unmarshal(b.Input, &input)
				} else {
					input = map[string]any{}
				}
				blocks = append(blocks, map[string]any{"type": "tool_use", "id": b.ID, "name": b.Name, "input": input})
			case "tool_result":
				blocks = append(blocks, map[string]any{"type": "tool_result", "tool_use_id": b.ToolUseID, "content": b.Output})
			case "image":
				if b.Source != nil {
					blocks = append(blocks, map[string]any{"type": "image", "source": b.Source})
				}
			}
		}
		out = append(out, map[string]any{"role": m.Role, "content": blocks})
	}
	return out
}

func toolsToWire(tools []llm.ToolDefinition) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"input_schema": map[string]any{
				"type":       "object",
				"properties": t.InputSchema,
			},
		})
	}
	return out
}
