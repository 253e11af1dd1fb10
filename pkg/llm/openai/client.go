// Package openai implements the OpenAI-style provider adapter: a
// synthetic system message, function-call tool translation, Bearer auth,
// and the choices[0].delta streaming shape addressed by tool-call index.
package openai

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
	apiURL        = "https://api.openai.com/v1/chat/completions"
	maxTokensCeil = 8192
)

func init() {
	llm.RegisterProvider("openai", func(http *httpclient.Client, apiKey, model string) llm.Client {
		return &Client{http: http, apiKey: apiKey, model: model}
	})
}

// Client is the OpenAI-style adapter over the hand-rolled httpclient.
type Client struct {
	http   *httpclient.Client
	apiKey string
	model  string
}

func (c *Client) Provider() string { return "openai" }

func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "transport:") || strings.Contains(msg, "timeout")
}

func (c *Client) headers() []httpclient.Header {
	return []httpclient.Header{
		{Key: "Authorization", Value: "Bearer " + c.apiKey},
		{Key: "Content-Type", Value: "application/json"},
	}
}

func (c *Client) buildBody(req llm.ChatRequest, stream bool) ([]byte, error) {
	messages := make([]map[string]any, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.System})
	}
	messages = append(messages, messagesToWire(req.Messages)...)

	body := map[string]any{
		"model":       coalesce(req.Model, c.model),
		"max_tokens":  maxTokensCeil,
		"temperature": req.Temperature,
		"messages":    messages,
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
		Choices []struct {
			Message struct {
				Content   string `json:"content"`
				ToolCalls []struct {
					ID       string `json:"id"`
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
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
	if len(wire.Choices) == 0 {
		return &llm.ChatResponse{Text: "no response from provider"}, nil
	}

	choice := wire.Choices[0]
	out := &llm.ChatResponse{
		Text:         choice.Message.Content,
		StopReason:   normalizeFinishReason(choice.FinishReason),
		InputTokens:  wire.Usage.PromptTokens,
		OutputTokens: wire.Usage.CompletionTokens,
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCallRequest{ID: tc.ID, Name: tc.Function.Name, Input: tc.Function.Arguments})
	}
	return out, nil
}

// ChatStream performs a streaming call.
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
			Choices []struct {
				Delta struct {
					Content   string `json:"content"`
					ToolCalls []struct {
						Index    int    `json:"index"`
						ID       string `json:"id"`
						Function struct {
							Name      string `json:"name"`
							Arguments string `json:"arguments"`
						} `json:"function"`
					} `json:"tool_calls"`
				} `json:"delta"`
				FinishReason string `json:"finish_reason"`
			} `json:"choices"`
			Usage struct {
				PromptTokens     int `json:"prompt_tokens"`
				CompletionTokens int `json:"completion_tokens"`
			} `json:"usage"`
		}
		if err := json.Unmarshal([]byte(payload), &evt); err != nil {
			return true
		}
		if len(evt.Choices) == 0 {
			return true
		}
		choice := evt.Choices[0]

		if choice.Delta.Content != "" {
			text.WriteString(choice.Delta.Content)
			if onTextDelta != nil {
				onTextDelta(choice.Delta.Content)
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			if tc.ID != "" {
				acc.SetID(tc.Index, tc.ID)
			}
			if tc.Function.Name != "" {
				acc.SetName(tc.Index, tc.Function.Name)
			}
			if tc.Function.Arguments != "" {
				acc.Append(tc.Index, tc.Function.Arguments)
			}
		}
		if choice.FinishReason != "" {
			out.StopReason = normalizeFinishReason(choice.FinishReason)
			out.OutputTokens = evt.Usage.CompletionTokens
			if evt.Usage.PromptTokens > 0 {
				out.InputTokens = evt.Usage.PromptTokens
			}
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

func normalizeFinishReason(reason string) string {
	switch reason {
	case "stop":
		return llm.StopReasonEndTurn
	case "tool_calls":
		return llm.StopReasonToolUse
	case "":
		return ""
	default:
		return reason // passthrough
	}
}

func messagesToWire(messages []llm.Message) []map[string]any {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		var text strings.Builder
		var toolCalls []map[string]any
		var toolResultID, toolResultOutput string

		for _, b := range m.Content {
			switch b.Type {
			case "text":
				text.WriteString(b.Text)
			case "tool_use":
				toolCalls = append(toolCalls, map[string]any{
					"id":   b.ID,
					"type": "function",
					"function": map[string]any{
						"name":      b.Name,
						"arguments": string(b.Input),
					},
				})
			case "tool_result":
				toolResultID = b.ToolUseID
				toolResultOutput = b.Output
			}
		}

		if toolResultID != "" {
			out = append(out, map[string]any{
				"role":         "tool",
				"tool_call_id": toolResultID,
				"content":      toolResultOutput,
			})
			continue
		}

		msg := map[string]any{"role": m.Role, "content": text.String()}
		if len(toolCalls) > 0 {
			msg["tool_calls"] = toolCalls
			msg["content"] = nil
		}
		out = append(out, msg)
	}
	return out
}

func toolsToWire(tools []llm.ToolDefinition) []map[string]any {
	if len(tools) == 0 {
		return nil
	}
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters": map[string]any{
					"type":       "object",
					"properties": t.InputSchema,
				},
			},
		})
	}
	return out
}
