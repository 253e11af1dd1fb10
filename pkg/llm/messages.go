package llm

import (
	"encoding/base64"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//----------------------------------------------------------------
// Message - one entry in a conversation history
//----------------------------------------------------------------

// Message is a single turn in a session. Role is "user" or "assistant";
// the system prompt is never stored as a message — it is carried
// alongside the session and injected by each provider adapter in the
// shape that provider expects.
type Message struct {
	Role      string         `json:"role"`
	Content   []ContentBlock `json:"content"`
	Timestamp int64          `json:"timestamp,omitempty"`
}

//----------------------------------------------------------------
// ContentBlock - the tagged union from the data model
//----------------------------------------------------------------

// ContentBlock is one element of a message's content array. Type
// discriminates the variant; only the fields relevant to that variant are
// populated. "tool_use" is assistant-only, "tool_result" is user-only.
type ContentBlock struct {
	Type string `json:"type"` // "text" | "tool_use" | "tool_result" | "thinking" | "image"

	// text / thinking
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string             `json:"id,omitempty"`
	Name  string             `json:"name,omitempty"`
	Input jsoniter.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Output    string `json:"output,omitempty"`

	// image
	Source *ImageSource `json:"source,omitempty"`
}

//----------------------------------------------------------------
// ImageSource - image attachment payload
//----------------------------------------------------------------

// ImageSource carries an inline or URL-referenced image.
type ImageSource struct {
	Type      string `json:"type"` // "base64" | "url"
	MediaType string `json:"media_type"`
	Data      []byte `json:"-"`
	URL       string `json:"url,omitempty"`
}

// MarshalJSON encodes Data as base64 when Type is "base64".
func (is *ImageSource) MarshalJSON() ([]byte, error) {
	if is.Type == "base64" && len(is.Data) > 0 {
		return []byte(`{"type":"base64","media_type":"` + is.MediaType + `","data":"` + base64.StdEncoding.EncodeToString(is.Data) + `"}`), nil
	}
	return []byte(`{"type":"` + is.Type + `","media_type":"` + is.MediaType + `","url":"` + is.URL + `"}`), nil
}

// UnmarshalJSON decodes a base64 "data" field back into Data.
func (is *ImageSource) UnmarshalJSON(data []byte) error {
	type Alias ImageSource
	aux := &struct {
		DataBase64 string `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(is),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if aux.DataBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(aux.DataBase64)
		if err != nil {
			return err
		}
		is.Data = decoded
	}
	return nil
}

//----------------------------------------------------------------
// ChatResponse - provider-unified result
//----------------------------------------------------------------

// ToolCallRequest is one tool invocation the model asked for. Input is
// kept as a textual JSON-shaped string: providers emit it fragmented
// during streaming, and final assembly happens before tool dispatch.
type ToolCallRequest struct {
	ID    string
	Name  string
	Input string
}

// StopReason mirrors the provider-supplied termination signal.
const (
	StopReasonEndTurn  = "end_turn"
	StopReasonToolUse  = "tool_use"
)

// ChatResponse is the provider-unified result of one model call.
type ChatResponse struct {
	Text         string
	ToolCalls    []ToolCallRequest
	StopReason   string
	InputTokens  int
	OutputTokens int
}

// NumTools reports how many tool calls this response carries.
func (r *ChatResponse) NumTools() int {
	if r == nil {
		return 0
	}
	return len(r.ToolCalls)
}

//----------------------------------------------------------------
// StreamChunk - one increment of a streaming response
//----------------------------------------------------------------

// StreamChunk is one increment of a streaming provider response.
type StreamChunk struct {
	TextDelta    string
	IsFinal      bool
	FinishReason string
	Response     *ChatResponse // populated only on the final chunk
	Err          error
}

//----------------------------------------------------------------
// Helper constructors
//----------------------------------------------------------------

// NewUserTextMessage builds a user message with a single text block.
func NewUserTextMessage(text string) Message {
	return Message{
		Role:      "user",
		Content:   []ContentBlock{{Type: "text", Text: text}},
		Timestamp: time.Now().Unix(),
	}
}

// NewAssistantTextMessage builds an assistant message with a single text block.
func NewAssistantTextMessage(text string) Message {
	return Message{
		Role:      "assistant",
		Content:   []ContentBlock{{Type: "text", Text: text}},
		Timestamp: time.Now().Unix(),
	}
}

// NewToolUseBlock builds a tool_use content block.
func NewToolUseBlock(id, name string, input jsoniter.RawMessage) ContentBlock {
	return ContentBlock{Type: "tool_use", ID: id, Name: name, Input: input}
}

// NewToolResultBlock builds a tool_result content block.
func NewToolResultBlock(toolUseID, output string) ContentBlock {
	return ContentBlock{Type: "tool_result", ToolUseID: toolUseID, Output: output}
}

// GetTextContent concatenates every text block in the message.
func (m *Message) GetTextContent() string {
	var out string
	for _, b := range m.Content {
		if b.Type == "text" {
			out += b.Text
		}
	}
	return out
}

// ToolUseBlocks returns every tool_use block in the message, in order.
func (m *Message) ToolUseBlocks() []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Content {
		if b.Type == "tool_use" {
			out = append(out, b)
		}
	}
	return out
}
