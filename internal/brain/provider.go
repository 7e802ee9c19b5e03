package brain

import (
	"context"
	"encoding/json"
)

// Provider abstracts the AI API (Claude, Gemini, etc.).
type Provider interface {
	Send(ctx context.Context, systemPrompt string, history []Message, tools []Tool) (*Response, error)
}

// Message is a provider-agnostic conversation turn.
type Message struct {
	Role        string       // "user", "assistant"
	Text        string       // text content (may be empty if only tool calls/results)
	Images      []Image      // user → attached pictures
	ToolCalls   []ToolCall   // assistant → tool invocations
	ToolResults []ToolResult // user → tool outputs
}

// Image is raw picture data attached to a user turn.
type Image struct {
	Data      []byte
	MediaType string
}

// Tool is a parameterless function the model may call.
type Tool struct {
	Name        string
	Description string
}

// ToolCall is a request from the model to invoke a tool.
type ToolCall struct {
	ID    string          // provider-assigned ID (Gemini uses function name)
	Name  string          // tool/function name
	Input json.RawMessage // JSON arguments
}

// ToolResult is the output of a tool invocation sent back to the model.
type ToolResult struct {
	ID      string // matches ToolCall.ID
	Name    string // tool name, needed by Gemini function responses
	Content string
	IsError bool
}

// Response is what a provider returns from a single Send() call.
type Response struct {
	Text      string     // text output (may be empty if tool calls)
	ToolCalls []ToolCall // non-empty means the model wants to use tools
	Done      bool       // true if the model is finished (no more tool calls)
}
