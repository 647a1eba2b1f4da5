package agent

import (
	"context"
	"encoding/json"

	"compilestrength/internal/tools"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type Message struct {
	Role       Role       `json:"role" binding:"required,oneof=user assistant tool"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
}

type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Request is one model turn: the system prompt, the conversation so far and
// the tools the model may call.
type Request struct {
	System   string
	Messages []Message
	Tools    []tools.Definition
}

// Delta is one streamed fragment. Tool call fragments with the same Index
// belong to the same call; Arguments arrive as partial JSON text.
type Delta struct {
	Text         string
	ToolCalls    []ToolCallDelta
	FinishReason string
}

type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// Stream yields deltas until Recv returns io.EOF.
type Stream interface {
	Recv() (Delta, error)
	Close() error
}

type Model interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}
