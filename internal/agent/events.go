package agent

import (
	"encoding/json"

	"compilestrength/internal/api"
	"compilestrength/internal/usage"
)

type EventType string

const (
	EventText       EventType = "text"
	EventToolCall   EventType = "tool-call"
	EventToolResult EventType = "tool-result"
	EventToolError  EventType = "tool-error"
	EventError      EventType = "error"
	EventFinish     EventType = "finish"
)

const (
	FinishStop     = "stop"
	FinishMaxSteps = "max_steps"
	FinishError    = "error"
)

// UpstreamFailureMessage is what the user sees when the model provider fails.
const UpstreamFailureMessage = "I encountered an issue while generating your workout. Please try again."

// Event is one frame of the chat stream.
type Event struct {
	Type         EventType       `json:"type"`
	Text         string          `json:"text,omitempty"`
	ToolCallID   string          `json:"toolCallId,omitempty"`
	ToolName     string          `json:"toolName,omitempty"`
	Input        json.RawMessage `json:"input,omitempty"`
	Output       json.RawMessage `json:"output,omitempty"`
	Error        *ToolError      `json:"error,omitempty"`
	Message      string          `json:"message,omitempty"`
	FinishReason string          `json:"finishReason,omitempty"`
	Steps        int             `json:"steps,omitempty"`
}

type ToolErrorType string

const (
	ToolErrorValidation    ToolErrorType = "validation"
	ToolErrorQuotaExceeded ToolErrorType = "quota_exceeded"
	ToolErrorUnknownTool   ToolErrorType = "unknown_tool"
	ToolErrorUsage         ToolErrorType = "usage_unavailable"
	ToolErrorExecution     ToolErrorType = "execution"
)

// ToolError aborts a single tool call. The stream carries on.
type ToolError struct {
	Type    ToolErrorType         `json:"type"`
	Message string                `json:"message"`
	Issues  []api.ValidationError `json:"issues,omitempty"`
	Quota   *usage.Quota          `json:"quota,omitempty"`
}
