package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"compilestrength/internal/logger"
	"compilestrength/internal/metrics"
	"compilestrength/internal/tools"
	"compilestrength/internal/usage"
)

const DefaultMaxSteps = 10

// Meter consumes one unit of a usage counter for a user.
type Meter interface {
	IncrementForUser(ctx context.Context, kind usage.Kind, userID int) (*usage.Quota, error)
}

// Emit writes one event to the client. A non-nil error stops the run.
type Emit func(Event) error

type Runner struct {
	model    Model
	registry *tools.Registry
	meter    Meter
	maxSteps int
}

func NewRunner(model Model, registry *tools.Registry, meter Meter, maxSteps int) *Runner {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Runner{
		model:    model,
		registry: registry,
		meter:    meter,
		maxSteps: maxSteps,
	}
}

// Run drives the model until it stops calling tools or the step bound is hit.
// Model failures end the stream with an error frame followed by finish; Run
// only returns an error when emit fails or ctx is cancelled. Tool side
// effects that completed before cancellation are kept.
func (r *Runner) Run(ctx context.Context, userID int, system string, history []Message, emit Emit) error {
	msgs := append([]Message(nil), history...)
	defs := r.registry.Definitions()

	for step := 1; step <= r.maxSteps; step++ {
		stream, err := r.model.Stream(ctx, Request{System: system, Messages: msgs, Tools: defs})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return r.fail(emit, "open", step, err)
		}

		text, calls, err := r.consume(stream, emit)
		stream.Close()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var emitErr *emitError
			if errors.As(err, &emitErr) {
				return emitErr.err
			}
			return r.fail(emit, "recv", step, err)
		}

		if len(calls) == 0 {
			metrics.RecordAgentSteps(step)
			return emit(Event{Type: EventFinish, FinishReason: FinishStop, Steps: step})
		}

		msgs = append(msgs, Message{Role: RoleAssistant, Content: text, ToolCalls: calls})
		for _, call := range calls {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(Event{Type: EventToolCall, ToolCallID: call.ID, ToolName: call.Name, Input: eventInput(call.Arguments)}); err != nil {
				return err
			}

			ev := r.invoke(ctx, userID, call)
			if err := emit(ev); err != nil {
				return err
			}
			msgs = append(msgs, Message{Role: RoleTool, ToolCallID: call.ID, Content: toolContent(ev)})
		}
	}

	metrics.RecordAgentSteps(r.maxSteps)
	return emit(Event{Type: EventFinish, FinishReason: FinishMaxSteps, Steps: r.maxSteps})
}

type emitError struct {
	err error
}

func (e *emitError) Error() string { return e.err.Error() }

type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

// consume forwards text deltas as they arrive and assembles tool calls by index.
func (r *Runner) consume(stream Stream, emit Emit) (string, []ToolCall, error) {
	var text strings.Builder
	pending := map[int]*pendingCall{}

	for {
		d, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, err
		}

		if d.Text != "" {
			text.WriteString(d.Text)
			if err := emit(Event{Type: EventText, Text: d.Text}); err != nil {
				return "", nil, &emitError{err: err}
			}
		}

		for _, tc := range d.ToolCalls {
			p, ok := pending[tc.Index]
			if !ok {
				p = &pendingCall{}
				pending[tc.Index] = p
			}
			if tc.ID != "" {
				p.id = tc.ID
			}
			if tc.Name != "" {
				p.name = tc.Name
			}
			p.args.WriteString(tc.Arguments)
		}
	}

	indexes := make([]int, 0, len(pending))
	for i := range pending {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	calls := make([]ToolCall, 0, len(indexes))
	for _, i := range indexes {
		p := pending[i]
		id := p.id
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		calls = append(calls, ToolCall{ID: id, Name: p.name, Arguments: callArguments(p.args.String())})
	}
	return text.String(), calls, nil
}

// callArguments is the argument text exactly as the model produced it, so the
// replayed history matches the model's own output. Empty text becomes {}.
func callArguments(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(s)
}

// eventInput quotes malformed argument text so events that embed it still
// encode as JSON.
func eventInput(args json.RawMessage) json.RawMessage {
	if json.Valid(args) {
		return args
	}
	quoted, _ := json.Marshal(string(args))
	return quoted
}

// invoke validates, meters and executes one call, in that order.
func (r *Runner) invoke(ctx context.Context, userID int, call ToolCall) Event {
	ev := Event{ToolCallID: call.ID, ToolName: call.Name}

	inv, err := r.registry.Bind(call.Name, call.Arguments)
	if err != nil {
		var invalid *tools.InvalidInputError
		switch {
		case errors.As(err, &invalid):
			metrics.RecordToolCall(call.Name, "invalid")
			return toolError(ev, &ToolError{Type: ToolErrorValidation, Message: "Invalid tool input", Issues: invalid.Issues})
		case errors.Is(err, tools.ErrUnknownTool):
			metrics.RecordToolCall("unknown", "unknown")
			return toolError(ev, &ToolError{Type: ToolErrorUnknownTool, Message: err.Error()})
		default:
			metrics.RecordToolCall(call.Name, "error")
			return toolError(ev, &ToolError{Type: ToolErrorExecution, Message: err.Error()})
		}
	}

	if inv.Meter != "" && r.meter != nil {
		if _, err := r.meter.IncrementForUser(ctx, inv.Meter, userID); err != nil {
			var exceeded *usage.QuotaExceededError
			if errors.As(err, &exceeded) {
				metrics.RecordToolCall(call.Name, "quota_exceeded")
				return toolError(ev, &ToolError{
					Type:    ToolErrorQuotaExceeded,
					Message: fmt.Sprintf("Weekly %s limit reached", inv.Meter),
					Quota:   exceeded.Quota,
				})
			}
			logger.Error("tool metering failed", "tool", call.Name, "user_id", userID, "error", err)
			metrics.RecordToolCall(call.Name, "error")
			return toolError(ev, &ToolError{Type: ToolErrorUsage, Message: "Usage could not be recorded"})
		}
	}

	out, err := inv.Execute()
	if err != nil {
		metrics.RecordToolCall(call.Name, "error")
		return toolError(ev, &ToolError{Type: ToolErrorExecution, Message: err.Error()})
	}

	data, err := json.Marshal(out)
	if err != nil {
		metrics.RecordToolCall(call.Name, "error")
		return toolError(ev, &ToolError{Type: ToolErrorExecution, Message: err.Error()})
	}

	metrics.RecordToolCall(call.Name, "ok")
	ev.Type = EventToolResult
	ev.Output = data
	return ev
}

func toolError(ev Event, te *ToolError) Event {
	ev.Type = EventToolError
	ev.Error = te
	return ev
}

// toolContent is what the model sees as the tool's reply.
func toolContent(ev Event) string {
	if ev.Type == EventToolResult {
		return string(ev.Output)
	}
	data, _ := json.Marshal(map[string]any{"error": ev.Error})
	return string(data)
}

func (r *Runner) fail(emit Emit, stage string, step int, err error) error {
	logger.Error("model stream failed", "stage", stage, "step", step, "error", err)
	metrics.RecordModelError(stage)

	if err := emit(Event{Type: EventError, Message: UpstreamFailureMessage}); err != nil {
		return err
	}
	return emit(Event{Type: EventFinish, FinishReason: FinishError, Steps: step})
}
