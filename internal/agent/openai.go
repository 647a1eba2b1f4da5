package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"

	"compilestrength/internal/logger"
)

const maxOpenRetries = 3

// OpenAIModel streams chat completions from any OpenAI-compatible endpoint.
type OpenAIModel struct {
	client     *openai.Client
	model      string
	newBackOff func() backoff.BackOff
}

func NewOpenAIModel(apiKey, baseURL, model string, timeout time.Duration) *OpenAIModel {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &OpenAIModel{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 20 * time.Second
			return b
		},
	}
}

// Stream opens a completion stream, retrying rate limits and server errors.
// Failures after the stream is open are returned from Recv and not retried.
func (m *OpenAIModel) Stream(ctx context.Context, req Request) (Stream, error) {
	creq := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: toOpenAIMessages(req),
		Tools:    toOpenAITools(req),
		Stream:   true,
	}

	var stream *openai.ChatCompletionStream
	op := func() error {
		s, err := m.client.CreateChatCompletionStream(ctx, creq)
		if err != nil {
			if retryable(err) {
				logger.Warn("model stream open failed, retrying", "error", err)
				return err
			}
			return backoff.Permanent(err)
		}
		stream = s
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(m.newBackOff(), maxOpenRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("open model stream: %w", err)
	}

	return &openAIStream{stream: stream}, nil
}

func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return false
}

func toOpenAIMessages(req Request) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}

	for _, msg := range req.Messages {
		m := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		out = append(out, m)
	}
	return out
}

func toOpenAITools(req Request) []openai.Tool {
	out := make([]openai.Tool, 0, len(req.Tools))
	for _, def := range req.Tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        string(def.Name),
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	return out
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIStream) Recv() (Delta, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return Delta{}, io.EOF
		}
		if err != nil {
			return Delta{}, err
		}
		if len(resp.Choices) == 0 {
			continue
		}

		choice := resp.Choices[0]
		d := Delta{
			Text:         choice.Delta.Content,
			FinishReason: string(choice.FinishReason),
		}
		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			d.ToolCalls = append(d.ToolCalls, ToolCallDelta{
				Index:     idx,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		return d, nil
	}
}

func (s *openAIStream) Close() error {
	s.stream.Close()
	return nil
}
