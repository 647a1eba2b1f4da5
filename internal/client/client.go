package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"compilestrength/internal/agent"
	"compilestrength/internal/api"
	"compilestrength/internal/routine"
)

const maxEventSize = 1 << 20

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrQuotaExceeded = errors.New("usage limit reached")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Kind       string
	Details    []api.ValidationError
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("api error %d: %s (%d field errors)", e.StatusCode, e.Message, len(e.Details))
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrQuotaExceeded:
		return e.StatusCode == http.StatusPaymentRequired
	}
	return false
}

type Client struct {
	baseURL    string
	token      string
	http       *http.Client
	newBackOff func() backoff.BackOff
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxElapsedTime = 15 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Messages  []agent.Message `json:"messages"`
	AgentType string          `json:"agentType"`
}

// Chat posts the conversation and calls handle for every streamed event.
// Cancelling ctx aborts the stream.
func (c *Client) Chat(ctx context.Context, messages []agent.Message, agentType string, handle func(agent.Event) error) error {
	body, err := json.Marshal(chatRequest{Messages: messages, AgentType: agentType})
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/chat", body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	return readEvents(resp.Body, handle)
}

// readEvents decodes a server-sent event stream. Only data lines are used;
// the payload carries its own type.
func readEvents(r io.Reader, handle func(agent.Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)

	var data strings.Builder
	flush := func() error {
		if data.Len() == 0 {
			return nil
		}
		var ev agent.Event
		err := json.Unmarshal([]byte(data.String()), &ev)
		data.Reset()
		if err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		return handle(ev)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return flush()
}

type saveRoutineRequest struct {
	Routine routine.Routine `json:"routine"`
}

type saveRoutineResponse struct {
	ProgramID int `json:"programId"`
}

// SaveRoutine persists r as a program. Saves are idempotent by routine name
// on the server, so transport failures and 5xx responses are retried.
func (c *Client) SaveRoutine(ctx context.Context, r routine.Routine) (int, error) {
	body, err := json.Marshal(saveRoutineRequest{Routine: r})
	if err != nil {
		return 0, err
	}

	var out saveRoutineResponse
	op := func() error {
		req, err := c.newRequest(ctx, http.MethodPost, "/save-routine", body)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return decodeError(resp)
		}
		if resp.StatusCode >= 300 {
			return backoff.Permanent(decodeError(resp))
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode save response: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return 0, err
	}
	return out.ProgramID, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login exchanges credentials for an access token and keeps it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", body)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	c.token = out.AccessToken
	return out.AccessToken, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error   string                `json:"error"`
		Kind    string                `json:"kind"`
		Details []api.ValidationError `json:"details"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    body.Error,
		Kind:       body.Kind,
		Details:    body.Details,
	}
}
