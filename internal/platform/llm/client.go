package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Generator produces a model reply for a message history. Implementations
// must be safe for sequential reuse within a session; calls block until the
// reply arrives, the context expires, or the request fails.
type Generator interface {
	Generate(ctx context.Context, system string, history []Message, tools []ToolSpec) (*Reply, error)
}

// RequestError is a typed failure from the model API. The conversation agent
// downgrades it to user-visible text; it never terminates a session.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm request failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm request failed: %s", e.Message)
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a chat-completions client. timeout bounds each request;
// callers may additionally pass a shorter-lived context.
func NewClient(baseURL, apiKey, model string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "llm").Logger(),
	}
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireToolSpec `json:"function"`
}

type wireToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []wireTool    `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// Generate
// ---------------------------------------------------------------------------

// Generate sends the system instruction, history, and tool declarations and
// returns the model's reply.
func (c *Client) Generate(ctx context.Context, system string, history []Message, tools []ToolSpec) (*Reply, error) {
	req := chatRequest{Model: c.model}

	if system != "" {
		req.Messages = append(req.Messages, wireMessage{Role: RoleSystem, Content: system})
	}
	for _, m := range history {
		req.Messages = append(req.Messages, toWire(m))
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, wireTool{
			Type: "function",
			Function: wireToolSpec{
				Name:        t.Name,
				Description: t.Description,
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{"type": "string"},
					},
					"required": []string{"query"},
				},
			},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		var parsed chatResponse
		if json.Unmarshal(data, &parsed) == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, &RequestError{StatusCode: resp.StatusCode, Message: msg}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &RequestError{Message: "response contained no choices"}
	}

	reply, err := fromWire(parsed.Choices[0].Message)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Dur("latency", time.Since(start)).
		Int("tool_calls", len(reply.ToolCalls)).
		Msg("chat completion")
	return reply, nil
}

func toWire(m Message) wireMessage {
	wm := wireMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
	for _, tc := range m.ToolCalls {
		args, _ := json.Marshal(map[string]string{"query": tc.Query})
		wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
			ID:       tc.ID,
			Type:     "function",
			Function: wireFunction{Name: tc.Name, Arguments: string(args)},
		})
	}
	return wm
}

func fromWire(wm wireMessage) (*Reply, error) {
	reply := &Reply{Content: wm.Content}
	for _, tc := range wm.ToolCalls {
		var args struct {
			Query string `json:"query"`
		}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, &RequestError{Message: fmt.Sprintf("decode tool call arguments: %v", err)}
			}
		}
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Query: args.Query,
		})
	}
	return reply, nil
}
