package chatprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// hostForModel resolves an OpenAI-shape backend's base URL purely from the
// model string ("OpenAI, Groq, Cerebras, xAI via host selection on model
// string"). Request.BaseURL always wins when set; this is only a fallback
// for callers that didn't configure one.
func hostForModel(model string) string {
	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "grok"):
		return "https://api.x.ai/v1"
	case strings.Contains(lower, "cerebras"):
		return "https://api.cerebras.ai/v1"
	case strings.HasSuffix(lower, "-groq") || strings.Contains(lower, "groq"):
		return "https://api.groq.com/openai/v1"
	case strings.HasPrefix(lower, "llama") || strings.HasPrefix(lower, "mixtral") || strings.HasPrefix(lower, "qwen"):
		// Open-weight models default to Ollama's local OpenAI-compatible endpoint.
		return "http://localhost:11434/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// OpenAIShapeClient drives any backend that speaks the OpenAI chat-completions
// wire format: OpenAI itself, Groq, Cerebras, xAI, Ollama, and OpenRouter.
// The wire format is fixed by the provider's own API, not by us, so this
// client talks JSON-over-HTTP directly rather than through a vendor SDK —
// see DESIGN.md for the grounding of that choice.
type OpenAIShapeClient struct {
	httpClient  *http.Client
	defaultKeyEnv string
}

// NewOpenAIShapeClient builds a client with the given retry policy and the
// environment variable consulted when a request doesn't carry an API key
// (e.g. "OPENAI_API_KEY").
func NewOpenAIShapeClient(cfg RetryConfig, defaultKeyEnv string) *OpenAIShapeClient {
	return &OpenAIShapeClient{
		httpClient:    NewHTTPClientWithRetry(cfg),
		defaultKeyEnv: defaultKeyEnv,
	}
}

type wireMessage struct {
	Role       string          `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall  `json:"tool_calls,omitempty"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

type wireToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type wireRequest struct {
	Model          string        `json:"model"`
	Messages       []wireMessage `json:"messages"`
	Tools          []wireTool    `json:"tools,omitempty"`
	ToolChoice     string        `json:"tool_choice,omitempty"`
	Temperature    *float64      `json:"temperature,omitempty"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *wireRespFmt  `json:"response_format,omitempty"`
	Stream         bool          `json:"stream"`
}

type wireRespFmt struct {
	Type string `json:"type"`
}

type wireResponse struct {
	ID      string `json:"id"`
	Usage   *Usage `json:"usage,omitempty"`
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error,omitempty"`
}

// Chat implements Provider for any OpenAI-shape backend.
func (c *OpenAIShapeClient) Chat(ctx context.Context, req Request) (*Response, error) {
	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = hostForModel(req.Model)
	}

	body := wireRequest{
		Model:       req.Model,
		Messages:    make([]wireMessage, 0, len(req.Messages)),
		ToolChoice:  req.ToolChoice,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
	if req.ResponseFormat != "" {
		body.ResponseFormat = &wireRespFmt{Type: req.ResponseFormat}
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, wireMessage{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID})
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, wireTool{Type: "function", Function: wireFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters}})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Reason: ReasonRequestFailed, Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(baseURL, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Reason: ReasonRequestFailed, Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	apiKey := req.APIKey
	if apiKey == "" && c.defaultKeyEnv != "" {
		apiKey = os.Getenv(c.defaultKeyEnv)
	}
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &Error{Reason: ReasonTimeout, Cause: err}
		}
		return nil, &Error{Reason: ReasonRequestFailed, Cause: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Reason: ReasonInvalidResponse, Cause: err}
	}

	var wr wireResponse
	if err := json.Unmarshal(data, &wr); err != nil {
		return nil, &Error{Reason: ReasonInvalidResponse, Cause: fmt.Errorf("decode response: %w", err)}
	}

	if wr.Error != nil {
		reason := ReasonRequestFailed
		if httpResp.StatusCode == http.StatusNotFound || wr.Error.Type == "model_not_found" {
			reason = ReasonModelUnavailable
		}
		return nil, &Error{Reason: reason, Cause: errors.New(wr.Error.Message)}
	}

	resp := &Response{ID: wr.ID, Usage: wr.Usage}
	for _, ch := range wr.Choices {
		msg := Message{Role: Role(ch.Message.Role), Content: ch.Message.Content}
		for _, tc := range ch.Message.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
		}
		resp.Choices = append(resp.Choices, Choice{Message: msg})
	}

	return resp, nil
}

// WithTimeout returns a context bounded by d: each chat request has its
// own timeout.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}
