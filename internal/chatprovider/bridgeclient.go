package chatprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openagents/harness/internal/chatprovider/fmbridge"
)

// BridgeClient drives the local Foundation-Model bridge: a tiny single-turn
// worker that takes a fixed-shape prompt (tool list, truncated context, a
// summary of the previous step) and returns one tool call. Unlike the
// OpenAI-shape and Anthropic backends it has no multi-turn conversation or
// streaming wire format of its own, so Chat collapses the request down to
// that shape before calling it and parses the reply back up into Response.
type BridgeClient struct {
	httpClient *http.Client
	bridgeCfg  fmbridge.Config
}

// NewBridgeClient builds a client that starts (if needed) and talks to the
// bridge described by bridgeCfg, retrying transient HTTP failures per
// retryCfg.
func NewBridgeClient(bridgeCfg fmbridge.Config, retryCfg RetryConfig) *BridgeClient {
	return &BridgeClient{
		httpClient: NewHTTPClientWithRetry(retryCfg),
		bridgeCfg:  bridgeCfg,
	}
}

type bridgeGenerateRequest struct {
	Prompt string `json:"prompt"`
}

type bridgeGenerateResponse struct {
	Completion string `json:"completion"`
}

// Chat implements Provider against the local bridge. It ensures the bridge
// process is up, builds the tiny fixed-shape prompt from req, posts it to
// "/generate", and parses the raw completion into a single ToolCall choice.
func (c *BridgeClient) Chat(ctx context.Context, req Request) (*Response, error) {
	if err := fmbridge.EnsureRunning(ctx, c.bridgeCfg); err != nil {
		return nil, translateBridgeError(err)
	}

	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = c.bridgeCfg.BaseURL
	}
	if baseURL == "" {
		baseURL = "http://localhost:8181"
	}

	prompt := buildBridgePrompt(req)

	payload, err := json.Marshal(bridgeGenerateRequest{Prompt: prompt})
	if err != nil {
		return nil, &Error{Reason: ReasonRequestFailed, Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(baseURL, "/")+"/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Reason: ReasonRequestFailed, Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
	if httpResp.StatusCode != http.StatusOK {
		return nil, &Error{Reason: ReasonRequestFailed, Cause: fmt.Errorf("bridge /generate returned %d", httpResp.StatusCode)}
	}

	var gen bridgeGenerateResponse
	if err := json.Unmarshal(data, &gen); err != nil {
		return nil, &Error{Reason: ReasonInvalidResponse, Cause: fmt.Errorf("decode bridge response: %w", err)}
	}

	tc, perr := fmbridge.ParseToolCall(gen.Completion)
	if perr != nil {
		return nil, &Error{Reason: ReasonInvalidResponse, Cause: fmt.Errorf("%s: %s", perr.Reason, perr.Details)}
	}

	args, err := json.Marshal(tc.Arguments)
	if err != nil {
		return nil, &Error{Reason: ReasonInvalidResponse, Cause: err}
	}

	return &Response{
		Choices: []Choice{{
			Message: Message{
				Role:      RoleAssistant,
				ToolCalls: []ToolCall{{Name: tc.Name, Arguments: string(args)}},
			},
		}},
	}, nil
}

// buildBridgePrompt collapses a multi-turn Request down into the bridge's
// tiny fixed-shape prompt: the advertised tool names, the truncated
// conversation as context, and the last message as the previous-step
// summary when it came from the assistant or a tool result.
func buildBridgePrompt(req Request) string {
	tools := make([]string, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, t.Name)
	}

	fmMessages := make([]fmbridge.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		fmMessages = append(fmMessages, fmbridge.Message{Role: string(m.Role), Content: m.Content})
	}
	truncated := fmbridge.TruncateContext(fmMessages, fmbridge.DefaultCharBudget)

	var previousStepSummary string
	contextMessages := truncated
	if n := len(truncated); n > 0 {
		last := truncated[n-1]
		if last.Role == string(RoleAssistant) || last.Role == string(RoleTool) {
			previousStepSummary = last.Content
			contextMessages = truncated[:n-1]
		}
	}

	var ctxBuilder strings.Builder
	for i, m := range contextMessages {
		if i > 0 {
			ctxBuilder.WriteByte(' ')
		}
		ctxBuilder.WriteString(m.Role)
		ctxBuilder.WriteByte(':')
		ctxBuilder.WriteString(m.Content)
	}

	return fmbridge.BuildPrompt(tools, previousStepSummary, ctxBuilder.String())
}

func translateBridgeError(err error) error {
	var be *fmbridge.BridgeError
	if !errors.As(err, &be) {
		return &Error{Reason: ReasonRequestFailed, Cause: err}
	}
	switch be.Reason {
	case fmbridge.ErrNotMacOS:
		return &Error{Reason: ReasonNotMacOS, Cause: be}
	case fmbridge.ErrBridgeNotFound:
		return &Error{Reason: ReasonBridgeNotFound, Cause: be}
	case fmbridge.ErrServerNotRunning:
		return &Error{Reason: ReasonServerNotRunning, Cause: be}
	default:
		return &Error{Reason: ReasonRequestFailed, Cause: be}
	}
}
