package chatprovider

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient drives the native Anthropic Messages API, mapped to this
// package's provider-agnostic Request/Response shape.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient builds a client. apiKey/baseURL fall back to the SDK's
// own environment-variable defaults when empty.
func NewAnthropicClient(apiKey, baseURL string) *AnthropicClient {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...)}
}

func (a *AnthropicClient) Chat(ctx context.Context, req Request) (*Response, error) {
	var system string
	var messages []anthropic.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = m.Content
		case RoleUser, RoleTool:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{Properties: t.Parameters},
			},
		})
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &Error{Reason: ReasonRequestFailed, Cause: err}
	}
	if msg == nil {
		return nil, &Error{Reason: ReasonInvalidResponse, Cause: errors.New("nil message returned")}
	}

	out := &Response{
		ID: msg.ID,
		Usage: &Usage{
			PromptTokens:     msg.Usage.InputTokens,
			CompletionTokens: msg.Usage.OutputTokens,
			TotalTokens:      msg.Usage.InputTokens + msg.Usage.OutputTokens,
		},
	}

	var text string
	var toolCalls []ToolCall
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += variant.Text
		case anthropic.ToolUseBlock:
			args, _ := json.Marshal(variant.Input)
			toolCalls = append(toolCalls, ToolCall{ID: variant.ID, Name: variant.Name, Arguments: string(args)})
		}
	}

	out.Choices = []Choice{{Message: Message{Role: RoleAssistant, Content: text, ToolCalls: toolCalls}}}
	return out, nil
}
