package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/petasbytes/toolchat/conversation"
	"github.com/petasbytes/toolchat/tools"
)

const DefaultOpenAIModel = "gpt-4o-mini"

type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxRetries  int
	// Extra is appended after the options derived from the fields above.
	Extra []option.RequestOption
}

// OpenAI talks to any Chat Completions compatible server.
type OpenAI struct {
	api         openai.Client
	model       string
	temperature float64
}

var _ Endpoint = (*OpenAI)(nil)

func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	cfg := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if base := normalizeBaseURL(opts.BaseURL); base != "" {
		cfg = append(cfg, option.WithBaseURL(base))
	}
	cfg = append(cfg, opts.Extra...)

	model := opts.Model
	if strings.TrimSpace(model) == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{
		api:         openai.NewClient(cfg...),
		model:       model,
		temperature: opts.Temperature,
	}, nil
}

func (c *OpenAI) Complete(ctx context.Context, req Request) (conversation.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    toChatMessages(req.Messages),
		Temperature: openai.Float(c.temperature),
	}
	if len(req.Tools) > 0 {
		chatTools, err := toChatTools(req.Tools)
		if err != nil {
			return conversation.Message{}, err
		}
		params.Tools = chatTools
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return conversation.Message{}, wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return conversation.Message{}, errors.New("no completion choices returned")
	}

	msg := resp.Choices[0].Message
	calls := make([]conversation.ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		id := tc.ID
		if strings.TrimSpace(id) == "" {
			id = "call_" + uuid.NewString()
		}
		args := strings.TrimSpace(tc.Function.Arguments)
		if args == "" {
			args = "{}"
		}
		calls = append(calls, conversation.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	return conversation.Assistant(msg.Content, calls...), nil
}

func toChatMessages(msgs []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case conversation.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case conversation.RoleAssistant:
			p := openai.AssistantMessage(m.Content)
			for _, c := range m.ToolCalls {
				p.OfAssistant.ToolCalls = append(p.OfAssistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: c.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      c.Name,
							Arguments: string(c.Arguments),
						},
					},
				})
			}
			out = append(out, p)
		case conversation.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func toChatTools(defs []tools.ToolDefinition) ([]openai.ChatCompletionToolUnionParam, error) {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(defs))
	for _, d := range defs {
		params, err := tools.SchemaMap(d.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("schema for %s: %w", d.Name, err)
		}
		fn := openai.FunctionDefinitionParam{
			Name:       d.Name,
			Parameters: openai.FunctionParameters(params),
		}
		if desc := strings.TrimSpace(d.Description); desc != "" {
			fn.Description = openai.String(desc)
		}
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{Function: fn},
		})
	}
	return out, nil
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		if raw := strings.TrimSpace(apiErr.RawJSON()); raw != "" {
			return fmt.Errorf("http_%d: %s: %w", apiErr.StatusCode, raw, err)
		}
		return fmt.Errorf("http_%d: %w", apiErr.StatusCode, err)
	}
	return err
}
