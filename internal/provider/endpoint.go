// Package provider adapts chat-completion APIs to the conversation model.
//
// Each adapter converts the full history and tool schemas into one request
// and the reply into a single assistant message. Tool call ids from the
// service are passed through unchanged.
package provider

import (
	"context"
	"fmt"

	"github.com/petasbytes/toolchat/conversation"
	"github.com/petasbytes/toolchat/internal/config"
	"github.com/petasbytes/toolchat/tools"
)

// Request is one model invocation.
type Request struct {
	Messages []conversation.Message
	Tools    []tools.ToolDefinition
}

// Endpoint returns the assistant turn for a request. The message either
// carries tool calls or is the final answer.
type Endpoint interface {
	Complete(ctx context.Context, req Request) (conversation.Message, error)
}

// EndpointFunc lets a plain function serve as an Endpoint.
type EndpointFunc func(ctx context.Context, req Request) (conversation.Message, error)

func (f EndpointFunc) Complete(ctx context.Context, req Request) (conversation.Message, error) {
	return f(ctx, req)
}

// New builds the endpoint selected by cfg.Provider.
func New(cfg config.Config) (Endpoint, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c, err := NewOpenAI(OpenAIOptions{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxRetries:  cfg.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderAnthropic:
		c, err := NewAnthropic(AnthropicOptions{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			MaxRetries:  cfg.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}
