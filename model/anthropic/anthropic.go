// Package anthropic provides a core.ChatService wrapper for the Anthropic
// Claude Messages API.
package anthropic

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/model"
)

// Options configures the Anthropic chat service adapter (temperature, model
// id, max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model        anthropic.Model
	Temperature  float64
	MaxTokens    int64
	APIKey       string
	SystemPrompt string
	// Logger receives one record per model call (NoOp when nil).
	Logger logging.Logger
}

// ChatService wraps the Anthropic Messages API behind core.CompletionService.
type ChatService struct {
	client    *anthropic.Client
	opts      Options
	hasAPIKey bool
}

var (
	_ core.ChatService       = (*ChatService)(nil)
	_ core.CompletionService = (*ChatService)(nil)
)

// NewChatService creates a new Anthropic chat service using the official
// client. The API key comes from Options.APIKey or ANTHROPIC_API_KEY.
func NewChatService(optFns ...func(o *Options)) *ChatService {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &ChatService{
		client:    &client,
		opts:      opts,
		hasAPIKey: opts.APIKey != "" || os.Getenv("ANTHROPIC_API_KEY") != "",
	}
}

// NewChatServiceFromClient creates a new Anthropic chat service from an existing client.
func NewChatServiceFromClient(client *anthropic.Client, optFns ...func(o *Options)) *ChatService {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ChatService{client: client, opts: opts, hasAPIKey: true}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// GenerateText implements core.ChatService.
func (s *ChatService) GenerateText(ctx context.Context, prompt string, vars *core.Variables) (string, error) {
	c, err := s.Complete(ctx, prompt, vars)
	if err != nil {
		return "", err
	}
	return c.Text, nil
}

// Complete implements core.CompletionService. A "temperature" variable, when
// present and numeric, overrides the configured temperature for this call.
func (s *ChatService) Complete(ctx context.Context, prompt string, vars *core.Variables) (*core.Completion, error) {
	start := time.Now()
	c, err := s.complete(ctx, prompt, vars)
	tokens := 0
	if c != nil {
		tokens = c.Usage.TotalTokens
	}
	logging.ModelCall(s.opts.Logger, string(s.opts.Model), tokens, time.Since(start), err)
	return c, err
}

func (s *ChatService) complete(ctx context.Context, prompt string, vars *core.Variables) (*core.Completion, error) {
	params := anthropic.MessageNewParams{
		Model:       s.opts.Model,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		MaxTokens:   s.opts.MaxTokens,
		Temperature: anthropic.Float(model.Temperature(vars, s.opts.Temperature)),
	}
	if s.opts.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: s.opts.SystemPrompt}}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	in, out := int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens)

	return &core.Completion{
		Text:  sb.String(),
		Model: string(resp.Model),
		Usage: core.TokenUsage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
	}, nil
}

// IsServiceAvailable implements core.ChatService without calling the API.
func (s *ChatService) IsServiceAvailable(context.Context) bool {
	return s.client != nil && s.hasAPIKey
}
