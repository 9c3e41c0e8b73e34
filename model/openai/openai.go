// Package openai provides core.ChatService, core.CompletionService and
// core.Embedder implementations backed by the OpenAI API (Chat Completions
// and Embeddings) through the official SDK.
package openai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configure the OpenAI chat service adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// SystemPrompt is sent as a system message ahead of every prompt when set.
	SystemPrompt string
	APIKey       string
	// Logger receives one record per model call (NoOp when nil).
	Logger logging.Logger
}

// ChatService wraps the OpenAI Chat Completions API behind core.CompletionService.
type ChatService struct {
	client    *openai.Client
	opts      Options
	hasAPIKey bool
}

var (
	_ core.ChatService       = (*ChatService)(nil)
	_ core.CompletionService = (*ChatService)(nil)
)

// NewChatService creates a new OpenAI chat service using the official client.
// The API key comes from Options.APIKey or the OPENAI_API_KEY environment
// variable.
func NewChatService(optFns ...func(o *Options)) *ChatService {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)

	return &ChatService{
		client:    &client,
		opts:      opts,
		hasAPIKey: opts.APIKey != "" || os.Getenv("OPENAI_API_KEY") != "",
	}
}

// NewChatServiceFromClient creates a new OpenAI chat service from an existing client.
func NewChatServiceFromClient(client *openai.Client, optFns ...func(o *Options)) *ChatService {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ChatService{client: client, opts: opts, hasAPIKey: true}
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
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
	logging.ModelCall(s.opts.Logger, s.opts.Model, tokens, time.Since(start), err)
	return c, err
}

func (s *ChatService) complete(ctx context.Context, prompt string, vars *core.Variables) (*core.Completion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if s.opts.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(s.opts.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               s.opts.Model,
		Temperature:         openai.Float(model.Temperature(vars, s.opts.Temperature)),
		MaxCompletionTokens: openai.Int(s.opts.MaxCompletionTokens),
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat completion: no choices returned")
	}

	return &core.Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
		Usage: core.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// IsServiceAvailable implements core.ChatService. It reports whether a
// client exists and an API key is configured; it does not call the API.
func (s *ChatService) IsServiceAvailable(context.Context) bool {
	return s.client != nil && s.hasAPIKey
}

// EmbedderOptions configure the OpenAI embedder.
type EmbedderOptions struct {
	Model  string
	APIKey string
	// Dimensions truncates embeddings when the model supports it (0 keeps the default).
	Dimensions int64
}

// Embedder implements core.Embedder using the OpenAI Embeddings API.
type Embedder struct {
	client *openai.Client
	opts   EmbedderOptions
}

var _ core.Embedder = (*Embedder)(nil)

// NewEmbedder creates an OpenAI embedder using the official client.
func NewEmbedder(optFns ...func(o *EmbedderOptions)) *Embedder {
	opts := EmbedderOptions{Model: openai.EmbeddingModelTextEmbedding3Small}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)

	return &Embedder{client: &client, opts: opts}
}

// NewEmbedderFromClient creates an OpenAI embedder from an existing client.
func NewEmbedderFromClient(client *openai.Client, optFns ...func(o *EmbedderOptions)) *Embedder {
	opts := EmbedderOptions{Model: openai.EmbeddingModelTextEmbedding3Small}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Embedder{client: client, opts: opts}
}

// Embed implements core.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	params := openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model:          e.opts.Model,
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if e.opts.Dimensions > 0 {
		params.Dimensions = openai.Int(e.opts.Dimensions)
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}

	return append([]float64(nil), resp.Data[0].Embedding...), nil
}
