package model

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/hupe1980/agentkernel/core"
	"gonum.org/v1/gonum/floats"
)

// Info contains metadata about a service implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// MockChatService is a lightweight in-memory ChatService useful for tests &
// examples. It answers registered prompts verbatim, everything else with
// "Mock response to: <prompt>", and records every prompt it receives.
type MockChatService struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	prompts   []string
	err       error
	available bool
}

var (
	_ core.ChatService       = (*MockChatService)(nil)
	_ core.CompletionService = (*MockChatService)(nil)
)

// NewMockChatService constructs an available MockChatService.
func NewMockChatService(name string) *MockChatService {
	return &MockChatService{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
		available: true,
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockChatService) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetError makes every subsequent generation fail with err (nil clears it).
func (m *MockChatService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetAvailable toggles the value IsServiceAvailable reports.
func (m *MockChatService) SetAvailable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = ok
}

// Prompts returns the prompts received so far in call order.
func (m *MockChatService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Info returns information about the service.
func (m *MockChatService) Info() Info { return m.info }

// GenerateText implements core.ChatService.
func (m *MockChatService) GenerateText(ctx context.Context, prompt string, vars *core.Variables) (string, error) {
	c, err := m.Complete(ctx, prompt, vars)
	if err != nil {
		return "", err
	}
	return c.Text, nil
}

// Complete implements core.CompletionService. Token counts are whitespace
// separated word counts.
func (m *MockChatService) Complete(ctx context.Context, prompt string, _ *core.Variables) (*core.Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return nil, m.err
	}

	text, ok := m.responses[prompt]
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", prompt)
	}

	in, out := len(strings.Fields(prompt)), len(strings.Fields(text))
	return &core.Completion{
		Text:  text,
		Model: m.info.Name,
		Usage: core.TokenUsage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
	}, nil
}

// IsServiceAvailable implements core.ChatService.
func (m *MockChatService) IsServiceAvailable(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// HashEmbedder is a deterministic bag-of-words Embedder. Each lower-cased
// word is hashed into one of Dimensions buckets and the vector is L2
// normalised, so texts sharing words have positive cosine similarity. It
// needs no network and suits tests and examples.
type HashEmbedder struct {
	Dimensions int
}

var _ core.Embedder = HashEmbedder{}

// NewHashEmbedder returns a HashEmbedder with dims buckets (64 when dims <= 0).
func NewHashEmbedder(dims int) HashEmbedder {
	if dims <= 0 {
		dims = 64
	}
	return HashEmbedder{Dimensions: dims}
}

// Embed implements core.Embedder.
func (e HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dims := e.Dimensions
	if dims <= 0 {
		dims = 64
	}

	vec := make([]float64, dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%uint32(dims)]++
	}

	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec, nil
}
