package core

import "context"

// ChatService is the text-generation capability prompt functions hand their
// rendered template to. Implementations live outside the core (see the
// model packages); the kernel holds at most one at a time.
type ChatService interface {
	// GenerateText returns the completion for prompt. vars is the
	// invocation's context bag, passed for services that want extra
	// settings (e.g. a per-call temperature).
	GenerateText(ctx context.Context, prompt string, vars *Variables) (string, error)

	// IsServiceAvailable reports whether the service is configured well
	// enough to be called (credentials present, client constructed).
	IsServiceAvailable(ctx context.Context) bool
}

// TokenUsage captures token usage statistics for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is a generated text together with its accounting data.
type Completion struct {
	Text  string     `json:"text"`
	Model string     `json:"model,omitempty"`
	Usage TokenUsage `json:"usage"`
}

// CompletionService is an optional extension of ChatService. When the
// configured service implements it, prompt functions record the token usage
// on their Result.
type CompletionService interface {
	ChatService
	Complete(ctx context.Context, prompt string, vars *Variables) (*Completion, error)
}

// Embedder turns text into an embedding vector. Memory stores use it to
// derive vectors for records and queries that arrive without one.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
