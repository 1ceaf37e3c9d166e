package ai

import (
	"context"
)

// CompletionRequest is one chat-completion call. Callers pick the model per
// call; the provider owns the transport and credentials.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	Temperature  float64
	MaxTokens    int64
}

// CompletionProvider is the injected LLM capability. Implementations must
// return the reply as free text and surface every failure as an error; the
// scheduling layer decides how to degrade.
type CompletionProvider interface {
	// Complete performs a single chat completion and returns the reply text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Chat handles an assistant conversation turn with prior history.
	Chat(ctx context.Context, messages []ChatMessage, contextSummary string) (*ChatResponse, error)

	// SummarizeContext condenses a conversation history into a short summary
	// suitable for carrying across sessions.
	SummarizeContext(ctx context.Context, conversationHistory []ChatMessage) (string, error)
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatResponse represents a response from the AI chat
type ChatResponse struct {
	Message     string `json:"message"`
	Summary     string `json:"summary,omitempty"`      // Optional summary of the conversation
	NeedsUpdate bool   `json:"needs_update,omitempty"` // Whether context needs updating
}

// ProviderFactory creates a completion provider from string config
type ProviderFactory func(config map[string]string) (CompletionProvider, error)

// ProviderRegistry stores available completion providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (CompletionProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "completion provider not found: " + e.Name
}
