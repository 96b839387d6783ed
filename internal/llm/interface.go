package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/newthinker/augur/internal/core"
)

// Provider generates commentary for trading decisions.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest holds the request parameters
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	JSONMode     bool
}

// Message represents a chat message
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// DefaultMaxTokens is used when a request leaves MaxTokens unset.
const DefaultMaxTokens = 1024

// MaxTokensOrDefault returns the request budget, or DefaultMaxTokens.
func (r ChatRequest) MaxTokensOrDefault() int {
	if r.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return r.MaxTokens
}

// ProviderError tags a provider failure with the pipeline error codes.
// Deadline overruns map to ErrLLMTimeout, everything else to ErrLLMFailed.
// Errors that already carry one of those codes are returned unchanged.
func ProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrLLMTimeout) || errors.Is(err, core.ErrLLMFailed) {
		return err
	}
	cause := fmt.Errorf("%s: %w", provider, err)
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.ErrLLMTimeout, cause)
	}
	return core.WrapError(core.ErrLLMFailed, cause)
}
