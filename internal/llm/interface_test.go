package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/newthinker/augur/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestProviderError(t *testing.T) {
	assert.NoError(t, ProviderError("claude", nil))

	err := ProviderError("claude", fmt.Errorf("call: %w", context.DeadlineExceeded))
	assert.True(t, errors.Is(err, core.ErrLLMTimeout))
	assert.Contains(t, err.Error(), "claude")

	err = ProviderError("openai", errors.New("rate limited"))
	assert.True(t, errors.Is(err, core.ErrLLMFailed))
	assert.False(t, errors.Is(err, core.ErrLLMTimeout))

	again := ProviderError("decision", err)
	assert.Same(t, err, again)
}

func TestChatRequest_MaxTokensOrDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxTokens, ChatRequest{}.MaxTokensOrDefault())
	assert.Equal(t, 400, ChatRequest{MaxTokens: 400}.MaxTokensOrDefault())
}
