// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/newthinker/augur/internal/config"
	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/llm"
	"github.com/newthinker/augur/internal/llm/claude"
	"github.com/newthinker/augur/internal/llm/ollama"
	"github.com/newthinker/augur/internal/llm/openai"
)

// New creates an LLM provider based on configuration. An empty provider
// disables report commentary and returns a nil Provider.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	var (
		p   llm.Provider
		err error
	)
	switch cfg.Provider {
	case "":
		return nil, nil
	case "claude":
		p, err = claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		p, err = openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	case "ollama":
		p, err = ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown LLM provider: %s", cfg.Provider))
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
