package llm

import (
	"github.com/penciled/penciled/internal/config"
	"github.com/sashabaranov/go-openai"
)

// NewClient creates a chat-completion client for any OpenAI-compatible API.
func NewClient(cfg config.LLMConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return openai.NewClientWithConfig(clientConfig)
}
