package core

import (
	"context"

	"go.uber.org/zap"

	"cinestream.app/cinebot/internal/config"
)

// NewGenerator builds the backend selected by cfg. Without a credential it
// returns a nil Generator, which LLMService answers with a fixed message.
// The returned func releases the backend.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (Generator, func(), error) {
	credential := cfg.Credential()
	if credential == "" {
		logger.Warnw("No LLM credential configured, the assistant will answer with the missing key message", "provider", cfg.LLMProvider)
		return nil, func() {}, nil
	}

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(credential, cfg.OpenAIBaseURL, cfg.OpenAIModel), func() {}, nil
	default:
		g, err := NewGeminiGenerator(ctx, credential, cfg.GeminiModel, logger)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	}
}
