package ai

import (
	"context"
	"fmt"

	"skillsnap/internal/config"
	"skillsnap/internal/errors"
	"skillsnap/internal/similarity"
)

// BreakerReporter is implemented by providers and embedders that expose circuit breaker statistics.
type BreakerReporter interface {
	GetCircuitBreakerStats() map[string]any
}

// NewProvider creates the configured generative provider. It returns a nil Provider and no error
// when the provider is disabled; callers then use local fallbacks.
func NewProvider(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts ...Option) (Provider, error) {
	if !cfg.AI.Enabled {
		logger.Info("Generative provider disabled, using local feedback rules")
		return nil, nil
	}

	logger.Debug("Initializing AI provider",
		"provider", cfg.AI.Provider,
		"model", cfg.AI.Model,
		"use_system_prompts", cfg.AI.UseSystemPrompts)

	switch cfg.AI.Provider {
	case "gemini":
		return NewGeminiProvider(ctx, cfg, logger, opts...)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.AI.Provider), nil)
	}
}

// NewEmbedder creates the embedder selected by nlp.embedder.
func NewEmbedder(ctx context.Context, cfg *config.Config, logger *errors.Logger) (similarity.Embedder, error) {
	switch cfg.NLP.Embedder {
	case config.EmbedderHashing, "":
		return similarity.NewHashingEmbedder(cfg.NLP.Dimension), nil
	case config.EmbedderGemini:
		return NewGeminiEmbedder(ctx, cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported embedder: %s", cfg.NLP.Embedder), nil)
	}
}
