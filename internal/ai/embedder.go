package ai

import (
	"context"
	"fmt"

	"skillsnap/internal/config"
	"skillsnap/internal/errors"
	"skillsnap/internal/similarity"

	"google.golang.org/genai"
)

// GeminiEmbedder implements similarity.Embedder with the Gemini embedding API.
type GeminiEmbedder struct {
	models     contentGenerator
	model      string
	dimension  int
	maxRetries int
	breaker    *CircuitBreaker[[]float32]
	logger     *errors.Logger
}

var _ similarity.Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates an embedder for cfg.NLP.EmbeddingModel using the global AI api key.
func NewGeminiEmbedder(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*GeminiEmbedder, error) {
	client, err := newGeminiClient(ctx, cfg.AI.APIKey)
	if err != nil {
		return nil, err
	}
	return newGeminiEmbedder(client.Models, cfg, logger), nil
}

func newGeminiEmbedder(models contentGenerator, cfg *config.Config, logger *errors.Logger) *GeminiEmbedder {
	return &GeminiEmbedder{
		models:     models,
		model:      cfg.NLP.EmbeddingModel,
		dimension:  cfg.NLP.Dimension,
		maxRetries: cfg.AI.MaxRetries,
		breaker:    NewCircuitBreaker[[]float32]("Embed", cfg.NLP.CircuitBreaker, logger),
		logger:     logger,
	}
}

// Embed returns the embedding of text, truncated by the API to the configured dimension.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := int32(e.dimension)
	return e.breaker.Execute(func() ([]float32, error) {
		return withRetry(ctx, e.logger, "embed", e.maxRetries, func() ([]float32, error) {
			resp, err := e.models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
				OutputDimensionality: &dim,
			})
			if err != nil {
				return nil, err
			}
			if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
				return nil, fmt.Errorf("embedding response for model %s is empty", e.model)
			}
			values := resp.Embeddings[0].Values
			if len(values) != e.dimension {
				return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(values), e.dimension)
			}
			return values, nil
		})
	})
}

// Dimension implements similarity.Embedder
func (e *GeminiEmbedder) Dimension() int { return e.dimension }

// Name implements similarity.Embedder
func (e *GeminiEmbedder) Name() string { return "gemini:" + e.model }

// GetCircuitBreakerStats implements BreakerReporter
func (e *GeminiEmbedder) GetCircuitBreakerStats() map[string]any {
	return map[string]any{"embed": e.breaker.GetStats()}
}
