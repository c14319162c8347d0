package ai

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"skillsnap/internal/config"
	"skillsnap/internal/errors"
	"skillsnap/internal/similarity"
)

func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }
func float32Ptr(f float32) *float32          { return &f }

// Operation overrides flow through to the per-operation state of the provider.
func TestOperationSpecificConfigDerivation(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Optimize = config.OperationAIConfig{
		Model:       "optimize-specific-model",
		Timeout:     timePtr(90 * time.Second),
		Temperature: float32Ptr(0.3),
	}
	cfg.AI.Compare = config.OperationAIConfig{
		Model:      "compare-specific-model",
		MaxRetries: intPtr(1),
	}

	g := newTestProvider(t, cfg, &fakeModels{})

	tests := []struct {
		op          string
		model       string
		timeout     time.Duration
		maxRetries  int
		temperature float32
	}{
		{config.OperationOptimize, "optimize-specific-model", 90 * time.Second, 2, 0.3},
		{config.OperationCompare, "compare-specific-model", 5 * time.Second, 1, 0.4},
		{config.OperationQuality, "gemini-test", 5 * time.Second, 2, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			op := g.operations[tt.op]
			require.NotNil(t, op)
			assert.Equal(t, tt.model, op.config.Model)
			assert.Equal(t, tt.timeout, *op.config.Timeout)
			assert.Equal(t, tt.maxRetries, *op.config.MaxRetries)
			assert.InDelta(t, tt.temperature, *op.config.Temperature, 1e-6)
			assert.Equal(t, "test-key", op.config.APIKey)
		})
	}
}

func TestNewProviderDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Enabled = false

	p, err := NewProvider(context.Background(), cfg, testLogger)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewProviderUnsupported(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Provider = "openai"

	_, err := NewProvider(context.Background(), cfg, testLogger)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestNewEmbedder(t *testing.T) {
	cfg := testConfig()
	cfg.NLP.Embedder = config.EmbedderHashing
	cfg.NLP.Dimension = 64

	emb, err := NewEmbedder(context.Background(), cfg, testLogger)
	require.NoError(t, err)
	assert.IsType(t, &similarity.HashingEmbedder{}, emb)
	assert.Equal(t, 64, emb.Dimension())

	cfg.NLP.Embedder = "word2vec"
	_, err = NewEmbedder(context.Background(), cfg, testLogger)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestGeminiEmbedder(t *testing.T) {
	saved := retryDelay
	retryDelay = func(int) time.Duration { return 0 }
	t.Cleanup(func() { retryDelay = saved })

	models := &fakeModels{
		embeddings: [][]float32{{0.1, 0.2, 0.3}},
		embedErrs:  []error{genai.APIError{Code: http.StatusTooManyRequests}},
	}
	emb := newGeminiEmbedder(models, testConfig(), testLogger)

	v, err := emb.Embed(context.Background(), "go developer")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, v)
	assert.Equal(t, 2, models.embedCalls, "rate limit is retried")
	assert.Equal(t, 3, emb.Dimension())
	assert.Equal(t, "gemini:text-embedding-004", emb.Name())
}

func TestGeminiEmbedderDimensionMismatch(t *testing.T) {
	models := &fakeModels{embeddings: [][]float32{{0.1, 0.2}}}
	emb := newGeminiEmbedder(models, testConfig(), testLogger)

	_, err := emb.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 dimensions, want 3")
}

func TestGeminiEmbedderThroughScorer(t *testing.T) {
	models := &fakeModels{embeddings: [][]float32{{1, 0, 0}}, embedErrs: []error{stderrors.New("quota"), stderrors.New("quota")}}
	scorer := similarity.NewScorer(newGeminiEmbedder(models, testConfig(), testLogger))

	_, err := scorer.Similarity(context.Background(), "a", "b")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeModelUnavailable))
}
