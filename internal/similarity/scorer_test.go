package similarity

import (
	"context"
	stderrors "errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillsnap/internal/errors"
)

type countingEmbedder struct {
	inner Embedder
	calls atomic.Int32
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) Dimension() int { return c.inner.Dimension() }
func (c *countingEmbedder) Name() string   { return "counting" }

func TestHashingEmbedder(t *testing.T) {
	e := NewHashingEmbedder(0)
	assert.Equal(t, DefaultDimension, e.Dimension())
	assert.Equal(t, "hashing-384-v1", e.Name())

	v1, err := e.Embed(context.Background(), "Go developer with Kubernetes experience")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "Go developer with Kubernetes experience")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, DefaultDimension)

	var norm float64
	for _, x := range v1 {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	empty, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, empty, DefaultDimension)
}

func TestSimilarity(t *testing.T) {
	scorer := NewScorer(NewHashingEmbedder(DefaultDimension))
	ctx := context.Background()

	same, err := scorer.Similarity(ctx, "python sql docker", "python sql docker")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, same, 1e-3)

	related, err := scorer.Similarity(ctx, "backend engineer python sql docker", "python engineer needed for sql work")
	require.NoError(t, err)
	unrelated, err := scorer.Similarity(ctx, "backend engineer python sql docker", "florist arranging tulips daily")
	require.NoError(t, err)

	assert.Greater(t, related, unrelated)
	for _, s := range []float64{same, related, unrelated} {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
	}
}

func TestSimilarityBlankInput(t *testing.T) {
	emb := &countingEmbedder{inner: NewHashingEmbedder(16)}
	scorer := NewScorer(emb)

	for _, pair := range [][2]string{{"", "python"}, {"python", "   \n"}, {"", ""}} {
		score, err := scorer.Similarity(context.Background(), pair[0], pair[1])
		require.NoError(t, err)
		assert.Zero(t, score)
	}
	assert.Zero(t, emb.calls.Load())
}

func TestSimilarityEmbedderFailure(t *testing.T) {
	scorer := NewScorer(&countingEmbedder{inner: NewHashingEmbedder(16), err: stderrors.New("boom")})

	_, err := scorer.Similarity(context.Background(), "a resume", "a job")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeModelUnavailable))
	assert.True(t, errors.IsRetryable(err))
}

func TestCosine(t *testing.T) {
	c, err := Cosine([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.Zero(t, c)

	c, err = Cosine([]float32{1, 1}, []float32{2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c, 1e-9)

	c, err = Cosine([]float32{0, 0}, []float32{1, 1})
	require.NoError(t, err)
	assert.Zero(t, c)

	_, err = Cosine([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-12))
	assert.Equal(t, 100.0, Clamp(100.0001))
	assert.Equal(t, 42.5, Clamp(42.5))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
}
