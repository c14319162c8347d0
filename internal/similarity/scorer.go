package similarity

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"skillsnap/internal/errors"
)

// Scorer computes the semantic closeness of two texts as a percentage.
type Scorer struct {
	embedder Embedder
}

// NewScorer creates a scorer backed by embedder.
func NewScorer(embedder Embedder) *Scorer {
	return &Scorer{embedder: embedder}
}

// EmbedderName returns the name of the underlying embedding model.
func (s *Scorer) EmbedderName() string {
	return s.embedder.Name()
}

// Similarity returns cosine(embed(a), embed(b)) scaled to [0,100]. Blank input on either side
// scores 0 without touching the embedder. Embedder failures are reported as model unavailable.
func (s *Scorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0, nil
	}

	var va, vb []float32
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		va, err = s.embedder.Embed(gctx, a)
		return err
	})
	g.Go(func() error {
		var err error
		vb, err = s.embedder.Embed(gctx, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, errors.NewModelUnavailableError(errors.ErrCodeModelUnavailable, "embedding failed", err).
			WithContext("embedder", s.embedder.Name())
	}

	cos, err := Cosine(va, vb)
	if err != nil {
		return 0, errors.NewModelUnavailableError(errors.ErrCodeModelUnavailable, "embedding mismatch", err).
			WithContext("embedder", s.embedder.Name())
	}
	return Clamp(cos * 100), nil
}

// Cosine returns the cosine similarity of two vectors. Zero vectors have similarity 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}
	return dot / denom, nil
}

// Clamp bounds a percentage to [0,100].
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
