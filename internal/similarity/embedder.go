package similarity

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"skillsnap/internal/skills"
)

// Embedder turns text into a fixed-size vector. Implementations must be deterministic for a
// given model and safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Name() string
}

// DefaultDimension is the vector size of the offline embedder.
const DefaultDimension = 384

const bigramWeight = 0.5

// HashingEmbedder is an offline embedder based on feature hashing of word unigrams and bigrams.
type HashingEmbedder struct {
	dimension int
}

// NewHashingEmbedder creates a hashing embedder. A non-positive dimension selects DefaultDimension.
func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashingEmbedder{dimension: dimension}
}

// Embed returns the L2-normalized hashed term vector of text.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, e.dimension)
	tokens := skills.Tokenize(text)
	for i, tok := range tokens {
		vec[e.bucket(tok)]++
		if i > 0 {
			vec[e.bucket(tokens[i-1]+" "+tok)] += bigramWeight
		}
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	out := make([]float32, e.dimension)
	if norm == 0 {
		return out, nil
	}
	norm = math.Sqrt(norm)
	for i, x := range vec {
		out[i] = float32(x / norm)
	}
	return out, nil
}

func (e *HashingEmbedder) bucket(feature string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(feature))
	return int(h.Sum32() % uint32(e.dimension))
}

func (e *HashingEmbedder) Dimension() int { return e.dimension }

func (e *HashingEmbedder) Name() string { return fmt.Sprintf("hashing-%d-v1", e.dimension) }
