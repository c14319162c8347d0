package nlp

import (
	"context"
	"sync"

	"skillsnap/internal/errors"
	"skillsnap/internal/similarity"
	"skillsnap/internal/skills"
)

// Models is the immutable handle to the loaded vocabulary and similarity scorer.
type Models struct {
	Vocabulary *skills.Vocabulary
	Scorer     *similarity.Scorer
}

// Info describes a loaded handle for health and stats endpoints.
type Info struct {
	VocabularyVersion string `json:"vocabulary_version"`
	VocabularySize    int    `json:"vocabulary_size"`
	Embedder          string `json:"embedder"`
}

// Info returns a description of the handle.
func (m *Models) Info() Info {
	return Info{
		VocabularyVersion: m.Vocabulary.Version(),
		VocabularySize:    m.Vocabulary.Len(),
		Embedder:          m.Scorer.EmbedderName(),
	}
}

// LoaderFunc builds the model handle.
type LoaderFunc func(ctx context.Context) (*Models, error)

// Loader returns a LoaderFunc that reads the vocabulary from vocabularyFile, or the built-in one
// when the path is empty, and pairs it with embedder.
func Loader(vocabularyFile string, embedder similarity.Embedder) LoaderFunc {
	return func(ctx context.Context) (*Models, error) {
		vocab := skills.DefaultVocabulary()
		if vocabularyFile != "" {
			var err error
			if vocab, err = skills.LoadVocabulary(vocabularyFile); err != nil {
				return nil, err
			}
		}

		scorer := similarity.NewScorer(embedder)
		// embed once so a broken model fails startup rather than the first request
		if _, err := embedder.Embed(ctx, "warmup"); err != nil {
			return nil, errors.NewModelUnavailableError(errors.ErrCodeModelUnavailable,
				"embedder warmup failed", err).WithContext("embedder", embedder.Name())
		}
		return &Models{Vocabulary: vocab, Scorer: scorer}, nil
	}
}

// Barrier runs model initialization exactly once and lets callers wait for it.
type Barrier struct {
	once   sync.Once
	done   chan struct{}
	mu     sync.RWMutex
	models *Models
	err    error
}

// NewBarrier creates an uninitialized barrier.
func NewBarrier() *Barrier {
	return &Barrier{done: make(chan struct{})}
}

// Init runs load once. Subsequent calls return the first result without calling load.
func (b *Barrier) Init(ctx context.Context, load LoaderFunc) (*Models, error) {
	b.once.Do(func() {
		models, err := load(ctx)
		if err == nil && models == nil {
			err = errors.NewInternalError(errors.ErrCodeModelUnavailable, "loader returned no models", nil)
		}
		b.mu.Lock()
		b.models, b.err = models, err
		b.mu.Unlock()
		close(b.done)
	})
	return b.result()
}

// Wait blocks until Init has finished or ctx is done.
func (b *Barrier) Wait(ctx context.Context) (*Models, error) {
	select {
	case <-b.done:
		return b.result()
	case <-ctx.Done():
		return nil, errors.NewModelUnavailableError(errors.ErrCodeModelNotReady,
			"models are still loading", ctx.Err())
	}
}

// Ready reports whether initialization finished successfully.
func (b *Barrier) Ready() bool {
	select {
	case <-b.done:
		b.mu.RLock()
		defer b.mu.RUnlock()
		return b.err == nil
	default:
		return false
	}
}

// Models returns the loaded handle, or a model-not-ready error if initialization has not
// finished successfully. It never blocks.
func (b *Barrier) Models() (*Models, error) {
	select {
	case <-b.done:
		return b.result()
	default:
		return nil, errors.NewModelUnavailableError(errors.ErrCodeModelNotReady, "models are still loading", nil)
	}
}

func (b *Barrier) result() (*Models, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.models, b.err
}
