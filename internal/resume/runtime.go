package resume

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"skillsnap/internal/ai"
	"skillsnap/internal/config"
	"skillsnap/internal/errors"
	"skillsnap/internal/extract"
	"skillsnap/internal/matching"
	"skillsnap/internal/nlp"
	"skillsnap/internal/observability"
	"skillsnap/internal/similarity"
	"skillsnap/internal/store"
)

// Runtime owns the long-lived collaborators built from configuration.
type Runtime struct {
	Service  *Service
	Store    store.Store
	Provider ai.Provider
	Embedder similarity.Embedder
	Barrier  *nlp.Barrier

	loader      nlp.LoaderFunc
	initTimeout time.Duration
	logger      *errors.Logger
}

// Open builds the store, provider, embedder and service described by cfg. Models are not loaded
// yet; call LoadModels or StartModels.
func Open(ctx context.Context, cfg *config.Config, logger *errors.Logger, metrics *observability.Metrics) (*Runtime, error) {
	if metrics == nil {
		metrics = observability.NopMetrics()
	}

	s, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	provider, err := ai.NewProvider(ctx, cfg, logger, ai.WithObserver(metrics))
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	embedder, err := ai.NewEmbedder(ctx, cfg, logger)
	if err != nil {
		closeProvider(provider)
		_ = s.Close()
		return nil, err
	}

	var suggester matching.SuggestionProvider
	if provider != nil {
		suggester = provider
	}
	feedback := matching.NewFeedbackGenerator(suggester, logger)
	feedback.OnFallback(func(ctx context.Context, reason error) {
		metrics.RecordBusinessMetric(ctx, observability.MetricAuditFallback, true,
			attribute.String("reason", string(errors.TypeOf(reason))))
	})
	engine := matching.NewEngine(feedback, matching.WithMinJobDescriptionLength(cfg.NLP.MinJobDescriptionLength))

	barrier := nlp.NewBarrier()
	rt := &Runtime{
		Store:       s,
		Provider:    provider,
		Embedder:    embedder,
		Barrier:     barrier,
		loader:      nlp.Loader(cfg.NLP.VocabularyFile, embedder),
		initTimeout: cfg.NLP.InitTimeout,
		logger:      logger,
	}
	rt.Service = NewService(Deps{
		Store:    s,
		Engine:   engine,
		Barrier:  barrier,
		Provider: provider,
		Metrics:  metrics,
		Logger:   logger,

		MaxExtractedSize: extract.BodyLimit(cfg.App.MaxFileSize),
	})
	return rt, nil
}

// LoadModels initializes the model handle and blocks until it is ready.
func (rt *Runtime) LoadModels(ctx context.Context) (*nlp.Models, error) {
	if rt.initTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.initTimeout)
		defer cancel()
	}

	start := time.Now()
	models, err := rt.Barrier.Init(ctx, rt.loader)
	if err != nil {
		rt.logger.LogError(err, "Model initialization failed")
		return nil, err
	}
	info := models.Info()
	rt.logger.Info("Models ready",
		"vocabulary_version", info.VocabularyVersion,
		"vocabulary_size", info.VocabularySize,
		"embedder", info.Embedder,
		"duration", time.Since(start))
	return models, nil
}

// StartModels initializes the model handle in the background. The returned channel receives the
// initialization error, or nil, and is then closed.
func (rt *Runtime) StartModels(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		_, err := rt.LoadModels(ctx)
		done <- err
	}()
	return done
}

// Close releases the provider and the store.
func (rt *Runtime) Close() error {
	closeProvider(rt.Provider)
	return rt.Store.Close()
}

func closeProvider(p ai.Provider) {
	if p != nil {
		_ = p.Close()
	}
}

