package store

import (
	"context"
	"fmt"

	"skillsnap/internal/config"
	"skillsnap/internal/errors"
)

// Open creates the store selected by cfg.Driver, wrapped in the Redis cache when enabled.
func Open(ctx context.Context, cfg config.StoreConfig, logger *errors.Logger) (Store, error) {
	var s Store
	switch cfg.Driver {
	case config.StoreMemory, "":
		s = NewMemoryStore()
	case config.StorePostgres:
		pg, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s = pg
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported store driver: %s", cfg.Driver), nil)
	}

	if !cfg.Cache.Enabled {
		return s, nil
	}

	client, err := NewRedisClient(ctx, cfg.Cache.Address, cfg.Cache.Password, cfg.Cache.DB)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	logger.Info("Resume cache enabled", "address", cfg.Cache.Address, "ttl", cfg.Cache.TTL)
	return NewCachedStore(s, client, cfg.Cache.TTL, logger), nil
}
