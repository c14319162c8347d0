package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"skillsnap/internal/errors"
	"skillsnap/internal/types"
)

const (
	cacheKeyPrefix      = "skillsnap:resume:"
	generationKeyPrefix = "skillsnap:resume-gen:"
)

// cachedResume carries the insertion sequence, which is not part of the public JSON form.
type cachedResume struct {
	types.Resume
	Seq int64 `json:"seq"`
}

// CachedStore is a read-through Redis cache in front of another Store. Only GetByID is cached;
// updates and deletes invalidate the entry. Cache failures are logged and fall through to the
// underlying store.
//
// Every invalidation bumps a per-resume generation counter. A fill records the generation before
// reading the underlying store and is written only if the counter is unchanged when the SET
// commits, so a read racing an update never repopulates the cache with the old document.
type CachedStore struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger *errors.Logger
}

// NewCachedStore wraps next with a cache on client.
func NewCachedStore(next Store, client *redis.Client, ttl time.Duration, logger *errors.Logger) *CachedStore {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedStore{next: next, client: client, ttl: ttl, logger: logger}
}

// NewRedisClient creates a client and verifies it can reach the server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeStoreFailed, "failed to reach redis", err).
			WithContext("address", addr)
	}
	return client, nil
}

func (c *CachedStore) Driver() string { return c.next.Driver() + "+redis" }

func (c *CachedStore) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return err
	}
	return c.next.Ping(ctx)
}

func (c *CachedStore) Close() error {
	cacheErr := c.client.Close()
	if err := c.next.Close(); err != nil {
		return err
	}
	return cacheErr
}

func (c *CachedStore) GetByID(ctx context.Context, id string) (*types.Resume, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+id).Bytes()
	switch {
	case err == nil:
		var cached cachedResume
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			r := cached.Resume
			r.Seq = cached.Seq
			return &r, nil
		}
		c.logger.Warn("Discarding undecodable cache entry", "resume_id", id)
	case !stderrors.Is(err, redis.Nil):
		c.logger.Warn("Cache read failed", "resume_id", id, "error", err.Error())
	}

	gen, genErr := c.generation(ctx, id)
	r, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		c.logger.Warn("Cache generation read failed", "resume_id", id, "error", genErr.Error())
		return r, nil
	}
	c.put(ctx, r, gen)
	return r, nil
}

func (c *CachedStore) FindMany(ctx context.Context, q Query) ([]*types.Resume, error) {
	return c.next.FindMany(ctx, q)
}

func (c *CachedStore) InsertOne(ctx context.Context, r *types.Resume) error {
	return c.next.InsertOne(ctx, r)
}

func (c *CachedStore) MergeUpdateOne(ctx context.Context, id string, p Patch) error {
	err := c.next.MergeUpdateOne(ctx, id, p)
	c.invalidate(ctx, id)
	return err
}

func (c *CachedStore) DeleteOne(ctx context.Context, id string) (int64, error) {
	n, err := c.next.DeleteOne(ctx, id)
	c.invalidate(ctx, id)
	return n, err
}

func (c *CachedStore) generation(ctx context.Context, id string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKeyPrefix+id).Int64()
	if stderrors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// put stores r unless the resume was invalidated after gen was read.
func (c *CachedStore) put(ctx context.Context, r *types.Resume, gen int64) {
	data, err := json.Marshal(cachedResume{Resume: *r, Seq: r.Seq})
	if err != nil {
		return
	}

	genKey := generationKeyPrefix + r.ID
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !stderrors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKeyPrefix+r.ID, data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case stderrors.Is(err, errStaleFill), stderrors.Is(err, redis.TxFailedErr):
		c.logger.Debug("Skipping stale cache fill", "resume_id", r.ID)
	default:
		c.logger.Warn("Cache write failed", "resume_id", r.ID, "error", err.Error())
	}
}

var errStaleFill = stderrors.New("resume changed during cache fill")

func (c *CachedStore) invalidate(ctx context.Context, id string) {
	genKey := generationKeyPrefix + id
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, 2*c.ttl)
		pipe.Del(ctx, cacheKeyPrefix+id)
		return nil
	})
	if err != nil {
		c.logger.Warn("Cache invalidation failed", "resume_id", id, "error", err.Error())
	}
}
