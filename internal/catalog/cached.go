package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skufu/symptomatch/internal/disease"
	"github.com/Skufu/symptomatch/internal/metrics"
	"github.com/Skufu/symptomatch/internal/observability"
)

// SnapshotKey is where the encoded catalog snapshot is stored.
const SnapshotKey = "symptomatch:catalog:v1"

// ErrSnapshotMiss is returned by a SnapshotStore when no snapshot is cached.
var ErrSnapshotMiss = errors.New("catalog snapshot not cached")

// SnapshotStore persists opaque catalog snapshots with a TTL.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisStore implements SnapshotStore on go-redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Cached is a read-through snapshot cache in front of another Source. Cache
// failures fall back to the inner source; they never fail a fetch.
type Cached struct {
	inner Source
	store SnapshotStore
	ttl   time.Duration
}

func NewCached(inner Source, store SnapshotStore, ttl time.Duration) *Cached {
	return &Cached{inner: inner, store: store, ttl: ttl}
}

func (c *Cached) FetchAll(ctx context.Context) ([]disease.Record, error) {
	logger := observability.LoggerFromContext(ctx)

	raw, err := c.store.Get(ctx, SnapshotKey)
	switch {
	case err == nil:
		var records []disease.Record
		jsonErr := json.Unmarshal(raw, &records)
		if jsonErr == nil {
			metrics.RecordCacheLookup("hit")
			return records, nil
		}
		logger.Warn().Err(jsonErr).Msg("discarding undecodable catalog snapshot")
		metrics.RecordCacheLookup("error")
	case errors.Is(err, ErrSnapshotMiss):
		metrics.RecordCacheLookup("miss")
	default:
		logger.Warn().Err(err).Msg("catalog snapshot lookup failed")
		metrics.RecordCacheLookup("error")
	}

	records, err := c.inner.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(records)
	if err != nil {
		logger.Warn().Err(err).Msg("encode catalog snapshot")
		return records, nil
	}
	if err := c.store.Set(ctx, SnapshotKey, encoded, c.ttl); err != nil {
		logger.Warn().Err(err).Msg("store catalog snapshot")
	}
	return records, nil
}

// Invalidate drops the cached snapshot so the next fetch reads through.
func (c *Cached) Invalidate(ctx context.Context) error {
	return c.store.Delete(ctx, SnapshotKey)
}
