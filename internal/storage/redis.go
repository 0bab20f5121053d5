package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/storyworld/pkg/storage"
)

// DefaultWorldTTL is how long an untouched world survives in Redis.
const DefaultWorldTTL = 24 * time.Hour

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if !strings.Contains(redisURL, "://") {
		return redis.NewClient(&redis.Options{Addr: redisURL}), nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return redis.NewClient(opt), nil
}

// RedisStorage keeps world records in Redis under world:<id> keys.
type RedisStorage struct {
	client   *redis.Client
	logger   *slog.Logger
	ttl      time.Duration
	compress bool
}

var _ storage.Storage = (*RedisStorage)(nil)

// RedisOption tunes a RedisStorage.
type RedisOption func(*RedisStorage)

// WithTTL sets the expiry refreshed on every save. Zero keeps records forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisStorage) { r.ttl = ttl }
}

// WithCompression stores records zstd-compressed.
func WithCompression(on bool) RedisOption {
	return func(r *RedisStorage) { r.compress = on }
}

// NewRedisStorage wraps client. The storage owns the client and closes it.
func NewRedisStorage(client *redis.Client, logger *slog.Logger, opts ...RedisOption) *RedisStorage {
	r := &RedisStorage{
		client: client,
		logger: logger,
		ttl:    DefaultWorldTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func worldKey(id uuid.UUID) string {
	return "world:" + id.String()
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// World operations

func (r *RedisStorage) SaveWorld(ctx context.Context, id uuid.UUID, rec *storage.Record) error {
	rec.ID = id
	rec.UpdatedAt = time.Now().UTC()

	data, err := encodeRecord(rec, r.compress)
	if err != nil {
		r.logger.Error("Failed to encode world", "world_id", id, "error", err)
		return err
	}

	if err := r.client.Set(ctx, worldKey(id), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save world", "world_id", id, "error", err)
		return fmt.Errorf("failed to save world: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadWorld(ctx context.Context, id uuid.UUID) (*storage.Record, error) {
	data, err := r.client.Get(ctx, worldKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("World not found", "world_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load world", "world_id", id, "error", err)
		return nil, fmt.Errorf("failed to load world: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	rec, err := decodeRecord(data)
	if err != nil {
		r.logger.Error("Failed to decode world", "world_id", id, "error", err)
		return nil, err
	}
	return rec, nil
}

func (r *RedisStorage) DeleteWorld(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, worldKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete world", "world_id", id, "error", err)
		return fmt.Errorf("failed to delete world: %w", err)
	}
	return nil
}
