package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes turns on one world. Lock blocks until the world is free
// or ctx is done; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, id uuid.UUID) (unlock func(), err error)
}

// LocalLocker is a keyed mutex for a single process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

var _ Locker = (*LocalLocker)(nil)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[uuid.UUID]*localLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.locks[id] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
		return func() {
			<-lk.ch
			l.release(id, lk)
		}, nil
	case <-ctx.Done():
		l.release(id, lk)
		return nil, fmt.Errorf("waiting for world %s: %w", id, ctx.Err())
	}
}

func (l *LocalLocker) release(id uuid.UUID, lk *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, id)
	}
}

// held reports how many lock entries are alive.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// RedisLocker shares the world lock between API instances through a
// world-lock:<id> key owned by a random token.
type RedisLocker struct {
	client     *redis.Client
	logger     *slog.Logger
	ttl        time.Duration
	retryDelay time.Duration
}

var _ Locker = (*RedisLocker)(nil)

// releaseScript only deletes the key when we still own it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

func NewRedisLocker(client *redis.Client, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		client:     client,
		logger:     logger,
		ttl:        30 * time.Second,
		retryDelay: 25 * time.Millisecond,
	}
}

func lockKey(id uuid.UUID) string {
	return fmt.Sprintf("world-lock:%s", id.String())
}

func (l *RedisLocker) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	key := lockKey(id)
	owner := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, owner, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire world lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for world %s: %w", id, ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}

	return func() {
		// The request context may already be cancelled; release regardless.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		released, err := releaseScript.Run(ctx, l.client, []string{key}, owner).Int()
		switch {
		case err != nil:
			l.logger.Warn("Failed to release world lock", "world_id", id, "error", err)
		case released == 0:
			l.logger.Warn("World lock expired before release", "world_id", id, "ttl", l.ttl)
		}
	}, nil
}
