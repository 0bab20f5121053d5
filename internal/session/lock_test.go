package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseLocker(t *testing.T, l Locker) {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()

	unlock, err := l.Lock(ctx, id)
	require.NoError(t, err)

	// another world is independent
	unlockOther, err := l.Lock(ctx, uuid.New())
	require.NoError(t, err)
	unlockOther()

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, id)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)

	acquired := make(chan func())
	go func() {
		u, err := l.Lock(ctx, id)
		if err == nil {
			acquired <- u
		}
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()
	select {
	case u := <-acquired:
		u()
	case <-time.After(2 * time.Second):
		t.Fatal("lock not acquired after release")
	}
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	exerciseLocker(t, l)
	assert.Zero(t, l.held())
}

func TestRedisLocker(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	var logs bytes.Buffer
	l := NewRedisLocker(client, slog.New(slog.NewTextHandler(&logs, nil)))
	exerciseLocker(t, l)
	assert.Empty(t, logs.String())

	id := uuid.New()
	unlock, err := l.Lock(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockKey(id)))
	assert.Equal(t, 30*time.Second, mr.TTL(lockKey(id)))

	// a stale owner must not release someone else's lock
	require.NoError(t, mr.Set(lockKey(id), "someone-else"))
	unlock()
	assert.True(t, mr.Exists(lockKey(id)))
	assert.Contains(t, logs.String(), "World lock expired before release")
}

func TestRedisLocker_ReleaseFailureIsLogged(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	var logs bytes.Buffer
	l := NewRedisLocker(client, slog.New(slog.NewTextHandler(&logs, nil)))

	id := uuid.New()
	unlock, err := l.Lock(context.Background(), id)
	require.NoError(t, err)

	mr.Close()
	unlock()
	assert.Contains(t, logs.String(), "Failed to release world lock")
	assert.Contains(t, logs.String(), id.String())
}
