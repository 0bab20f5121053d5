package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/jwebster45206/storyworld/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestRedis(t *testing.T, opts ...RedisOption) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client, err := NewRedisClient("redis://" + mr.Addr())
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis client: %v", err)
	}

	return NewRedisStorage(client, testLogger(), opts...), mr
}

func setupTestSQLite(t *testing.T, compress bool) *SQLiteStorage {
	t.Helper()

	s, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "worlds.sqlite"), testLogger(), compress)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecord() *storage.Record {
	return &storage.Record{
		Story: "cake",
		World: json.RawMessage(`{"id":"cake","lang":"en-US","event_count":3,"characters":{"kitie":{"scene":"kitchen"}}}`),
	}
}

// exerciseStorage runs the common Storage contract against s.
func exerciseStorage(t *testing.T, s storage.Storage) {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	got, err := s.LoadWorld(ctx, id)
	if err != nil {
		t.Fatalf("LoadWorld of missing id failed: %v", err)
	}
	if got != nil {
		t.Fatalf("Expected nil record for missing id, got %+v", got)
	}

	rec := testRecord()
	if err := s.SaveWorld(ctx, id, rec); err != nil {
		t.Fatalf("SaveWorld failed: %v", err)
	}

	got, err = s.LoadWorld(ctx, id)
	if err != nil {
		t.Fatalf("LoadWorld failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected record, got nil")
	}
	if got.ID != id {
		t.Errorf("Expected id %s, got %s", id, got.ID)
	}
	if got.Story != "cake" {
		t.Errorf("Expected story cake, got %q", got.Story)
	}
	if !jsonEqual(t, got.World, rec.World) {
		t.Errorf("World dump changed: %s", got.World)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set")
	}

	rec.Story = "doll"
	if err := s.SaveWorld(ctx, id, rec); err != nil {
		t.Fatalf("Second SaveWorld failed: %v", err)
	}
	got, _ = s.LoadWorld(ctx, id)
	if got == nil || got.Story != "doll" {
		t.Fatalf("Expected overwritten record, got %+v", got)
	}

	if err := s.DeleteWorld(ctx, id); err != nil {
		t.Fatalf("DeleteWorld failed: %v", err)
	}
	got, err = s.LoadWorld(ctx, id)
	if err != nil || got != nil {
		t.Fatalf("Expected nil, nil after delete, got %+v, %v", got, err)
	}

	if err := s.DeleteWorld(ctx, uuid.New()); err != nil {
		t.Errorf("Deleting a missing world should succeed, got %v", err)
	}
}

func jsonEqual(t *testing.T, a, b json.RawMessage) bool {
	t.Helper()
	var x, y any
	if err := json.Unmarshal(a, &x); err != nil {
		t.Fatalf("invalid json %s: %v", a, err)
	}
	if err := json.Unmarshal(b, &y); err != nil {
		t.Fatalf("invalid json %s: %v", b, err)
	}
	xb, _ := json.Marshal(x)
	yb, _ := json.Marshal(y)
	return bytes.Equal(xb, yb)
}

func TestRedisStorage(t *testing.T) {
	for _, compress := range []bool{false, true} {
		s, mr := setupTestRedis(t, WithCompression(compress))
		exerciseStorage(t, s)
		_ = s.Close()
		mr.Close()
	}
}

func TestSQLiteStorage(t *testing.T) {
	for _, compress := range []bool{false, true} {
		exerciseStorage(t, setupTestSQLite(t, compress))
	}
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worlds.sqlite")
	ctx := context.Background()
	id := uuid.New()

	s, err := OpenSQLite(path, testLogger(), true)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	if err := s.SaveWorld(ctx, id, testRecord()); err != nil {
		t.Fatalf("SaveWorld failed: %v", err)
	}
	_ = s.Close()

	// Reopened without compression; stored records still decode.
	s, err = OpenSQLite(path, testLogger(), false)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s.Close()
	got, err := s.LoadWorld(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("Expected record after reopen, got %+v, %v", got, err)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite("", testLogger(), false); err == nil {
		t.Fatal("Expected error for empty path")
	}
}

func TestRedisStorage_KeyAndTTL(t *testing.T) {
	s, mr := setupTestRedis(t, WithTTL(time.Hour))
	defer mr.Close()
	defer s.Close()

	id := uuid.New()
	if err := s.SaveWorld(context.Background(), id, testRecord()); err != nil {
		t.Fatalf("SaveWorld failed: %v", err)
	}

	key := "world:" + id.String()
	if !mr.Exists(key) {
		t.Fatalf("Expected key %s to exist", key)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Errorf("Expected TTL 1h, got %v", ttl)
	}

	mr.FastForward(2 * time.Hour)
	got, err := s.LoadWorld(context.Background(), id)
	if err != nil || got != nil {
		t.Errorf("Expected expired world to be gone, got %+v, %v", got, err)
	}
}

func TestRedisStorage_CompressedOnTheWire(t *testing.T) {
	s, mr := setupTestRedis(t, WithCompression(true))
	defer mr.Close()
	defer s.Close()

	id := uuid.New()
	if err := s.SaveWorld(context.Background(), id, testRecord()); err != nil {
		t.Fatalf("SaveWorld failed: %v", err)
	}
	raw, err := mr.Get("world:" + id.String())
	if err != nil {
		t.Fatalf("miniredis Get failed: %v", err)
	}
	if !bytes.HasPrefix([]byte(raw), zstdMagic) {
		t.Errorf("Expected zstd frame, got %q", raw[:min(len(raw), 16)])
	}
}

func TestRedisStorage_CorruptRecord(t *testing.T) {
	s, mr := setupTestRedis(t)
	defer mr.Close()
	defer s.Close()

	id := uuid.New()
	if err := mr.Set("world:"+id.String(), "not json"); err != nil {
		t.Fatalf("miniredis Set failed: %v", err)
	}
	if _, err := s.LoadWorld(context.Background(), id); err == nil {
		t.Fatal("Expected decode error")
	}
}

func TestRedisStorage_WaitForConnection(t *testing.T) {
	s, mr := setupTestRedis(t)
	defer mr.Close()
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.WaitForConnection(ctx); err != nil {
		t.Fatalf("WaitForConnection failed: %v", err)
	}
}

func TestNewRedisClient(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		expectErr bool
		addr      string
	}{
		{"bare address", "localhost:6379", false, "localhost:6379"},
		{"url", "redis://cache:6380/2", false, "cache:6380"},
		{"bad scheme", "http://localhost:6379", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewRedisClient(tt.url)
			if tt.expectErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			defer c.Close()
			if c.Options().Addr != tt.addr {
				t.Errorf("Expected addr %s, got %s", tt.addr, c.Options().Addr)
			}
		})
	}
}
