package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMockStorage_SaveAndLoadWorld(t *testing.T) {
	m := NewMockStorage()
	ctx := context.Background()
	id := uuid.New()

	rec := &Record{ID: id, Story: "cake", World: json.RawMessage(`{"event_count":3}`), UpdatedAt: time.Now()}
	if err := m.SaveWorld(ctx, id, rec); err != nil {
		t.Fatalf("Failed to save world: %v", err)
	}

	// Mutating the caller's record must not leak into storage.
	rec.World[2] = 'X'

	loaded, err := m.LoadWorld(ctx, id)
	if err != nil {
		t.Fatalf("Failed to load world: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected non-nil record")
	}
	if loaded.Story != "cake" {
		t.Errorf("Expected story 'cake', got %q", loaded.Story)
	}
	if string(loaded.World) != `{"event_count":3}` {
		t.Errorf("Unexpected world %s", loaded.World)
	}
}

func TestMockStorage_LoadMissing(t *testing.T) {
	m := NewMockStorage()
	loaded, err := m.LoadWorld(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Expected no error for missing world, got: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for missing world")
	}
}

func TestMockStorage_Delete(t *testing.T) {
	m := NewMockStorage()
	ctx := context.Background()
	id := uuid.New()

	if err := m.SaveWorld(ctx, id, &Record{ID: id, Story: "doll"}); err != nil {
		t.Fatalf("Failed to save world: %v", err)
	}
	if err := m.DeleteWorld(ctx, id); err != nil {
		t.Fatalf("Failed to delete world: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Expected empty storage, got %d records", m.Len())
	}
}

func TestMockStorage_Errors(t *testing.T) {
	m := NewMockStorage()
	ctx := context.Background()

	if err := m.SaveWorld(ctx, uuid.New(), nil); err == nil {
		t.Error("Expected error for nil record")
	}

	boom := errors.New("boom")
	m.SetPingError(boom)
	if err := m.Ping(ctx); !errors.Is(err, boom) {
		t.Errorf("Expected ping error, got %v", err)
	}
	m.SetSaveError(boom)
	if err := m.SaveWorld(ctx, uuid.New(), &Record{}); !errors.Is(err, boom) {
		t.Errorf("Expected save error, got %v", err)
	}
}
