// Package storage defines persistence of story worlds.
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is one persisted story instance: the story it belongs to and the
// world dump produced by world.World.Dump.
type Record struct {
	ID        uuid.UUID       `json:"id"`
	Story     string          `json:"story"`
	World     json.RawMessage `json:"world"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Storage defines world persistence keyed by world id.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// SaveWorld stores rec under id, replacing any previous record.
	SaveWorld(ctx context.Context, id uuid.UUID, rec *Record) error
	// LoadWorld returns nil, nil when no record exists.
	LoadWorld(ctx context.Context, id uuid.UUID) (*Record, error)
	DeleteWorld(ctx context.Context, id uuid.UUID) error
}
