package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jwebster45206/storyworld/pkg/storage"
)

// SQLiteStorage keeps world records in a single-file database. Records never
// expire; deleting is explicit.
type SQLiteStorage struct {
	db       *sql.DB
	logger   *slog.Logger
	compress bool
}

var _ storage.Storage = (*SQLiteStorage)(nil)

// OpenSQLite opens (and creates if needed) the database at path.
func OpenSQLite(path string, logger *slog.Logger, compress bool) (*SQLiteStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("SQLite storage opened", "path", path)
	return &SQLiteStorage{db: db, logger: logger, compress: compress}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS worlds (
		id TEXT PRIMARY KEY,
		story TEXT NOT NULL,
		record BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("failed to create worlds table: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite", "error", err)
		return err
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

func (s *SQLiteStorage) SaveWorld(ctx context.Context, id uuid.UUID, rec *storage.Record) error {
	rec.ID = id
	rec.UpdatedAt = time.Now().UTC()

	data, err := encodeRecord(rec, s.compress)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO worlds (id, story, record, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET story = excluded.story, record = excluded.record, updated_at = excluded.updated_at`,
		id.String(), rec.Story, data, rec.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Error("Failed to save world", "world_id", id, "error", err)
		return fmt.Errorf("failed to save world: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadWorld(ctx context.Context, id uuid.UUID) (*storage.Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM worlds WHERE id = ?`, id.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("Failed to load world", "world_id", id, "error", err)
		return nil, fmt.Errorf("failed to load world: %w", err)
	}
	return decodeRecord(data)
}

func (s *SQLiteStorage) DeleteWorld(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM worlds WHERE id = ?`, id.String()); err != nil {
		s.logger.Error("Failed to delete world", "world_id", id, "error", err)
		return fmt.Errorf("failed to delete world: %w", err)
	}
	return nil
}
