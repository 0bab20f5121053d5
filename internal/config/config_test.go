package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "STORAGE_BACKEND",
		"SQLITE_PATH", "WORLD_TTL", "COMPRESS_WORLDS", "DEFAULT_LANG"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	cfg, err := parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, 24*time.Hour, cfg.WorldTTL)
	assert.True(t, cfg.CompressWorlds)
	assert.Equal(t, "en-US", cfg.DefaultLang)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/worlds.db")
	t.Setenv("WORLD_TTL", "90m")
	t.Setenv("COMPRESS_WORLDS", "false")
	t.Setenv("DEFAULT_LANG", "cs")

	cfg, err := parse()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "/tmp/worlds.db", cfg.SQLitePath)
	assert.Equal(t, 90*time.Minute, cfg.WorldTTL)
	assert.False(t, cfg.CompressWorlds)
	assert.Equal(t, "cs", cfg.DefaultLang)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown backend", "STORAGE_BACKEND", "postgres"},
		{"bad duration", "WORLD_TTL", "soon"},
		{"negative ttl", "WORLD_TTL", "-1h"},
		{"bad bool", "COMPRESS_WORLDS", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := parse()
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}
