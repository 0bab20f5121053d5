package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/storyworld/internal/config"
	"github.com/jwebster45206/storyworld/internal/handlers"
	"github.com/jwebster45206/storyworld/internal/logger"
	"github.com/jwebster45206/storyworld/internal/middleware"
	"github.com/jwebster45206/storyworld/internal/services/events"
	"github.com/jwebster45206/storyworld/internal/session"
	"github.com/jwebster45206/storyworld/internal/storage"
	pkgstorage "github.com/jwebster45206/storyworld/pkg/storage"
	"github.com/jwebster45206/storyworld/pkg/stories"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Storyworld API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"stories", stories.Names())

	// Redis carries broadcasts for every backend and storage for the redis one.
	var redisClient *redis.Client
	if cfg.StorageBackend == config.BackendRedis || cfg.RedisURL != "" {
		redisClient, err = storage.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Error("Invalid Redis URL", "error", err)
			os.Exit(1)
		}
	}

	store, err := openStorage(cfg, redisClient, log)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	opts := []session.Option{session.WithDefaultLang(cfg.DefaultLang)}
	var broadcaster *events.Broadcaster
	if redisClient != nil {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn("Redis unavailable, live streams disabled", "error", err)
		} else {
			broadcaster = events.NewBroadcaster(redisClient, log)
			opts = append(opts,
				session.WithPublisher(broadcaster),
				session.WithLocker(session.NewRedisLocker(redisClient, log)))
		}
	}
	runner := session.NewRunner(store, log, opts...)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	if broadcaster != nil && cfg.StorageBackend != config.BackendRedis {
		healthHandler.WithComponent("broadcast", redisPinger{redisClient})
	}
	mux.Handle("/health", healthHandler)

	mux.Handle("/v1/stories", handlers.NewStoriesHandler(runner, log))

	worldHandler := handlers.NewWorldHandler(runner, log)
	if broadcaster != nil {
		worldHandler.WithStream(handlers.NewStreamHandler(broadcaster, runner, log))
	}
	mux.Handle("/v1/worlds", worldHandler)
	mux.Handle("/v1/worlds/", worldHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket streams stay open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if redisClient != nil && cfg.StorageBackend != config.BackendRedis {
		_ = redisClient.Close()
	}

	log.Info("Server exited")
}

// redisPinger adapts the client's Ping to the health check.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func openStorage(cfg *config.Config, redisClient *redis.Client, log *slog.Logger) (pkgstorage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		return storage.OpenSQLite(cfg.SQLitePath, log, cfg.CompressWorlds)
	case config.BackendMemory:
		log.Warn("Using in-memory storage; worlds are lost on restart")
		return pkgstorage.NewMockStorage(), nil
	default:
		rs := storage.NewRedisStorage(redisClient, log,
			storage.WithTTL(cfg.WorldTTL),
			storage.WithCompression(cfg.CompressWorlds))
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := rs.WaitForConnection(ctx); err != nil {
			return nil, err
		}
		return rs, nil
	}
}
