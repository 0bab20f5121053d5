package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwebster45206/storyworld/internal/services/events"
	"github.com/jwebster45206/storyworld/internal/session"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 30 * time.Second
)

// ConnectedMessage is the first frame of every stream.
type ConnectedMessage struct {
	Type     string            `json:"type"`
	Snapshot *session.Snapshot `json:"snapshot"`
}

// StreamHandler relays broadcaster messages of one world to a websocket.
// GET /v1/worlds/{id}/stream
type StreamHandler struct {
	broadcaster *events.Broadcaster
	runner      *session.Runner
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

func NewStreamHandler(broadcaster *events.Broadcaster, runner *session.Runner, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		broadcaster: broadcaster,
		runner:      runner,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, r, http.MethodGet)
		return
	}
	id, hasID, action, err := parseWorldPath(r.URL.Path)
	if err != nil || !hasID || action != "stream" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/worlds/{id}/stream")
		return
	}

	if _, err := h.runner.Get(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "World not found")
			return
		}
		h.logger.Error("Failed to load world for stream", "world_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.Warn("Websocket upgrade failed", "world_id", id, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.broadcaster.Subscribe(ctx, id)
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()
	// The snapshot is taken once the subscription is live, so every turn
	// after it arrives as a message.
	if _, err := pubsub.Receive(ctx); err != nil {
		h.logger.Error("Failed to subscribe", "world_id", id, "error", err)
		return
	}
	snap, err := h.runner.Get(ctx, id)
	if err != nil {
		h.logger.Warn("World gone before stream start", "world_id", id, "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "world not found"),
			time.Now().Add(time.Second))
		return
	}

	h.logger.Info("Stream connected", "world_id", id, "remote_addr", r.RemoteAddr)

	first, err := json.Marshal(ConnectedMessage{Type: "world.connected", Snapshot: snap})
	if err != nil {
		h.logger.Error("Failed to marshal snapshot", "error", err)
		return
	}

	// Writer goroutine.
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()

		ping := time.NewTicker(streamPingPeriod)
		defer ping.Stop()
		msgs := pubsub.Channel()

		write := func(data []byte) bool {
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			return conn.WriteMessage(websocket.TextMessage, data) == nil
		}
		if !write(first) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if !write([]byte(msg.Payload)) {
					return
				}
				var m events.Message
				if err := json.Unmarshal([]byte(msg.Payload), &m); err == nil && m.Type == events.MessageTypeDeleted {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "world deleted"),
						time.Now().Add(time.Second))
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop: clients only send control frames; reading surfaces closes.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	<-done
	h.logger.Info("Stream closed", "world_id", id)
}
