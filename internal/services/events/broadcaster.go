package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MessageType represents the type of message being broadcast
type MessageType string

const (
	MessageTypeTriggered MessageType = "world.triggered"
	MessageTypeReset     MessageType = "world.reset"
	MessageTypeDeleted   MessageType = "world.deleted"
)

// Triggered describes one event that changed a world.
type Triggered struct {
	// Event is the event dump, {"name": ..., <data fields>}.
	Event      json.RawMessage `json:"event"`
	EventCount uint64          `json:"event_count"`
	Text       string          `json:"text,omitempty"`
}

// Message is the envelope published on a world channel.
type Message struct {
	Type      MessageType `json:"type"`
	WorldID   string      `json:"world_id"`
	Triggered *Triggered  `json:"triggered,omitempty"`
}

// Channel names the pub/sub channel of a world.
func Channel(worldID uuid.UUID) string {
	return fmt.Sprintf("world-events:%s", worldID.String())
}

// Broadcaster publishes world changes to Redis Pub/Sub for websocket fan-out
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new world broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishTriggered publishes a world.triggered message
func (b *Broadcaster) PublishTriggered(ctx context.Context, worldID uuid.UUID, t Triggered) error {
	return b.publish(ctx, worldID, Message{Type: MessageTypeTriggered, Triggered: &t})
}

// PublishReset publishes a world.reset message
func (b *Broadcaster) PublishReset(ctx context.Context, worldID uuid.UUID) error {
	return b.publish(ctx, worldID, Message{Type: MessageTypeReset})
}

// PublishDeleted publishes a world.deleted message
func (b *Broadcaster) PublishDeleted(ctx context.Context, worldID uuid.UUID) error {
	return b.publish(ctx, worldID, Message{Type: MessageTypeDeleted})
}

// Subscribe returns a subscription to the world channel. The caller closes it.
func (b *Broadcaster) Subscribe(ctx context.Context, worldID uuid.UUID) *redis.PubSub {
	channel := Channel(worldID)
	b.logger.Debug("Subscribing to channel", "channel", channel)
	return b.redisClient.Subscribe(ctx, channel)
}

func (b *Broadcaster) publish(ctx context.Context, worldID uuid.UUID, msg Message) error {
	msg.WorldID = worldID.String()
	channel := Channel(worldID)

	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("Failed to marshal message", "error", err, "type", msg.Type)
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish message", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	b.logger.Debug("Message published", "channel", channel, "type", msg.Type)
	return nil
}
