package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ChannelPrefix namespaces shipment topics on the Redis server.
const ChannelPrefix = "shipments:"

// RedisRelay carries hub traffic between API instances. Publish sends to
// Redis only; Run feeds every message seen on Redis, including this
// instance's own, into the local hub.
type RedisRelay[T any] struct {
	client *redis.Client
	hub    *Hub[T]
	logger *slog.Logger
}

func NewRedisRelay[T any](client *redis.Client, hub *Hub[T], logger *slog.Logger) *RedisRelay[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRelay[T]{client: client, hub: hub, logger: logger}
}

func (r *RedisRelay[T]) Publish(ctx context.Context, topic string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("relay: encode %s: %w", topic, err)
	}
	if err := r.client.Publish(ctx, ChannelPrefix+topic, data).Err(); err != nil {
		return fmt.Errorf("relay: publish %s: %w", topic, err)
	}
	return nil
}

// Run pattern-subscribes to every shipment channel and blocks until ctx is
// cancelled or the subscription fails to start.
func (r *RedisRelay[T]) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, ChannelPrefix+"*")
	defer pubsub.Close()

	// Receive blocks until the server confirms the subscription.
	if _, err := pubsub.Receive(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return fmt.Errorf("relay: subscribe: %w", err)
	}
	r.logger.Info("redis relay subscribed", "pattern", ChannelPrefix+"*")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.forward(msg)
		}
	}
}

func (r *RedisRelay[T]) forward(msg *redis.Message) {
	topic := strings.TrimPrefix(msg.Channel, ChannelPrefix)
	var payload T
	if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
		r.logger.Warn("dropping undecodable relay message", "channel", msg.Channel, "error", err)
		return
	}
	r.hub.Deliver(topic, payload)
}
