// server/internal/socket/hub.go
package socket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DefaultBuffer is the per-subscription queue length used when NewHub is
// given a non-positive size.
const DefaultBuffer = 16

// Subscription is one observer of one topic. Messages arrive on C in publish
// order. C is closed by Unsubscribe.
type Subscription[T any] struct {
	ID    string
	Topic string
	C     <-chan T

	ch chan T
}

// Hub fans payloads out to every subscriber of a topic. Delivery is best
// effort: a subscriber whose queue is full misses the message.
type Hub[T any] struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Subscription[T]
	buffer int
	logger *slog.Logger
}

func NewHub[T any](buffer int, logger *slog.Logger) *Hub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub[T]{
		topics: make(map[string]map[string]*Subscription[T]),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new observer of topic.
func (h *Hub[T]) Subscribe(topic string) *Subscription[T] {
	ch := make(chan T, h.buffer)
	sub := &Subscription[T]{ID: uuid.NewString(), Topic: topic, C: ch, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]*Subscription[T])
		h.topics[topic] = subs
	}
	subs[sub.ID] = sub
	h.logger.Debug("subscription added", "topic", topic, "subscription", sub.ID)
	return sub
}

// Unsubscribe removes sub and closes its channel. Calling it twice is a no-op.
func (h *Hub[T]) Unsubscribe(sub *Subscription[T]) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[sub.Topic]
	if !ok {
		return
	}
	if _, ok := subs[sub.ID]; !ok {
		return
	}
	delete(subs, sub.ID)
	if len(subs) == 0 {
		delete(h.topics, sub.Topic)
	}
	close(sub.ch)
	h.logger.Debug("subscription removed", "topic", sub.Topic, "subscription", sub.ID)
}

// Publish delivers payload to every current subscriber of topic without
// blocking. It never fails; the error return lets Hub satisfy publishers that
// can.
func (h *Hub[T]) Publish(_ context.Context, topic string, payload T) error {
	h.Deliver(topic, payload)
	return nil
}

// Deliver is Publish without the context, returning how many subscribers
// received the payload.
func (h *Hub[T]) Deliver(topic string, payload T) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.topics[topic] {
		select {
		case sub.ch <- payload:
			delivered++
		default:
			h.logger.Warn("subscriber queue full, dropping message", "topic", topic, "subscription", sub.ID)
		}
	}
	return delivered
}

// Subscribers reports how many observers topic currently has.
func (h *Hub[T]) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
