package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

type Options struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 4096
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	return o
}

// Hub tracks WebSocket clients per topic and broadcasts events to them.
// The hub lock is never held while a socket is written; clients own their writes.
type Hub struct {
	opts   Options
	logger *slog.Logger

	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
	closed bool
}

func NewHub(opts Options, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		opts:   opts.withDefaults(),
		logger: logger.With("component", "ws_hub"),
		topics: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.topics[c.topic]
	if !ok {
		set = make(map[*Client]struct{})
		h.topics[c.topic] = set
	}
	set[c] = struct{}{}
	return true
}

// unregister removes c and closes its send queue. Safe to call more than once.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	set := h.topics[c.topic]
	_, existed := set[c]
	delete(set, c)
	if len(set) == 0 {
		delete(h.topics, c.topic)
	}
	h.mu.Unlock()

	if existed {
		c.closeSend()
		h.logger.Debug("ws_unsubscribed", "topic", c.topic, "user", c.displayUser())
	}
}

func (h *Hub) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("ws_publish_failed", "reason", "marshal event", "error", err)
		return
	}
	h.Broadcast(TopicBooks, data)
}

// Broadcast queues data for every client of topic. Clients with a full queue miss it.
func (h *Hub) Broadcast(topic string, data []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.topics[topic]))
	for c := range h.topics[topic] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range clients {
		if !c.trySend(data) {
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("ws_broadcast_dropped", "topic", topic, "recipients", len(clients), "dropped", dropped)
	}
}

func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var clients []*Client
	for _, set := range h.topics {
		for c := range set {
			clients = append(clients, c)
		}
	}
	h.topics = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.closeSend()
		_ = c.conn.Close()
	}
}
