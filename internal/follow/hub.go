// Package follow broadcasts the curated output stream to WebSocket
// clients so a session can be watched from another machine. The hub is
// a mirror for the sink: it never blocks the watch loop, dropping
// events for clients that cannot keep up.
package follow

import (
	"log/slog"
	"sync"
)

// Event is one curated line as delivered to follow clients.
type Event struct {
	Stream string `json:"stream"`
	Line   string `json:"line"`
}

// Hub fans emitted lines out to registered clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	events chan Event
	done   chan struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// MirrorLine implements the sink mirror: it broadcasts the line to all
// clients with a non-blocking send.
func (h *Hub) MirrorLine(stream, line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.events <- Event{Stream: stream, Line: line}:
		case <-c.done:
		default:
			// Slow client; dropping beats stalling the watch loop.
			slog.Debug("follow client lagging, event dropped")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() *client {
	c := &client{
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Info("follow client connected")
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.done)
	slog.Info("follow client disconnected")
}
