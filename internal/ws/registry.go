package ws

import (
	"sync"

	"university-chat/backend/pkg/logger"
)

// Registry maps a user identity to its single live connection. It is owned by
// the DI container and injected into every session; there is no package-level
// instance. The map never holds more than one entry per identity.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Client
	log     *logger.Logger
}

// NewRegistry creates an empty connection registry
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*Client),
		log:     log.WithComponent("registry"),
	}
}

// Register inserts or replaces the entry for identity. A replaced client is
// not closed here; closing the socket is the owning session's job.
func (r *Registry) Register(identity string, c *Client) {
	r.mu.Lock()
	prev := r.entries[identity]
	r.entries[identity] = c
	count := len(r.entries)
	r.mu.Unlock()

	if prev != nil {
		r.log.Info("connection replaced", "identity", identity, "connections", count)
	} else {
		r.log.Info("connection registered", "identity", identity, "connections", count)
	}
}

// Unregister removes the entry for identity, but only while it still belongs
// to c. A session whose connection was replaced must not evict its successor.
// Safe to call any number of times.
func (r *Registry) Unregister(identity string, c *Client) {
	r.mu.Lock()
	current, ok := r.entries[identity]
	if ok && current == c {
		delete(r.entries, identity)
	}
	count := len(r.entries)
	r.mu.Unlock()

	if ok && current == c {
		r.log.Info("connection unregistered", "identity", identity, "connections", count)
	}
}

// TrySend forwards payload to the recipient's connection if one is live.
// The lookup is a snapshot: a recipient that disconnects between lookup and
// push simply receives nothing. A missing or saturated recipient is a normal
// outcome, never an error, and the call never blocks.
func (r *Registry) TrySend(identity string, payload []byte) bool {
	r.mu.RLock()
	c, ok := r.entries[identity]
	r.mu.RUnlock()

	if !ok {
		return false
	}

	select {
	case c.send <- payload:
		return true
	default:
		// Recipient's send buffer is full; drop rather than block the sender
		r.log.Warn("dropping frame for saturated recipient", "identity", identity)
		return false
	}
}

// Lookup reports whether an identity currently has a live connection
func (r *Registry) Lookup(identity string) bool {
	r.mu.RLock()
	_, ok := r.entries[identity]
	r.mu.RUnlock()
	return ok
}

// Len returns the number of live connections
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
