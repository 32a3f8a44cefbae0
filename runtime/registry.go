package runtime

import (
	"sync"

	"chat-relay/contract"
)

// Registry tracks every live connection's sink. It is the only piece of
// mutable shared state in the relay core and is safe for concurrent use:
// ingestion loops add and remove their own connection while in-flight
// broadcasts take snapshots.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]contract.EventSink)}
}

// Add registers a newly accepted connection. The connection becomes visible
// to future broadcast snapshots immediately.
func (r *Registry) Add(connectionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[connectionID] = sink
}

// Remove is idempotent: removing an already-removed connection is a no-op.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, connectionID)
}

// Snapshot returns the live set at a point in time. Broadcasts iterate the
// returned slice so that delivery never holds the registry lock while
// writing to a peer.
func (r *Registry) Snapshot() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, sink := range r.sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
