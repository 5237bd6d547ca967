package runtime

import (
	"sync"

	"talkline/contract"
)

// Registry is the in-memory presence table: user id -> live connections.
// It is rebuilt from scratch as connections are re-established after a restart.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]contract.EventSink // user -> conn id -> sink
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]map[string]contract.EventSink),
	}
}

// Register records a live connection for a user. A user can hold several
// connections at once (phone and browser); each gets its own conn id.
func (r *Registry) Register(userID, connID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[userID]; !ok {
		r.sessions[userID] = make(map[string]contract.EventSink)
	}
	r.sessions[userID][connID] = sink
}

// Lookup returns every currently-registered sink for the user.
// Nil means the user is offline and delivery should be skipped.
func (r *Registry) Lookup(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(conns))
	for _, sink := range conns {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Unregister removes one connection of a user. Removing the last one removes
// the user entry entirely so the map never leaks offline users.
// Unknown ids are a safe no-op.
func (r *Registry) Unregister(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.sessions[userID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.sessions, userID)
	}
}

// Online reports how many users currently hold at least one connection.
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
