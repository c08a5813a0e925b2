package internal

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SessionRegistry maps opaque session ids to the source URL they were created
// for. Ids are short random tokens handed to clients after analysis and
// resolved again when a clip download comes in. Entries live for the process
// lifetime; there is no eviction, so long-running deployments should recycle
// the process or front it with something that does.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]string)}
}

// Create registers sourceURL under a fresh id and returns the id.
func (r *SessionRegistry) Create(sourceURL string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		id := uuid.NewString()[:8]
		if _, taken := r.sessions[id]; taken {
			continue
		}
		r.sessions[id] = sourceURL
		return id
	}
}

// Resolve returns the source URL registered under id.
func (r *SessionRegistry) Resolve(id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	url, ok := r.sessions[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return url, nil
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
