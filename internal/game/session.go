package game

import (
	"sync"

	"github.com/google/uuid"
)

// SessionRegistry holds the live Consumption instance per active user so
// session-only fields (starting points, last question, filter) survive
// across requests without being persisted. At most one instance per user
// is ever live.
type SessionRegistry struct {
	mu    sync.Mutex
	users map[uuid.UUID]*Consumption
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{users: make(map[uuid.UUID]*Consumption)}
}

// Get returns the live instance for userID, or nil.
func (r *SessionRegistry) Get(userID uuid.UUID) *Consumption {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID]
}

// Put installs the live instance for its user.
func (r *SessionRegistry) Put(c *Consumption) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[c.UserID] = c
}

// Remove drops the live instance, typically on logout.
func (r *SessionRegistry) Remove(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, userID)
}
