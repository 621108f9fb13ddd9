package session

import (
	"sync"
	"time"
)

// ManagerFactory builds a manager (and its store) for a session ID.
type ManagerFactory func(sessionID string) *Manager

// Registry caches one Manager per browser session so in-memory state
// (loading phase, subscribers) survives across requests. Entries idle past
// the TTL are dropped; persisted storage makes a recreated manager resolve
// to the same state.
type Registry struct {
	mu       sync.Mutex
	factory  ManagerFactory
	ttl      time.Duration
	managers map[string]*registryEntry

	now func() time.Time
}

type registryEntry struct {
	manager  *Manager
	lastSeen time.Time
}

// NewRegistry builds a registry with the given idle TTL.
func NewRegistry(factory ManagerFactory, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Registry{
		factory:  factory,
		ttl:      ttl,
		managers: make(map[string]*registryEntry),
		now:      time.Now,
	}
}

// Get returns the manager for the session, creating it when absent.
func (r *Registry) Get(sessionID string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked()

	if entry, ok := r.managers[sessionID]; ok {
		entry.lastSeen = r.now()
		return entry.manager
	}

	manager := r.factory(sessionID)
	r.managers[sessionID] = &registryEntry{manager: manager, lastSeen: r.now()}
	return manager
}

// Drop removes the cached manager, e.g. after logout.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, sessionID)
}

// Len reports the number of cached managers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}

func (r *Registry) evictLocked() {
	cutoff := r.now().Add(-r.ttl)
	for id, entry := range r.managers {
		if entry.lastSeen.Before(cutoff) {
			delete(r.managers, id)
		}
	}
}
