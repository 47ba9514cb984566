package core

import (
	"sort"
	"sync"
)

// Registry maps logged-in display names to their clients.
// All access goes through its methods; the map itself is never exposed.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Register binds name to client unless the name is already taken.
// The check and the insert happen under one lock.
func (r *Registry) Register(name string, c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[name]; exists {
		return ErrNameTaken
	}
	r.clients[name] = c
	return nil
}

// Unregister removes name. Removing an absent name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.clients, name)
	r.mu.Unlock()
}

// Contains reports whether name is currently registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	_, ok := r.clients[name]
	r.mu.RUnlock()
	return ok
}

// Names returns a sorted snapshot of registered names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// ForEach calls fn for every client registered at call time.
// fn runs outside the lock, so it may block and the registry may change meanwhile.
func (r *Registry) ForEach(fn func(name string, c *Client)) {
	type entry struct {
		name   string
		client *Client
	}

	r.mu.RLock()
	snapshot := make([]entry, 0, len(r.clients))
	for name, c := range r.clients {
		snapshot = append(snapshot, entry{name: name, client: c})
	}
	r.mu.RUnlock()

	for _, e := range snapshot {
		fn(e.name, e.client)
	}
}
