package tracker

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// key identifies one tracker slot.
type key struct {
	taskID    string
	sessionID string
}

// Registry is the process-wide (task_id, session_id) -> Tracker map: a
// single lock guards inserts/removes, and eviction is bounded by an LRU
// cache so a long-running process cannot accumulate unbounded trackers
// from abandoned sessions.
type Registry struct {
	mu    sync.Mutex
	cache *lru.Cache[key, *Tracker]
}

// NewRegistry constructs a Registry holding at most size trackers.
func NewRegistry(size int) *Registry {
	cache, err := lru.New[key, *Tracker](size)
	if err != nil {
		// size <= 0 is a programmer error; fall back to a sane minimum
		// rather than panicking in production code.
		cache, _ = lru.New[key, *Tracker](1)
	}
	return &Registry{cache: cache}
}

// GetOrCreate returns the existing Tracker for (taskID, sessionID), or
// creates and registers a new one.
func (r *Registry) GetOrCreate(taskID, sessionID string) *Tracker {
	k := key{taskID, sessionID}
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache.Get(k); ok {
		return t
	}
	t := New(taskID, sessionID)
	r.cache.Add(k, t)
	return t
}

// Remove drops the tracker for (taskID, sessionID), if any.
func (r *Registry) Remove(taskID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Remove(key{taskID, sessionID})
}

// Len reports how many trackers are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Len()
}
