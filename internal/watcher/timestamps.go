package watcher

import (
	"sync"
	"time"
)

// Timestamps is the watcher-owned file_event_timestamps map from
// spec.md §3/§5: filepath -> time of the last observed filesystem event.
// Writes are small, independent keys, so a single fine-grained RWMutex
// is enough; no per-key locking is needed.
type Timestamps struct {
	mu sync.RWMutex
	m  map[string]time.Time
}

// NewTimestamps creates an empty timestamp map.
func NewTimestamps() *Timestamps {
	return &Timestamps{m: make(map[string]time.Time)}
}

// Touch records now() as the last event time for path. Idempotent: a
// platform that emits many rapid events for the same path can call this
// many times with no ill effect beyond keeping the latest timestamp.
func (t *Timestamps) Touch(path string, now time.Time) {
	t.mu.Lock()
	t.m[path] = now
	t.mu.Unlock()
}

// Get returns the recorded event time for path, and whether one exists.
func (t *Timestamps) Get(path string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.m[path]
	return v, ok
}

// Delete removes a path's event timestamp, e.g. once its FileMetadata is
// permanently gone.
func (t *Timestamps) Delete(path string) {
	t.mu.Lock()
	delete(t.m, path)
	t.mu.Unlock()
}
