package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-lookup/internal/widget"
)

var (
	// ErrNotFound is returned when no session exists for a given ID.
	ErrNotFound = errors.New("no widget session for id")
)

// MemoryStore is a concurrency-safe in-memory registry of widget sessions.
type MemoryStore struct {
	mu sync.RWMutex

	// key: session id
	data map[string]*widget.Widget

	// retention configuration
	maxIdle time.Duration // sessions idle longer than this are evicted (0 = never)
}

// NewMemoryStore creates a new MemoryStore. If maxIdle is <= 0, sessions
// are kept until deleted.
func NewMemoryStore(maxIdle time.Duration) *MemoryStore {
	return &MemoryStore{
		data:    make(map[string]*widget.Widget),
		maxIdle: maxIdle,
	}
}

// Create registers w under a fresh random ID and returns the ID.
func (s *MemoryStore) Create(w *widget.Widget) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = w
	return id
}

// Get returns the session registered under id.
func (s *MemoryStore) Get(id string) (*widget.Widget, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return w, nil
}

// Delete removes a session and cancels its pending tasks.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	w, ok := s.data[id]
	delete(s.data, id)
	s.mu.Unlock()

	if ok {
		w.Close()
	}
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// EvictIdle removes sessions whose last activity is older than maxIdle
// relative to now, and returns how many were removed.
func (s *MemoryStore) EvictIdle(now time.Time) int {
	if s.maxIdle <= 0 {
		return 0
	}
	cutoff := now.Add(-s.maxIdle)

	var evicted []*widget.Widget

	s.mu.Lock()
	for id, w := range s.data {
		if w.LastActive().Before(cutoff) {
			evicted = append(evicted, w)
			delete(s.data, id)
		}
	}
	s.mu.Unlock()

	for _, w := range evicted {
		w.Close()
	}
	return len(evicted)
}
