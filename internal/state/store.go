package state

import (
	"sync"
	"time"
)

// Store holds one value of T and hands out independent copies of it.
type Store[T any] struct {
	mu          sync.RWMutex
	value       T
	clone       func(T) T
	lastUpdated time.Time

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// New returns a Store seeded with initial. clone must deep-copy any slices,
// maps or pointers in T; a nil clone copies by value.
func New[T any](initial T, clone func(T) T) *Store[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Store[T]{value: initial, clone: clone}
}

// Update replaces the value with fn(current) under the write lock and
// returns a copy of the result. fn must not block or call back into s.
func (s *Store[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	s.value = fn(s.value)
	s.lastUpdated = time.Now()
	out := s.clone(s.value)
	s.mu.Unlock()

	s.notify()
	return out
}

// Snapshot returns a copy of the current value.
func (s *Store[T]) Snapshot() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clone(s.value)
}

// LastUpdated reports when Update last ran.
func (s *Store[T]) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// Subscribe returns a channel that receives a signal after updates. Signals
// coalesce: a slow reader sees one pending signal, never a backlog. Call the
// returned func to unsubscribe.
func (s *Store[T]) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]chan struct{})
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store[T]) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
