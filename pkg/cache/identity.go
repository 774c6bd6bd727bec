// Package cache holds the identity caches mappers use to hand out one
// object per row for the lifetime of a mapper set.
package cache

import "sync"

// Store maps identifiers to the last materialized object.
// There is no eviction, TTL or size bound; entries live until removed or reset.
type Store[T any] interface {
	Get(id int64) (*T, bool)
	Put(id int64, v *T)
	Remove(id int64)
	Reset()
	Len() int
}

// IdentityMap is a Store guarded by a mutex. Concurrent callers never observe a
// partially written entry, but two goroutines loading the same row may still
// race to Put; the last writer wins.
type IdentityMap[T any] struct {
	mu      sync.RWMutex
	entries map[int64]*T
}

// NewIdentityMap creates an empty identity map.
func NewIdentityMap[T any]() *IdentityMap[T] {
	return &IdentityMap[T]{entries: make(map[int64]*T)}
}

func (m *IdentityMap[T]) Get(id int64) (*T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[id]
	return v, ok
}

func (m *IdentityMap[T]) Put(id int64, v *T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = v
}

func (m *IdentityMap[T]) Remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
}

func (m *IdentityMap[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[int64]*T)
}

func (m *IdentityMap[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Disabled returns a Store that never retains anything.
func Disabled[T any]() Store[T] {
	return disabled[T]{}
}

type disabled[T any] struct{}

func (disabled[T]) Get(int64) (*T, bool) { return nil, false }
func (disabled[T]) Put(int64, *T)        {}
func (disabled[T]) Remove(int64)         {}
func (disabled[T]) Reset()               {}
func (disabled[T]) Len() int             { return 0 }

var (
	_ Store[struct{}] = (*IdentityMap[struct{}])(nil)
	_ Store[struct{}] = disabled[struct{}]{}
)
