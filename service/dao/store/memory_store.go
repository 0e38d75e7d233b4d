package store

import (
	"context"
	"sync"

	"github.com/viant/bpmn/service/dao"
)

// MemoryStore is a generic in-memory keyed store. Records are cloned on the
// way in and on the way out so callers never share state with the store.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	order       []K
	keySelector func(*T) K
	clone       func(*T) *T
}

// NewMemoryStore creates a new MemoryStore.
// keySelector extracts the entity key (usually the ID field) from a value.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K, clone func(*T) *T) *MemoryStore[K, T] {
	return &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
		clone:       clone,
	}
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, s.clone(v))
	return nil
}

// Insert stores a new record, failing if the key is taken.
func (s *MemoryStore[K, T]) Insert(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return dao.ErrInvalidID
	}
	s.put(key, s.clone(v))
	return nil
}

func (s *MemoryStore[K, T]) put(key K, v *T) {
	if _, ok := s.records[key]; !ok {
		s.order = append(s.order, key)
	}
	s.records[key] = v
}

// Load returns a record by key.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return s.clone(v), nil
}

// List returns records matching predicate in insertion order.
func (s *MemoryStore[K, T]) List(_ context.Context, predicate func(*T) bool) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, key := range s.order {
		v := s.records[key]
		if predicate != nil && !predicate(v) {
			continue
		}
		out = append(out, s.clone(v))
	}
	return out, nil
}

// DeleteWhere removes records matching predicate, returning the removed count.
func (s *MemoryStore[K, T]) DeleteWhere(_ context.Context, predicate func(*T) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	kept := s.order[:0]
	for _, key := range s.order {
		if predicate(s.records[key]) {
			delete(s.records, key)
			removed++
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept
	return removed, nil
}

// Update applies fn to stored records under the write lock; fn mutates
// records in place and returns false to stop iterating.
func (s *MemoryStore[K, T]) Update(_ context.Context, fn func(v *T) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.order {
		if !fn(s.records[key]) {
			return
		}
	}
}

// Modify applies fn to one record under the write lock.
func (s *MemoryStore[K, T]) Modify(_ context.Context, key K, fn func(v *T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[key]
	if !ok {
		return dao.ErrNotFound
	}
	return fn(v)
}

// Replace overwrites an existing record, failing if the key is unknown.
func (s *MemoryStore[K, T]) Replace(_ context.Context, v *T, check func(existing *T) error) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[key]
	if !ok {
		return dao.ErrNotFound
	}
	if check != nil {
		if err := check(existing); err != nil {
			return err
		}
	}
	s.records[key] = s.clone(v)
	return nil
}
