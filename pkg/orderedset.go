// Package pkg provides small generic utilities for gcodepp.
package pkg

import "sync"

// OrderedSet is a set that remembers insertion order. It is safe for
// concurrent use: one goroutine may Add while another iterates a snapshot.
type OrderedSet[T comparable] interface {
	Add(item T) bool
	Values() []T
	Range(f func(index int, item T) error) error
}

type orderedSetImpl[T comparable] struct {
	mu    sync.RWMutex
	index map[T]int
	items []T
}

// NewOrderedSet creates an empty OrderedSet for items of type T.
func NewOrderedSet[T comparable](items ...T) OrderedSet[T] {
	s := &orderedSetImpl[T]{
		index: make(map[T]int),
	}

	for _, item := range items {
		s.Add(item)
	}

	return s
}

// Add implements OrderedSet. It returns false when item was already present.
func (s *orderedSetImpl[T]) Add(item T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[item]; ok {
		return false
	}

	s.index[item] = len(s.items)
	s.items = append(s.items, item)

	return true
}

// Values implements OrderedSet. The returned slice is a copy.
func (s *orderedSetImpl[T]) Values() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([]T, len(s.items))
	copy(values, s.items)

	return values
}

// Range implements OrderedSet. It iterates a snapshot taken at call time, so f
// may call Add without deadlocking; items added meanwhile are not visited.
func (s *orderedSetImpl[T]) Range(f func(index int, item T) error) error {
	for i, item := range s.Values() {
		if err := f(i, item); err != nil {
			return err
		}
	}

	return nil
}
