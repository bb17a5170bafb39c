package eviction

import (
	"iter"
)

type fifoSet[T comparable] struct {
	// Elements in insertion order. Deleted elements leave a hole
	// behind that is skipped and compacted lazily.
	elements []fifoElement[T]
	indices  map[T]int
	first    int
}

type fifoElement[T comparable] struct {
	value   T
	deleted bool
}

// NewFIFOSet creates a new cache replacement set that implements the
// First In First Out (FIFO) policy.
//
// https://en.wikipedia.org/wiki/Cache_replacement_policies#First_in_first_out_(FIFO)
func NewFIFOSet[T comparable]() Set[T] {
	return &fifoSet[T]{
		indices: map[T]int{},
	}
}

func (s *fifoSet[T]) Insert(value T) {
	if _, ok := s.indices[value]; ok {
		panic("Attempted to insert value into cache replacement set twice")
	}
	s.indices[value] = len(s.elements)
	s.elements = append(s.elements, fifoElement[T]{value: value})
}

func (fifoSet[T]) Touch(value T) {}

func (s *fifoSet[T]) skipDeleted() {
	for s.first < len(s.elements) && s.elements[s.first].deleted {
		s.first++
	}
	if s.first == len(s.elements) {
		s.elements = s.elements[:0]
		s.first = 0
	} else if s.first >= 1024 && s.first*2 >= len(s.elements) {
		// Compact the list once the majority of it has been
		// consumed, so that memory usage remains bounded.
		remaining := make([]fifoElement[T], 0, len(s.elements)-s.first)
		for _, e := range s.elements[s.first:] {
			if !e.deleted {
				s.indices[e.value] = len(remaining)
				remaining = append(remaining, e)
			}
		}
		s.elements = remaining
		s.first = 0
	}
}

func (s *fifoSet[T]) Peek() T {
	s.skipDeleted()
	return s.elements[s.first].value
}

func (s *fifoSet[T]) Remove() {
	s.skipDeleted()
	delete(s.indices, s.elements[s.first].value)
	s.elements[s.first].deleted = true
	s.skipDeleted()
}

func (s *fifoSet[T]) Delete(value T) {
	if index, ok := s.indices[value]; ok {
		delete(s.indices, value)
		s.elements[index].deleted = true
		s.skipDeleted()
	}
}

func (s *fifoSet[T]) Len() int {
	return len(s.indices)
}

func (s *fifoSet[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, e := range s.elements[s.first:] {
			if !e.deleted && !yield(e.value) {
				return
			}
		}
	}
}
