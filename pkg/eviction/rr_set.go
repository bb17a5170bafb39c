package eviction

import (
	"iter"

	"github.com/buildbarn/bb-blockworker/pkg/random"
)

type rrSet[T comparable] struct {
	generator random.SingleThreadedGenerator
	elements  []T
	indices   map[T]int
}

// NewRRSet creates a new cache replacement set that implements the
// Random Replacement (RR) policy.
//
// https://en.wikipedia.org/wiki/Cache_replacement_policies#Random_replacement_(RR)
func NewRRSet[T comparable](generator random.SingleThreadedGenerator) Set[T] {
	return &rrSet[T]{
		generator: generator,
		indices:   map[T]int{},
	}
}

func (s *rrSet[T]) set(index int, value T) {
	s.elements[index] = value
	s.indices[value] = index
}

func (s *rrSet[T]) Insert(value T) {
	if _, ok := s.indices[value]; ok {
		panic("Attempted to insert value into cache replacement set twice")
	}

	// Insert element into a random location in the list, opening up
	// space by moving an existing element to the end of the list.
	index := s.generator.IntN(len(s.elements) + 1)
	s.elements = append(s.elements, value)
	s.indices[value] = len(s.elements) - 1
	if index != len(s.elements)-1 {
		s.set(len(s.elements)-1, s.elements[index])
		s.set(index, value)
	}
}

func (rrSet[T]) Touch(value T) {}

func (s *rrSet[T]) Peek() T {
	return s.elements[len(s.elements)-1]
}

func (s *rrSet[T]) Remove() {
	last := len(s.elements) - 1
	delete(s.indices, s.elements[last])
	s.elements = s.elements[:last]
}

func (s *rrSet[T]) Delete(value T) {
	index, ok := s.indices[value]
	if !ok {
		return
	}
	last := len(s.elements) - 1
	if index != last {
		s.set(index, s.elements[last])
	}
	delete(s.indices, value)
	s.elements = s.elements[:last]
}

func (s *rrSet[T]) Len() int {
	return len(s.elements)
}

func (s *rrSet[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := len(s.elements) - 1; i >= 0; i-- {
			if !yield(s.elements[i]) {
				return
			}
		}
	}
}
