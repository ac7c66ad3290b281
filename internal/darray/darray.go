// Package darray implements a growable, strongly typed array.
//
// Capacity starts at DefaultCapacity and doubles whenever an append would
// overflow it, so appending and popping at the end are amortized O(1).
// Inserting or removing at an arbitrary index shifts the tail and is O(n).
package darray

import (
	"errors"
	"fmt"
)

const (
	// DefaultCapacity is the capacity of an array created with New.
	DefaultCapacity = 1
	// ResizeFactor is the growth factor applied when the array is full.
	ResizeFactor = 2
)

// ErrIndexOutOfRange is returned when an index falls outside the array.
var ErrIndexOutOfRange = errors.New("darray: index out of range")

// Array is a growable sequence of T. The zero value is an empty array
// ready to use.
type Array[T any] struct {
	elems []T
}

// New returns an empty array with DefaultCapacity.
func New[T any]() *Array[T] {
	return Reserve[T](DefaultCapacity)
}

// Reserve returns an empty array able to hold capacity elements before
// growing.
func Reserve[T any](capacity int) *Array[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Array[T]{elems: make([]T, 0, capacity)}
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.elems) }

// Cap returns the number of elements the array can hold before growing.
func (a *Array[T]) Cap() int { return cap(a.elems) }

// At returns the element at index i.
func (a *Array[T]) At(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(a.elems) {
		return zero, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, len(a.elems))
	}
	return a.elems[i], nil
}

// Set replaces the element at index i.
func (a *Array[T]) Set(i int, v T) error {
	if i < 0 || i >= len(a.elems) {
		return fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, len(a.elems))
	}
	a.elems[i] = v
	return nil
}

// Push appends v.
func (a *Array[T]) Push(v T) {
	a.grow(1)
	a.elems = append(a.elems, v)
}

// Pop removes and returns the last element. ok is false when the array is
// empty.
func (a *Array[T]) Pop() (v T, ok bool) {
	n := len(a.elems)
	if n == 0 {
		return v, false
	}
	v = a.elems[n-1]
	var zero T
	a.elems[n-1] = zero
	a.elems = a.elems[:n-1]
	return v, true
}

// InsertAt inserts v at index i, shifting later elements up by one.
// i may equal Len, which appends.
func (a *Array[T]) InsertAt(i int, v T) error {
	n := len(a.elems)
	if i < 0 || i > n {
		return fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, n)
	}
	a.grow(1)
	a.elems = a.elems[:n+1]
	copy(a.elems[i+1:], a.elems[i:n])
	a.elems[i] = v
	return nil
}

// PopAt removes and returns the element at index i, shifting later
// elements down by one.
func (a *Array[T]) PopAt(i int) (T, error) {
	var zero T
	n := len(a.elems)
	if i < 0 || i >= n {
		return zero, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, n)
	}
	v := a.elems[i]
	copy(a.elems[i:], a.elems[i+1:])
	a.elems[n-1] = zero
	a.elems = a.elems[:n-1]
	return v, nil
}

// Clear removes every element but keeps the capacity.
func (a *Array[T]) Clear() {
	clear(a.elems)
	a.elems = a.elems[:0]
}

// Slice returns the elements as a slice sharing the array's storage.
// It is only valid until the next mutation.
func (a *Array[T]) Slice() []T { return a.elems }

func (a *Array[T]) grow(extra int) {
	need := len(a.elems) + extra
	c := cap(a.elems)
	if need <= c {
		return
	}
	if c < DefaultCapacity {
		c = DefaultCapacity
	}
	for c < need {
		c *= ResizeFactor
	}
	elems := make([]T, len(a.elems), c)
	copy(elems, a.elems)
	a.elems = elems
}
