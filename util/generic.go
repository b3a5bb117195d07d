// util/generic.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import "iter"

func Select[T any](sel bool, a, b T) T {
	if sel {
		return a
	} else {
		return b
	}
}

///////////////////////////////////////////////////////////////////////////
// RingBuffer

// RingBuffer keeps the most recent values added to it, up to a fixed
// capacity.
type RingBuffer[V any] struct {
	values []V
	head   int // index of the oldest value
	n      int
}

func NewRingBuffer[V any](capacity int) *RingBuffer[V] {
	return &RingBuffer[V]{values: make([]V, max(capacity, 1))}
}

// Add appends the values, dropping the oldest ones once the buffer is full.
func (r *RingBuffer[V]) Add(values ...V) {
	for _, v := range values {
		r.values[(r.head+r.n)%len(r.values)] = v
		if r.n < len(r.values) {
			r.n++
		} else {
			r.head = (r.head + 1) % len(r.values)
		}
	}
}

func (r *RingBuffer[V]) Len() int {
	return r.n
}

// Last returns the most recently added value.
func (r *RingBuffer[V]) Last() (V, bool) {
	if r.n == 0 {
		var v V
		return v, false
	}
	return r.values[(r.head+r.n-1)%len(r.values)], true
}

// All iterates over the values from oldest to newest.
func (r *RingBuffer[V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		for i := range r.n {
			if !yield(r.values[(r.head+i)%len(r.values)]) {
				return
			}
		}
	}
}
