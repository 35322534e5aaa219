// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package queue provides the line queue shared by every device reader and
// the telemetry aggregator.
package queue

import (
	"context"
	"sync"
)

// Queue is an unbounded multi-producer / single-consumer FIFO.
//
// Capacity is intentionally unbounded: producers are serial readers that must
// never stall on a slow consumer, and dropping device lines is worse than
// buffering them. Values pushed by one producer come out in the order they
// were pushed; values from different producers interleave in arrival order.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{} // capacity 1, signalled on every push
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{notify: make(chan struct{}, 1)}
}

// Push appends v. It never blocks.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest value, blocking while the queue is
// empty. It returns ctx.Err() if ctx is cancelled first.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		if v, ok := q.tryPop(); ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.notify:
		}
	}
}

// Len reports the number of buffered values.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) tryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	v := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		// release the backing array once drained
		q.items = nil
	}
	return v, true
}
