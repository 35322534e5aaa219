// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFOSingleProducer(t *testing.T) {
	q := New[string]()
	q.Push("A")
	q.Push("B")

	ctx := context.Background()
	for _, want := range []string{"A", "B"} {
		got, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, len=%d", q.Len())
	}
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := New[int]()
	got := make(chan int, 1)

	go func() {
		v, err := q.Pop(context.Background())
		if err != nil {
			return
		}
		got <- v
	}()

	select {
	case v := <-got:
		t.Fatalf("pop returned %d before any push", v)
	case <-time.After(50 * time.Millisecond):
	}

	q.Push(7)
	select {
	case v := <-got:
		if v != 7 {
			t.Fatalf("expected 7, got %d", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("pop did not wake after push")
	}
}

func TestQueue_PopCancelled(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestQueue_PerProducerOrderWithConcurrentProducers(t *testing.T) {
	const producers = 4
	const perProducer = 500

	q := New[string]()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(fmt.Sprintf("%d:%d", p, i))
			}
		}(p)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	next := make([]int, producers)
	for n := 0; n < producers*perProducer; n++ {
		v, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("pop %d: %v", n, err)
		}
		var p, i int
		if _, err := fmt.Sscanf(v, "%d:%d", &p, &i); err != nil {
			t.Fatalf("bad value %q: %v", v, err)
		}
		if i != next[p] {
			t.Fatalf("producer %d out of order: expected %d, got %d", p, next[p], i)
		}
		next[p]++
	}
	wg.Wait()
}
