// Package pqueue provides a min-priority queue with FIFO ordering among
// equal priorities, so searches built on it are deterministic.
package pqueue

import "container/heap"

type item[T any] struct {
	value    T
	priority int
	seq      uint64
}

type items[T any] []item[T]

func (h items[T]) Len() int { return len(h) }

func (h items[T]) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h items[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *items[T]) Push(x any) { *h = append(*h, x.(item[T])) }

func (h *items[T]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	var zero item[T]
	old[n-1] = zero
	*h = old[:n-1]
	return it
}

// Queue is a min-priority queue. The zero value is ready to use.
type Queue[T any] struct {
	h   items[T]
	seq uint64
}

// Push adds value with the given priority.
func (q *Queue[T]) Push(value T, priority int) {
	heap.Push(&q.h, item[T]{value: value, priority: priority, seq: q.seq})
	q.seq++
}

// Pop removes and returns the value with the lowest priority; among equal
// priorities the earliest pushed wins. It panics on an empty queue.
func (q *Queue[T]) Pop() (T, int) {
	it := heap.Pop(&q.h).(item[T])
	return it.value, it.priority
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int {
	return q.h.Len()
}
