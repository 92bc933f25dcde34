package project

import (
	"container/heap"
	"sync"
)

// checksumQueue is a thread-safe, largest-file-first work queue of
// walkEntry: the heap invariant keeps the biggest unhashed file always at
// the front, so a bounded worker pool never starves on a long tail of
// small files while a handful of large ones serialize behind them.
type checksumQueue struct {
	mu    sync.Mutex
	items checksumHeap
}

func newChecksumQueue(entries []walkEntry) *checksumQueue {
	q := &checksumQueue{items: make(checksumHeap, len(entries))}
	copy(q.items, entries)
	heap.Init(&q.items)
	return q
}

// next pops the largest remaining entry, or reports false once drained.
func (q *checksumQueue) next() (walkEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return walkEntry{}, false
	}
	return heap.Pop(&q.items).(walkEntry), true
}

// checksumHeap orders walkEntry by descending size via container/heap.
type checksumHeap []walkEntry

func (h checksumHeap) Len() int            { return len(h) }
func (h checksumHeap) Less(i, j int) bool  { return h[i].size > h[j].size }
func (h checksumHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *checksumHeap) Push(x interface{}) { *h = append(*h, x.(walkEntry)) }

func (h *checksumHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
