package dispatch

import (
	"container/heap"
	"sync"

	"github.com/gamesched/core/engine/taskstate"
)

// QueuedTask is one entry on either dispatch queue.
type QueuedTask struct {
	TID      taskstate.TID
	Deadline int64
}

// edfHeap is a container/heap min-heap over Deadline, giving
// earliest-deadline-first ordering for the shared queue. No third-party
// priority-queue dependency fits here; container/heap is the stdlib's
// idiomatic fit for a single bounded process-local heap (DESIGN.md).
type edfHeap []QueuedTask

func (h edfHeap) Len() int            { return len(h) }
func (h edfHeap) Less(i, j int) bool  { return h[i].Deadline < h[j].Deadline }
func (h edfHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *edfHeap) Push(x interface{}) { *h = append(*h, x.(QueuedTask)) }
func (h *edfHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SharedQueue is the fallback dispatch queue (spec.md §4.5 "shared
// (fallback)"): earliest-deadline-first, guarded by a mutex since every CPU
// that falls through select_cpu's step 6 may push or pop concurrently.
type SharedQueue struct {
	mu sync.Mutex
	h  edfHeap
}

// NewSharedQueue returns an empty SharedQueue.
func NewSharedQueue() *SharedQueue {
	return &SharedQueue{h: edfHeap{}}
}

// Push adds a task to the shared queue.
func (q *SharedQueue) Push(t QueuedTask) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.h, t)
}

// Pop removes and returns the earliest-deadline task, if any.
func (q *SharedQueue) Pop() (QueuedTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.h.Len() == 0 {
		return QueuedTask{}, false
	}
	return heap.Pop(&q.h).(QueuedTask), true
}

// Len reports the number of tasks currently queued.
func (q *SharedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.h.Len()
}

// LocalQueue is one CPU's local dispatch queue: plain FIFO (spec.md §4.5
// "FIFO within a local queue"). Touched only by its owning CPU's callback
// stream, so it carries no lock of its own (same single-owner-goroutine
// model as taskstate.CPUContext).
type LocalQueue struct {
	tasks []QueuedTask
}

// NewLocalQueue returns an empty LocalQueue.
func NewLocalQueue() *LocalQueue { return &LocalQueue{} }

// PushBack enqueues a task at the tail.
func (q *LocalQueue) PushBack(t QueuedTask) {
	q.tasks = append(q.tasks, t)
}

// PopFront dequeues the head task, if any.
func (q *LocalQueue) PopFront() (QueuedTask, bool) {
	if len(q.tasks) == 0 {
		return QueuedTask{}, false
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, true
}

// Len reports the number of tasks currently queued.
func (q *LocalQueue) Len() int { return len(q.tasks) }
