package executor

import (
	"sync"

	"github.com/rs/xid"
)

// item is a queued unit of work.
type item struct {
	id   xid.ID
	task Runnable
}

// queue is an unbounded FIFO shared by many producers and the single worker.
// ready holds at most one pending wake-up for the worker.
type queue struct {
	mu    sync.Mutex
	items []item
	ready chan struct{}
}

func newQueue() *queue {
	return &queue{ready: make(chan struct{}, 1)}
}

// push appends it and wakes the worker. It never blocks.
func (q *queue) push(it item) {
	q.mu.Lock()
	q.items = append(q.items, it)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// pop removes the head of the queue.
func (q *queue) pop() (item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return item{}, false
	}
	it := q.items[0]
	q.items[0] = item{}
	q.items = q.items[1:]
	return it, true
}

// drain removes and returns every queued item in order.
func (q *queue) drain() []item {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

func (q *queue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
