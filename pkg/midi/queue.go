package midi

import (
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// DefaultQueueSize is the number of events a queue holds between drains.
const DefaultQueueSize = 256

// Queue is a fixed capacity ring of events. One goroutine may push while
// another drains; neither blocks nor allocates. Events pushed while the
// queue is full are dropped and counted.
type Queue struct {
	slots   []Event
	mask    uint64
	head    atomic.Uint64
	tail    atomic.Uint64
	dropped atomic.Uint64
}

// NewQueue creates a queue for at least capacity events.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultQueueSize
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Queue{
		slots: make([]Event, size),
		mask:  uint64(size - 1),
	}
}

// Push copies e into the next free slot.
func (q *Queue) Push(e Event) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() >= uint64(len(q.slots)) {
		q.dropped.Add(1)
		return false
	}
	q.slots[tail&q.mask] = e
	q.tail.Store(tail + 1)
	return true
}

// PushMessage decodes msg and queues it at the given frame offset.
func (q *Queue) PushMessage(msg gomidi.Message, offset int32) bool {
	e, ok := FromMessage(msg)
	if !ok {
		q.dropped.Add(1)
		return false
	}
	e.Offset = offset
	return q.Push(e)
}

// Pop removes the oldest event. Its slot is free for reuse on return.
func (q *Queue) Pop() (Event, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return Event{}, false
	}
	e := q.slots[head&q.mask]
	q.head.Store(head + 1)
	return e, true
}

// Drain pops every queued event in order, handing each to fn, and returns
// how many were drained.
func (q *Queue) Drain(fn func(Event)) int {
	n := 0
	for {
		e, ok := q.Pop()
		if !ok {
			return n
		}
		fn(e)
		n++
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return len(q.slots)
}

// Dropped returns the number of events rejected since creation.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Clear discards queued events. Only the draining side may call it.
func (q *Queue) Clear() {
	q.head.Store(q.tail.Load())
}
