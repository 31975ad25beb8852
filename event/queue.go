package event

import (
	"sync/atomic"

	"github.com/lixenwraith/sketchwall/parameter"
)

// Queue is a lock-free MPSC ring buffer for inbound messages
// Thread-Safety:
//   - Push: Lock-free CAS, multiple producers OK
//   - Drain: Single consumer (control loop)
//   - Published flags prevent reading partial writes
//
// Overflow: Push rejects when full; queued messages are never overwritten
type Queue struct {
	events    [parameter.EventQueueSize]Event
	published [parameter.EventQueueSize]atomic.Bool // True = slot fully written
	head      atomic.Uint64                         // Read index
	tail      atomic.Uint64                         // Write index
	signal    chan struct{}
}

func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Push adds an event and wakes the consumer; false when the ring is full
func (q *Queue) Push(ev Event) bool {
	for {
		tail := q.tail.Load()
		if tail-q.head.Load() >= parameter.EventQueueSize {
			return false
		}
		if q.tail.CompareAndSwap(tail, tail+1) {
			idx := tail & parameter.EventBufferMask
			q.events[idx] = ev
			q.published[idx].Store(true) // MUST be after write

			select {
			case q.signal <- struct{}{}:
			default:
			}
			return true
		}
	}
}

// Signal receives a value after at least one Push since the last receive
func (q *Queue) Signal() <-chan struct{} { return q.signal }

// Drain appends pending events to dst in FIFO order and advances head
// Stops at the first slot whose writer has not finished
func (q *Queue) Drain(dst []Event) []Event {
	head := q.head.Load()
	tail := q.tail.Load()
	n := uint64(0)
	for ; head+n < tail; n++ {
		idx := (head + n) & parameter.EventBufferMask
		if !q.published[idx].Load() {
			break // Writer incomplete
		}
		dst = append(dst, q.events[idx])
		q.events[idx] = Event{}
		q.published[idx].Store(false)
	}
	q.head.Store(head + n)
	return dst
}

// Len returns approximate pending event count
func (q *Queue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	return int(tail - head)
}
