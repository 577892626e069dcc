package service

import (
	"sync"

	"github.com/99minutos/tracking-live/internal/core/domain"
)

type channelEventKind int

const (
	eventDelta channelEventKind = iota + 1
	eventState
)

// channelEvent is either an inbound delta or a connection state change.
type channelEvent struct {
	kind  channelEventKind
	delta domain.Delta
	state domain.ConnState
}

// eventQueue is an unbounded FIFO of channel events. Producers never block,
// so a handler running on the loop may call back into the channel.
type eventQueue struct {
	mu     sync.Mutex
	events []channelEvent
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]channelEvent, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends e. It returns false once the queue is closed.
func (q *eventQueue) Enqueue(e channelEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the front event without blocking.
func (q *eventQueue) TryDequeue() (channelEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return channelEvent{}, false
	}
	e := q.events[0]
	q.events[0] = channelEvent{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait signals when events may be available. The channel is closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
