// Package queue holds the hand-off between the network goroutine and the
// host's designated thread. Both queues are unbounded FIFOs with a
// get-and-clear Drain.
package queue

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mfulz/scenerelay/dispatch"
)

// Queue is a mutex guarded FIFO.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// Push appends an item.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// Drain returns every queued item in insertion order and empties the queue.
// It never blocks on an empty queue; the result is nil in that case.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len reports the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending is a decoded action waiting for the next tick.
type Pending struct {
	ID       string
	Label    string
	Action   dispatch.Action
	Enqueued time.Time
}

// CommandQueue pairs the raw inbound messages with the resolved actions.
type CommandQueue struct {
	messages Queue[[]byte]
	actions  Queue[Pending]
}

// New creates an empty CommandQueue.
func New() *CommandQueue {
	return &CommandQueue{}
}

// EnqueueMessage stores a raw message body.
func (c *CommandQueue) EnqueueMessage(body []byte) {
	c.messages.Push(body)
}

// DrainMessages returns and clears all raw message bodies.
func (c *CommandQueue) DrainMessages() [][]byte {
	return c.messages.Drain()
}

// EnqueueAction stores an action under label and returns its id.
func (c *CommandQueue) EnqueueAction(action dispatch.Action, label string) string {
	id := uuid.NewString()
	c.actions.Push(Pending{
		ID:       id,
		Label:    label,
		Action:   action,
		Enqueued: time.Now(),
	})
	return id
}

// DrainActions returns and clears all pending actions.
func (c *CommandQueue) DrainActions() []Pending {
	return c.actions.Drain()
}

// PendingMessages reports how many raw messages wait for decoding.
func (c *CommandQueue) PendingMessages() int {
	return c.messages.Len()
}

// PendingActions reports how many actions wait for execution.
func (c *CommandQueue) PendingActions() int {
	return c.actions.Len()
}
