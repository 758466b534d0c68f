package queue

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by Enqueue when the queue is at capacity.
var ErrQueueFull = errors.New("queue is full")

// InMemoryQueue implements an in-memory queue over a buffered channel.
type InMemoryQueue struct {
	ch chan interface{}
}

// NewInMemoryQueue creates a new queue with the given capacity.
func NewInMemoryQueue(size int) *InMemoryQueue {
	return &InMemoryQueue{
		ch: make(chan interface{}, size),
	}
}

// Enqueue adds an item to the end of the queue without blocking.
func (q *InMemoryQueue) Enqueue(item interface{}) error {
	select {
	case q.ch <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue removes and returns the item from the front of the queue,
// blocking until an item is available or the context is canceled.
func (q *InMemoryQueue) Dequeue(ctx context.Context) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case item := <-q.ch:
		return item, nil
	}
}

// Size returns the current size of the queue.
func (q *InMemoryQueue) Size() int {
	return len(q.ch)
}

// ReadAllMessages reads all pending messages in the queue.
func (q *InMemoryQueue) ReadAllMessages() []interface{} {
	var messages []interface{}
	for {
		select {
		case item := <-q.ch:
			messages = append(messages, item)
		default:
			return messages
		}
	}
}

// ClearQueue clears all messages from the queue.
func (q *InMemoryQueue) ClearQueue() {
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}
