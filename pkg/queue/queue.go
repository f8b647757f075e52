package queue

import "errors"

// ErrQueueFull is returned by Enqueue when the queue is at capacity.
var ErrQueueFull = errors.New("queue is full")

// Queue represents a basic queue.
// Implementations must be thread-safe.
type Queue interface {
	// Enqueue adds an item without blocking. It returns ErrQueueFull when there is no room.
	Enqueue(item interface{}) error
	// ReadAllMessages drains and returns every pending item in FIFO order.
	ReadAllMessages() ([]interface{}, error)
	Size() int
}
