package queue

// Queue is a generic interface for bounded FIFO queues.
type Queue[T any] interface {
	// TryPush adds an item without blocking.
	// Returns false if the queue is full or closed.
	TryPush(item T) bool

	// TryPop removes and returns an item without blocking.
	// Returns (item, true) if successful, (zero, false) if the queue is empty.
	TryPop() (T, bool)

	// Capacity returns the current capacity bound of the queue.
	Capacity() int
}
