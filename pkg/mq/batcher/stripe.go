package batcher

// stripe is a single unsynchronized batch buffer. Ownership is
// exclusive while checked out of the pool; flush may only run while no
// pusher holds the stripe.
type stripe[T any] struct {
	cons Consumer[T]
	data []T
	cap  int
}

func newStripe[T any](cons Consumer[T], capacity int) *stripe[T] {
	return &stripe[T]{
		cons: cons,
		data: make([]T, 0, capacity),
		cap:  capacity,
	}
}

// push appends item, handing the batch to the consumer once the stripe
// is full. The flushed slice is replaced, never reused, because the
// consumer owns it from then on.
func (s *stripe[T]) push(item T) {
	s.data = append(s.data, item)
	if len(s.data) >= s.cap {
		_ = s.cons.Consume(s.data)
		s.data = make([]T, 0, s.cap)
	}
}

// flush hands any resident tail to the consumer.
func (s *stripe[T]) flush() error {
	if len(s.data) == 0 {
		return nil
	}
	batch := s.data
	s.data = make([]T, 0, s.cap)
	return s.cons.Consume(batch)
}
