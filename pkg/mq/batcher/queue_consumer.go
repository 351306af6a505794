package batcher

import (
	"go.uber.org/zap"

	"github.com/gostreamkit/streamkit/pkg/datastructs/queue"
)

var _ Consumer[int] = (*QueueConsumer[int])(nil)

// QueueConsumer flushes batches into a bounded blocking queue, giving the
// batcher's fan-in backpressure: a full queue stalls the flushing producer
// instead of growing unboundedly.
//
// Push failures after the queue is closed are the normal shutdown path;
// they are logged (with the dropped count) rather than retried.
type QueueConsumer[T any] struct {
	q   *queue.Blocking[T]
	log *zap.Logger
}

// NewQueueConsumer wires a blocking queue behind the batcher.
// A nil logger disables drop logging.
func NewQueueConsumer[T any](q *queue.Blocking[T], log *zap.Logger) *QueueConsumer[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueueConsumer[T]{q: q, log: log}
}

// Consume implements Consumer by pushing the whole batch into the queue,
// blocking while it is at capacity.
func (c *QueueConsumer[T]) Consume(batch []T) error {
	n, err := c.q.PushBatch(batch)
	if err != nil {
		c.log.Warn("dropping batch remainder, queue closed",
			zap.Int("enqueued", n),
			zap.Int("dropped", len(batch)-n),
		)
		return err
	}
	return nil
}
