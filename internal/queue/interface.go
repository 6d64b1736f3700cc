package queue

import (
	"context"
)

// MessageInterface abstracts a delivered message so workers can be tested
// against stub deliveries instead of a live broker.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue carries chat history-append jobs from the API server to the
// worker process.
type JobQueue interface {
	// Enqueue publishes a job. It must not lose the job silently; an error
	// means the caller should log and move on, since history persistence is
	// best-effort and must never block the chat reply.
	Enqueue(ctx context.Context, job *Job) error

	// Dequeue pulls a single message, or nil when the queue is empty. The
	// caller acknowledges the message.
	//
	// Deprecated: prefer Consume, which delivers messages as they arrive
	// instead of polling.
	Dequeue(ctx context.Context) (*Message, error)

	// Consume streams messages until ctx is cancelled. prefetchCount bounds
	// how many unacknowledged messages a consumer holds at once. The message
	// channel is closed on cancellation or broker error; the caller
	// acknowledges each message.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	Close() error

	// HealthCheck verifies the broker connection is usable.
	HealthCheck(ctx context.Context) error
}
