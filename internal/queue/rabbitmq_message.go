package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message pairs a decoded Job with the AMQP delivery it arrived on, so the
// worker can ack or nack on the same channel after processing.
type Message struct {
	Job         *Job
	DeliveryTag uint64
	Channel     *amqp.Channel
}

func (m *Message) Ack() error {
	return m.Channel.Ack(m.DeliveryTag, false)
}

// Nack rejects the message. With requeue false the broker dead-letters it.
func (m *Message) Nack(requeue bool) error {
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}

func (m *Message) GetJob() *Job {
	return m.Job
}
