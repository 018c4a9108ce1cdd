package queue

import (
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrAlreadySettled is returned when a delivery is acked or nacked twice.
var ErrAlreadySettled = errors.New("delivery already settled")

// Message is one decoded notification job and the broker delivery it came from.
// A delivery can be settled exactly once; later calls return ErrAlreadySettled.
type Message struct {
	Job *Job

	delivery amqp.Delivery
	once     sync.Once
}

func newMessage(job *Job, delivery amqp.Delivery) *Message {
	return &Message{Job: job, delivery: delivery}
}

// Ack confirms the notification was handled.
func (m *Message) Ack() error {
	return m.settle(func() error { return m.delivery.Ack(false) })
}

// Nack rejects the delivery. Without requeue the broker routes it to the DLQ.
func (m *Message) Nack(requeue bool) error {
	return m.settle(func() error { return m.delivery.Nack(false, requeue) })
}

// GetJob returns the decoded job
func (m *Message) GetJob() *Job {
	return m.Job
}

func (m *Message) settle(fn func() error) error {
	err := ErrAlreadySettled
	m.once.Do(func() {
		if m.delivery.Acknowledger == nil {
			err = errors.New("delivery has no acknowledger")
			return
		}
		err = fn()
	})
	return err
}

var _ MessageInterface = (*Message)(nil)
