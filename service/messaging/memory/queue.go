// Package memory provides a channel backed messaging.Queue with delayed
// redelivery and a dead letter list.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/bpmn/internal/clock"
	"github.com/viant/bpmn/internal/idgen"
	"github.com/viant/bpmn/service/messaging"
)

// ErrClosed is returned when publishing to a closed queue
var ErrClosed = errors.New("memory: queue closed")

// Config for memory queue implementation
type Config struct {
	// MaxRetries is the number of redeliveries after the first failed delivery
	MaxRetries  int           `json:"maxRetries" yaml:"maxRetries"`
	RetryDelay  time.Duration `json:"retryDelay" yaml:"retryDelay"`
	DeadLetter  bool          `json:"deadLetter" yaml:"deadLetter"`
	QueueBuffer int           `json:"queueBuffer" yaml:"queueBuffer"`
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// DeadLetter is a payload that exhausted its redeliveries
type DeadLetter[T any] struct {
	ID       string
	Payload  T
	Attempts int
	Error    string
	Time     time.Time
}

// Message is a single delivery of a queued payload
type Message[T any] struct {
	id       string
	payload  T
	attempts int
	queue    *Queue[T]
	once     sync.Once
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	settled := false
	m.once.Do(func() { settled = true })
	if !settled {
		return fmt.Errorf("message %v already settled", m.id)
	}
	return nil
}

// Nack schedules redelivery after the retry delay, or dead letters the payload
// once MaxRetries redeliveries failed
func (m *Message[T]) Nack(err error) error {
	settled := false
	m.once.Do(func() { settled = true })
	if !settled {
		return fmt.Errorf("message %v already settled", m.id)
	}
	if m.attempts <= m.queue.config.MaxRetries {
		redelivery := &Message[T]{id: m.id, payload: m.payload, attempts: m.attempts + 1, queue: m.queue}
		time.AfterFunc(m.queue.config.RetryDelay, func() {
			m.queue.enqueue(redelivery)
		})
		return nil
	}
	if m.queue.config.DeadLetter {
		letter := &DeadLetter[T]{ID: m.id, Payload: m.payload, Attempts: m.attempts, Time: clock.Now()}
		if err != nil {
			letter.Error = err.Error()
		}
		m.queue.mux.Lock()
		m.queue.dead = append(m.queue.dead, letter)
		m.queue.mux.Unlock()
	}
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	config   Config
	mux      sync.Mutex
	dead     []*DeadLetter[T]
	closed   bool
}

// Publish adds a new item to the queue, blocking while the buffer is full
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("memory: nil payload")
	}
	return q.publish(ctx, &Message[T]{id: idgen.New(), payload: *t, attempts: 1, queue: q})
}

func (q *Queue[T]) publish(ctx context.Context, message *Message[T]) error {
	q.mux.Lock()
	closed := q.closed
	q.mux.Unlock()
	if closed {
		return ErrClosed
	}
	select {
	case q.messages <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue[T]) enqueue(message *Message[T]) {
	_ = q.publish(context.Background(), message)
}

// Consume retrieves a single item from the queue
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case message := <-q.messages:
		return message, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close rejects further publishing; queued messages can still be consumed
func (q *Queue[T]) Close() {
	q.mux.Lock()
	defer q.mux.Unlock()
	q.closed = true
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DeadLetters returns a copy of the dead letter list
func (q *Queue[T]) DeadLetters() []*DeadLetter[T] {
	q.mux.Lock()
	defer q.mux.Unlock()
	return append([]*DeadLetter[T](nil), q.dead...)
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
