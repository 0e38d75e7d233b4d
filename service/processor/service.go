package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/service/messaging"
	"github.com/viant/bpmn/tracing"
)

// Config represents processor configuration
type Config struct {
	// WorkerCount is the number of goroutines consuming continuations
	WorkerCount int `json:"workers" yaml:"workers"`
	// QueueBuffer sizes the default memory queue
	QueueBuffer int `json:"queueBuffer" yaml:"queueBuffer"`
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{
		WorkerCount: 4,
		QueueBuffer: 100,
	}
}

// Continuer executes a deferred activity instance under its instance lock
type Continuer interface {
	Continue(ctx context.Context, continuation *execution.Continuation) (*model.WorkflowInstance, error)
}

// Service runs asynchronous continuations on a worker pool
type Service struct {
	config     Config
	queue      messaging.Queue[execution.Continuation]
	engine     Continuer
	logger     zerolog.Logger
	workers    []*worker
	workerWg   sync.WaitGroup
	shutdownCh chan struct{}
	stopOnce   sync.Once
}

type worker struct {
	id       int
	service  *Service
	ctx      context.Context
	cancelFn context.CancelFunc
}

// Dispatch queues a continuation for a worker
func (s *Service) Dispatch(ctx context.Context, continuation *execution.Continuation) error {
	select {
	case <-s.shutdownCh:
		return fmt.Errorf("processor is shut down")
	default:
	}
	return s.queue.Publish(ctx, continuation)
}

// Start begins consuming continuations
func (s *Service) Start(ctx context.Context) error {
	for i := 0; i < s.config.WorkerCount; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		aWorker := &worker{
			id:       i,
			service:  s,
			ctx:      workerCtx,
			cancelFn: cancel,
		}
		s.workers = append(s.workers, aWorker)
		s.workerWg.Add(1)
		go aWorker.run()
	}
	return nil
}

func (w *worker) run() {
	defer w.service.workerWg.Done()
	logger := w.service.logger.With().Int("worker", w.id).Logger()
	for {
		message, err := w.service.queue.Consume(w.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			logger.Warn().Err(err).Msg("failed to consume continuation")
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if message == nil {
			continue
		}
		if err = w.service.processMessage(w.ctx, message); err != nil {
			logger.Error().Err(err).Msg("failed to settle continuation")
		}
	}
}

func (s *Service) processMessage(ctx context.Context, message messaging.Message[execution.Continuation]) (err error) {
	continuation := message.T()
	ctx, span := tracing.StartSpan(ctx, "processor.continue", "CONSUMER")
	span.WithAttributes(map[string]string{
		"workflowInstance.id": continuation.WorkflowInstanceID,
		"activityInstance.id": continuation.ActivityInstanceID,
	})
	defer func() { tracing.EndSpan(span, err) }()

	if _, err = s.engine.Continue(ctx, continuation); err != nil {
		s.logger.Warn().Err(err).
			Str("workflowInstance", continuation.WorkflowInstanceID).
			Str("activityInstance", continuation.ActivityInstanceID).
			Msg("continuation failed")
		return message.Nack(err)
	}
	return message.Ack()
}

// Shutdown stops the workers and waits for in-flight continuations
func (s *Service) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.shutdownCh)
		for _, aWorker := range s.workers {
			aWorker.cancelFn()
		}
	})
	s.workerWg.Wait()
}

// New creates a processor
func New(engine Continuer, options ...Option) (*Service, error) {
	s := &Service{
		config:     DefaultConfig(),
		engine:     engine,
		logger:     zerolog.Nop(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if s.config.WorkerCount <= 0 {
		s.config.WorkerCount = DefaultConfig().WorkerCount
	}
	if s.queue == nil {
		s.queue = newMemoryQueue(s.config.QueueBuffer)
	}
	return s, nil
}
