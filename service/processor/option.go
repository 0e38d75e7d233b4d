package processor

import (
	"github.com/rs/zerolog"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/service/messaging"
	"github.com/viant/bpmn/service/messaging/memory"
)

// Option configures a processor
type Option func(*Service)

// WithMessageQueue sets the continuation queue implementation
func WithMessageQueue(queue messaging.Queue[execution.Continuation]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithWorkers sets the number of worker goroutines
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.WorkerCount = count
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger sets the processor logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func newMemoryQueue(buffer int) messaging.Queue[execution.Continuation] {
	config := memory.DefaultConfig()
	config.QueueBuffer = buffer
	return memory.NewQueue[execution.Continuation](config)
}
