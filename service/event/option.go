package event

import (
	"github.com/rs/zerolog"
	"github.com/viant/bpmn/service/messaging/memory"
)

type Option func(s *Service)

// WithNewMemoryQueueConfig sets the per event type memory queue configuration
func WithNewMemoryQueueConfig(newConfig func(name string) memory.Config) Option {
	return func(s *Service) {
		s.newQueueConfig = newConfig
	}
}

// WithLogger sets the logger used by listeners
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}
