package job

import "github.com/rs/zerolog"

// Option configures a scheduler
type Option func(*Scheduler)

// WithConfig sets the scheduler configuration
func WithConfig(config Config) Option {
	return func(s *Scheduler) {
		s.config = config
	}
}

// WithLogger sets the scheduler logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithHandler registers a job type handler
func WithHandler(jobType string, handler Handler) Option {
	return func(s *Scheduler) {
		s.handlers[jobType] = handler
	}
}
