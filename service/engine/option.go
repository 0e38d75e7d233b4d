package engine

import (
	"github.com/rs/zerolog"
	"github.com/viant/bpmn/runtime/execution"
)

// Option configures an engine
type Option func(*Engine)

// WithConfig sets the engine configuration
func WithConfig(config Config) Option {
	return func(e *Engine) {
		e.config = config
	}
}

// WithLogger sets the engine logger
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithListeners adds activity lifecycle listeners
func WithListeners(listeners ...execution.Listener) Option {
	return func(e *Engine) {
		e.listeners = append(e.listeners, listeners...)
	}
}

// WithDispatcher sets the async continuation dispatcher
func WithDispatcher(dispatcher Dispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = dispatcher
	}
}
