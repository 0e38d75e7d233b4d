package bpmn

import (
	"github.com/rs/zerolog"
	"github.com/viant/afs/storage"
	"github.com/viant/bpmn/extension"
	"github.com/viant/bpmn/runtime/execution"
	instancedao "github.com/viant/bpmn/service/dao/instance"
	jobdao "github.com/viant/bpmn/service/dao/job"
	workflowdao "github.com/viant/bpmn/service/dao/workflow"
	"github.com/viant/bpmn/service/event"
	"github.com/viant/bpmn/service/meta"
	"github.com/viant/bpmn/tracing"
	"github.com/viant/x"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Service
type Option func(s *Service)

// WithConfig sets the service configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger sets the logger shared by every component
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithWorkflowStore sets the workflow store
func WithWorkflowStore(store workflowdao.Store) Option {
	return func(s *Service) {
		s.workflows = store
	}
}

// WithInstanceStore sets the workflow instance store
func WithInstanceStore(store instancedao.Store) Option {
	return func(s *Service) {
		s.instances = store
	}
}

// WithJobStore sets the job store
func WithJobStore(store jobdao.Store) Option {
	return func(s *Service) {
		s.jobs = store
	}
}

// WithActivity registers a custom activity kind
func WithActivity(kind string, factory extension.ActivityFactory) Option {
	return func(s *Service) {
		s.activities[kind] = factory
	}
}

// WithExtensionTypes registers Go types usable as variable data types
func WithExtensionTypes(types ...*x.Type) Option {
	return func(s *Service) {
		s.extensionTypes = append(s.extensionTypes, types...)
	}
}

// WithEventService sets the event service activity events are published to
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithListeners adds execution listeners
func WithListeners(listeners ...execution.Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, listeners...)
	}
}

// WithMetaService sets the meta service
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// WithMetaBaseURL sets the base URL relative workflow and config locations resolve against
func WithMetaBaseURL(URL string) Option {
	return func(s *Service) {
		s.metaBaseURL = URL
	}
}

// WithMetaFsOptions with meta file system options
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.metaFsOptions = options
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// spans are written to stdout.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		if err := tracing.Init(serviceName, serviceVersion, outputFile); err != nil {
			s.logger.Warn().Err(err).Msg("failed to init tracing")
		}
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter,
// for example OTLP, Jaeger or Zipkin.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err != nil {
			s.logger.Warn().Err(err).Msg("failed to init tracing")
		}
	}
}
