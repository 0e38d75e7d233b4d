package bpmn

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/bpmn/extension"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/service/activity"
	instancedao "github.com/viant/bpmn/service/dao/instance"
	jobdao "github.com/viant/bpmn/service/dao/job"
	workflowdao "github.com/viant/bpmn/service/dao/workflow"
	"github.com/viant/bpmn/service/engine"
	"github.com/viant/bpmn/service/event"
	jobservice "github.com/viant/bpmn/service/job"
	"github.com/viant/bpmn/service/meta"
	"github.com/viant/bpmn/service/processor"
	"github.com/viant/bpmn/service/timer"
	"github.com/viant/bpmn/service/trigger"
	"github.com/viant/x"
)

// Service wires the engine with its stores, the job scheduler and the
// continuation processor
type Service struct {
	config         *Config
	logger         zerolog.Logger
	runtime        *Runtime
	registry       *extension.Registry
	workflows      workflowdao.Store
	instances      instancedao.Store
	jobs           jobdao.Store
	activities     map[string]extension.ActivityFactory
	extensionTypes []*x.Type
	listeners      []execution.Listener
	eventService   *event.Service
	metaService    *meta.Service
	metaBaseURL    string
	metaFsOptions  []storage.Option
}

func (s *Service) init(ctx context.Context, options []Option) error {
	for _, option := range options {
		option(s)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if err := s.ensureBaseSetup(ctx); err != nil {
		return err
	}
	s.registry = extension.NewRegistry(s.extensionTypes...)
	activity.Register(s.registry)
	trigger.Register(s.registry)
	timer.Register(s.registry)
	for kind, factory := range s.activities {
		s.registry.RegisterActivity(kind, factory)
	}
	if s.eventService != nil {
		s.listeners = append(s.listeners, event.NewActivityListener(s.eventService))
	}

	anEngine := engine.New(s.registry, s.workflows, s.instances, s.jobs,
		engine.WithConfig(engine.Config{EngineID: s.config.EngineID, Lock: s.config.Lock}),
		engine.WithLogger(s.logger),
		engine.WithListeners(s.listeners...))
	aProcessor, err := processor.New(anEngine,
		processor.WithConfig(s.config.Processor),
		processor.WithLogger(s.logger))
	if err != nil {
		return fmt.Errorf("failed to create processor: %w", err)
	}
	anEngine.SetDispatcher(aProcessor)

	schedulerOptions := []jobservice.Option{
		jobservice.WithConfig(jobservice.Config{PollInterval: s.config.Scheduler.PollInterval}),
		jobservice.WithLogger(s.logger),
	}
	for _, handlers := range []map[string]jobservice.Handler{timer.Handlers(), activity.Handlers()} {
		for jobType, handler := range handlers {
			schedulerOptions = append(schedulerOptions, jobservice.WithHandler(jobType, handler))
		}
	}
	scheduler := jobservice.New(s.jobs, anEngine, s.config.EngineID, schedulerOptions...)

	s.runtime = &Runtime{
		config:      s.config,
		engine:      anEngine,
		processor:   aProcessor,
		scheduler:   scheduler,
		metaService: s.metaService,
		logger:      s.logger,
	}
	return nil
}

func (s *Service) ensureBaseSetup(ctx context.Context) error {
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), s.metaBaseURL, s.metaFsOptions...)
	}
	if s.workflows == nil {
		if s.config.WorkflowStoreURL != "" {
			store, err := workflowdao.NewFS(ctx, s.config.WorkflowStoreURL, s.logger)
			if err != nil {
				return fmt.Errorf("failed to create workflow store: %w", err)
			}
			s.workflows = store
		} else {
			s.workflows = workflowdao.NewMemory()
		}
	}
	if s.instances == nil {
		s.instances = instancedao.NewMemory()
	}
	if s.jobs == nil {
		store, err := jobdao.NewMemory()
		if err != nil {
			return fmt.Errorf("failed to create job store: %w", err)
		}
		s.jobs = store
	}
	return nil
}

// Runtime returns the service runtime
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Registry returns the activity, trigger and timer kind registry
func (s *Service) Registry() *extension.Registry {
	return s.registry
}

// Config returns the effective configuration
func (s *Service) Config() *Config {
	return s.config
}

// New creates a service
func New(ctx context.Context, options ...Option) (*Service, error) {
	ret := &Service{
		config:     DefaultConfig(),
		logger:     zerolog.New(os.Stderr).With().Timestamp().Logger(),
		activities: make(map[string]extension.ActivityFactory),
	}
	if err := ret.init(ctx, options); err != nil {
		return nil, err
	}
	return ret, nil
}
