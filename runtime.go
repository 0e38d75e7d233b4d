package bpmn

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/service/engine"
	jobservice "github.com/viant/bpmn/service/job"
	"github.com/viant/bpmn/service/meta"
	"github.com/viant/bpmn/service/processor"
)

// Runtime owns the engine and the background components driving it
type Runtime struct {
	config      *Config
	engine      *engine.Engine
	processor   *processor.Service
	scheduler   *jobservice.Scheduler
	metaService *meta.Service
	logger      zerolog.Logger
	mux         sync.Mutex
	started     bool
	stopped     bool
}

// Engine returns the execution engine
func (r *Runtime) Engine() *engine.Engine {
	return r.engine
}

// Scheduler returns the due job scheduler
func (r *Runtime) Scheduler() *jobservice.Scheduler {
	return r.scheduler
}

// LoadWorkflow loads a YAML workflow definition
func (r *Runtime) LoadWorkflow(ctx context.Context, location string) (*model.Workflow, error) {
	ret := &model.Workflow{}
	if err := r.metaService.Load(ctx, location, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// DecodeYAMLWorkflow decodes a YAML workflow definition
func (r *Runtime) DecodeYAMLWorkflow(data []byte) (*model.Workflow, error) {
	ret := &model.Workflow{}
	if err := meta.Decode(data, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// DeployWorkflow loads and deploys a YAML workflow definition; parse issues
// are reported as an error
func (r *Runtime) DeployWorkflow(ctx context.Context, location string) (*model.Deployment, error) {
	workflow, err := r.LoadWorkflow(ctx, location)
	if err != nil {
		return nil, err
	}
	deployment, err := r.engine.Deploy(ctx, workflow)
	if err != nil {
		return nil, err
	}
	if deployment.HasErrors() {
		return deployment, fmt.Errorf("failed to deploy %v: %v", location, deployment.Issues.Errors().String())
	}
	return deployment, nil
}

// Start starts the continuation workers and, when enabled, the job scheduler
func (r *Runtime) Start(ctx context.Context) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.stopped {
		return fmt.Errorf("runtime was shut down")
	}
	if r.started {
		return nil
	}
	if err := r.processor.Start(ctx); err != nil {
		return err
	}
	if r.config.Scheduler.Enabled {
		r.scheduler.Start(ctx)
	}
	r.started = true
	r.logger.Info().Str("engine", r.config.EngineID).Bool("scheduler", r.config.Scheduler.Enabled).Msg("runtime started")
	return nil
}

// Shutdown stops the scheduler and the workers; a shut down runtime cannot be restarted
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.stopped {
		return nil
	}
	r.stopped = true
	r.scheduler.Shutdown()
	r.processor.Shutdown()
	return ctx.Err()
}
