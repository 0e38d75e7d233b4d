// Package engine implements the execution engine: it deploys workflows,
// starts instances and advances them while holding the instance lock.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/bpmn/extension"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/runtime/parser"
	"github.com/viant/bpmn/runtime/retry"
	"github.com/viant/bpmn/service/dao"
	instancedao "github.com/viant/bpmn/service/dao/instance"
	jobdao "github.com/viant/bpmn/service/dao/job"
	workflowdao "github.com/viant/bpmn/service/dao/workflow"
)

// Dispatcher hands deferred activity instances over for out of band execution
type Dispatcher interface {
	Dispatch(ctx context.Context, continuation *execution.Continuation) error
}

// Config represents engine configuration
type Config struct {
	// EngineID identifies this node as lock owner
	EngineID string `json:"engineId" yaml:"engineId"`
	// Lock controls instance and migration lock retries
	Lock retry.Policy `json:"lock" yaml:"lock"`
}

// Engine executes workflow instances
type Engine struct {
	config     Config
	parser     *parser.Parser
	workflows  workflowdao.Store
	instances  instancedao.Store
	jobs       jobdao.Store
	runtime    *execution.Runtime
	listeners  []execution.Listener
	logger     zerolog.Logger
	dispatcher Dispatcher
	cache      sync.Map
}

// SetDispatcher routes async continuations to dispatcher; without one they run inline
func (e *Engine) SetDispatcher(dispatcher Dispatcher) {
	e.dispatcher = dispatcher
}

// EngineID returns the lock owner id of this node
func (e *Engine) EngineID() string {
	return e.config.EngineID
}

// Workflow returns a compiled workflow, parsing and caching it on first use
func (e *Engine) Workflow(ctx context.Context, workflowID string) (*execution.Workflow, error) {
	if cached, ok := e.cache.Load(workflowID); ok {
		return cached.(*execution.Workflow), nil
	}
	source, err := e.workflows.Load(ctx, workflowID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrWorkflowNotFound, workflowID)
		}
		return nil, err
	}
	compiled, issues := e.parser.Parse(source)
	if issues.HasErrors() {
		return nil, fmt.Errorf("workflow %v is invalid: %v", workflowID, issues.Errors().String())
	}
	e.cache.Store(workflowID, compiled)
	return compiled, nil
}

// New creates an engine
func New(registry *extension.Registry, workflows workflowdao.Store, instances instancedao.Store, jobs jobdao.Store, options ...Option) *Engine {
	ret := &Engine{
		config:    Config{Lock: retry.DefaultPolicy()},
		parser:    parser.New(registry),
		workflows: workflows,
		instances: instances,
		jobs:      jobs,
		logger:    zerolog.Nop(),
	}
	for _, option := range options {
		option(ret)
	}
	ret.logger = ret.logger.With().Str("engine", ret.config.EngineID).Logger()
	ret.runtime = execution.NewRuntime(ret.config.EngineID)
	ret.runtime.Logger = ret.logger
	ret.runtime.Listeners = ret.listeners
	return ret
}
