// Package job runs due jobs: it claims them from the job store, dispatches them
// to the handler registered for the job type, then retries, reschedules or
// archives them.
package job

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/bpmn/internal/clock"
	"github.com/viant/bpmn/runtime/job"
	jobdao "github.com/viant/bpmn/service/dao/job"
	"github.com/viant/bpmn/tracing"
)

// Config represents scheduler configuration
type Config struct {
	// PollInterval is how often the scheduler checks for due jobs
	PollInterval time.Duration `json:"pollInterval" yaml:"pollInterval"`
	// Scope limits claimed jobs to workflow level or instance scoped ones
	Scope job.Scope `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{PollInterval: time.Second}
}

// Scheduler claims and executes due jobs
type Scheduler struct {
	config     Config
	store      jobdao.Store
	engine     Engine
	owner      string
	logger     zerolog.Logger
	handlers   map[string]Handler
	mux        sync.RWMutex
	shutdownCh chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// Register registers a handler for a job type
func (s *Scheduler) Register(jobType string, handler Handler) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.handlers[jobType] = handler
}

func (s *Scheduler) handler(jobType string) (Handler, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	ret, ok := s.handlers[jobType]
	return ret, ok
}

// Start begins the polling loop in the background
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.config.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.shutdownCh:
				return
			case <-ticker.C:
				if _, err := s.RunDue(ctx); err != nil {
					s.logger.Error().Err(err).Msg("failed to run due jobs")
				}
			}
		}
	}()
}

// Shutdown stops the polling loop and waits for the running batch
func (s *Scheduler) Shutdown() {
	s.stopOnce.Do(func() { close(s.shutdownCh) })
	s.wg.Wait()
}

// RunDue executes due jobs until none is left, returning the number executed
func (s *Scheduler) RunDue(ctx context.Context) (int, error) {
	count := 0
	for {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case <-s.shutdownCh:
			return count, nil
		default:
		}
		executed, err := s.ExecuteNext(ctx)
		if err != nil || !executed {
			return count, err
		}
		count++
	}
}

// ExecuteNext claims and executes one due job; it returns false when none is due
func (s *Scheduler) ExecuteNext(ctx context.Context) (bool, error) {
	claimed, err := s.store.LockNextJob(ctx, s.config.Scope, s.owner)
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}
	if claimed == nil {
		return false, nil
	}
	return true, s.execute(ctx, claimed)
}

// ExecuteByKey claims and executes a job by key regardless of its due date;
// it returns false when the job does not exist or is locked
func (s *Scheduler) ExecuteByKey(ctx context.Context, key string) (bool, error) {
	claimed, err := s.store.LockJobByKey(ctx, key, s.owner)
	if err != nil {
		return false, fmt.Errorf("failed to claim job %v: %w", key, err)
	}
	if claimed == nil {
		return false, nil
	}
	return true, s.execute(ctx, claimed)
}

func (s *Scheduler) execute(ctx context.Context, aJob *job.Job) (err error) {
	ctx, span := tracing.StartSpan(ctx, "job.execute "+aJob.Type, "INTERNAL")
	span.WithAttributes(map[string]string{
		"job.key":              aJob.Key,
		"workflow.id":          aJob.WorkflowID,
		"workflow.instance.id": aJob.WorkflowInstanceID,
	})
	defer func() { tracing.EndSpan(span, err) }()

	logger := s.logger.With().Str("job", aJob.Key).Str("type", aJob.Type).Logger()
	buffer := &bytes.Buffer{}
	jobContext := &Context{
		Job:    aJob.Clone(),
		Engine: s.engine,
		Logger: zerolog.New(buffer).With().Timestamp().Logger(),
	}
	started := clock.Now()
	handler, ok := s.handler(aJob.Type)
	var failure error
	if !ok {
		failure = fmt.Errorf("no handler registered for job type %v", aJob.Type)
	} else {
		failure = s.run(ctx, handler, jobContext)
	}
	if failure != nil {
		jobContext.Logger.Error().Err(failure).Msg("job failed")
	}
	aJob.AddExecution(&job.Execution{
		Error:    failure != nil,
		Logs:     buffer.String(),
		Time:     started,
		Duration: clock.Now().Sub(started),
	})

	switch {
	case failure != nil && ok && aJob.Retries < handler.MaxRetries():
		aJob.Retries++
		aJob.SetDueDate(clock.Now().Add(handler.RetryDelay(aJob.Retries)))
		aJob.Lock = nil
		logger.Warn().Err(failure).Int("retries", aJob.Retries).Msg("job failed, retry scheduled")
		return s.store.Save(ctx, aJob)
	case failure != nil && jobContext.reschedule != nil:
		aJob.SetDueDate(*jobContext.reschedule)
		aJob.Retries = 0
		aJob.Lock = nil
		logger.Warn().Err(failure).Time("dueDate", *jobContext.reschedule).Msg("job failed, next occurrence scheduled")
		return s.store.Save(ctx, aJob)
	case failure != nil:
		aJob.Done = true
		logger.Warn().Err(failure).Int("retries", aJob.Retries).Msg("job failed permanently")
		return s.store.Archive(ctx, aJob)
	}
	if next, rescheduled := jobContext.Rescheduled(); rescheduled {
		aJob.SetDueDate(next)
		aJob.Retries = 0
		aJob.Lock = nil
		logger.Debug().Time("dueDate", next).Msg("job rescheduled")
		return s.store.Save(ctx, aJob)
	}
	aJob.Done = true
	logger.Debug().Msg("job done")
	return s.store.Archive(ctx, aJob)
}

func (s *Scheduler) run(ctx context.Context, handler Handler, jobContext *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return handler.Execute(ctx, jobContext)
}

// New creates a scheduler claiming jobs as owner
func New(store jobdao.Store, engine Engine, owner string, options ...Option) *Scheduler {
	ret := &Scheduler{
		config:     DefaultConfig(),
		store:      store,
		engine:     engine,
		owner:      owner,
		logger:     zerolog.Nop(),
		handlers:   make(map[string]Handler),
		shutdownCh: make(chan struct{}),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.config.PollInterval <= 0 {
		ret.config.PollInterval = DefaultConfig().PollInterval
	}
	return ret
}
