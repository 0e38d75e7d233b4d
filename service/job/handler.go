package job

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/runtime/job"
)

// Engine is the execution engine surface job handlers drive
type Engine interface {
	Start(ctx context.Context, trigger *model.TriggerInstance) (*model.WorkflowInstance, error)

	// Advance runs fn against a locked, bound instance, then flushes, unlocks and drains follow-up work
	Advance(ctx context.Context, workflowInstanceID string, fn func(ctx context.Context, instance *execution.WorkflowInstance) error) (*model.WorkflowInstance, error)

	Workflow(ctx context.Context, workflowID string) (*execution.Workflow, error)
}

// Handler is the behaviour of a job type
type Handler interface {
	// MaxRetries is the number of retries after the first failed attempt
	MaxRetries() int

	// RetryDelay returns the wait before retry attempt (starting at 1)
	RetryDelay(attempt int) time.Duration

	Execute(ctx context.Context, jobContext *Context) error
}

// Context is passed to a handler executing a claimed job
type Context struct {
	Job    *job.Job
	Engine Engine
	// Logger output is captured into the job execution record
	Logger     zerolog.Logger
	reschedule *time.Time
}

// Reschedule keeps the job alive with a new due date instead of archiving it
func (c *Context) Reschedule(at time.Time) {
	c.reschedule = &at
}

// Rescheduled returns the next due date, if any
func (c *Context) Rescheduled() (time.Time, bool) {
	if c.reschedule == nil {
		return time.Time{}, false
	}
	return *c.reschedule, true
}
