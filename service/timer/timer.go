// Package timer implements timer kinds: their parse time checks and the job
// handlers executing them once due.
package timer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/bpmn/extension"
	"github.com/viant/bpmn/internal/clock"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/runtime/timer"
	"github.com/viant/bpmn/service/job"
)

const (
	KindStartEvent             = "startEventTimer"
	KindIntermediateThrowEvent = "intermediateThrowEventTimer"
)

// Register registers default timer kinds
func Register(registry *extension.Registry) {
	registry.RegisterTimer(KindStartEvent, func() execution.TimerType { return &StartEvent{} })
	registry.RegisterTimer(KindIntermediateThrowEvent, func() execution.TimerType { return &IntermediateThrowEvent{} })
}

// Handlers returns job handlers keyed by timer kind
func Handlers() map[string]job.Handler {
	return map[string]job.Handler{
		KindStartEvent:             &StartEvent{},
		KindIntermediateThrowEvent: &IntermediateThrowEvent{},
	}
}

// StartEvent is a recurring workflow level timer starting a new instance at its start activity
type StartEvent struct{}

func (s *StartEvent) Parse(t *execution.Timer, activity *execution.Activity, issues *model.Issues) {
	if activity.Parent == nil || activity.Parent.Owner != nil || len(activity.Incoming) > 0 {
		issues.AddError(activity.ID, "start event timer must be attached to a top level start activity")
	}
}

func (s *StartEvent) WorkflowLevel() bool {
	return true
}

// MaxRetries is zero: a failed start is not repeated within one occurrence
func (s *StartEvent) MaxRetries() int {
	return 0
}

func (s *StartEvent) RetryDelay(attempt int) time.Duration {
	return time.Duration(attempt) * 10 * time.Second
}

// Execute reschedules the job for the next cycle occurrence, then starts an
// instance. A failed start is recorded on the job and the cycle continues.
func (s *StartEvent) Execute(ctx context.Context, jobContext *job.Context) error {
	aJob := jobContext.Job
	activityTimer, err := lookupTimer(ctx, jobContext)
	if err != nil {
		return err
	}
	previous := clock.Now()
	if aJob.DueDate != nil {
		previous = *aJob.DueDate
	}
	next, err := timer.NextDueDate(activityTimer.Model, clock.Now(), previous)
	switch {
	case errors.Is(err, timer.ErrNoFutureOccurrence):
		jobContext.Logger.Info().Msg("no further occurrence")
	case err != nil:
		return err
	default:
		jobContext.Reschedule(next)
	}

	trigger := model.NewTriggerInstance(aJob.WorkflowID)
	trigger.StartActivityIDs = []string{aJob.ActivityID}
	instance, err := jobContext.Engine.Start(ctx, trigger)
	if err != nil {
		return err
	}
	jobContext.Logger.Info().Str("workflowInstance", instance.ID).Msg("workflow instance started")
	return nil
}

func lookupTimer(ctx context.Context, jobContext *job.Context) (*execution.Timer, error) {
	aJob := jobContext.Job
	workflow, err := jobContext.Engine.Workflow(ctx, aJob.WorkflowID)
	if err != nil {
		return nil, err
	}
	activity := workflow.Activity(aJob.ActivityID)
	if activity == nil {
		return nil, fmt.Errorf("activity %v not found in workflow %v", aJob.ActivityID, aJob.WorkflowID)
	}
	for _, candidate := range activity.Timers {
		if candidate.Index == aJob.TimerIndex {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("timer %v of activity %v not found", aJob.TimerIndex, aJob.ActivityID)
}

// IntermediateThrowEvent advances the waiting activity instance once due
type IntermediateThrowEvent struct{}

func (i *IntermediateThrowEvent) Parse(t *execution.Timer, activity *execution.Activity, issues *model.Issues) {
	if t.Model.Cycle != "" {
		issues.AddWarning(activity.ID, "cycle of intermediate timer fires once")
	}
}

func (i *IntermediateThrowEvent) WorkflowLevel() bool {
	return false
}

func (i *IntermediateThrowEvent) MaxRetries() int {
	return 3
}

func (i *IntermediateThrowEvent) RetryDelay(attempt int) time.Duration {
	return time.Duration(attempt) * 5 * time.Second
}

func (i *IntermediateThrowEvent) Execute(ctx context.Context, jobContext *job.Context) error {
	aJob := jobContext.Job
	_, err := jobContext.Engine.Advance(ctx, aJob.WorkflowInstanceID, func(ctx context.Context, instance *execution.WorkflowInstance) error {
		activityInstance := instance.ActivityInstance(aJob.ActivityInstanceID)
		if activityInstance == nil || !activityInstance.IsOpen() {
			jobContext.Logger.Info().Str("activityInstance", aJob.ActivityInstanceID).Msg("activity instance no longer waiting")
			return nil
		}
		return activityInstance.Onwards(ctx)
	})
	return err
}
