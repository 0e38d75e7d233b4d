package execution

import (
	"time"

	"github.com/viant/bpmn/internal/idgen"
	"github.com/viant/bpmn/runtime/job"
	"github.com/viant/bpmn/runtime/timer"
)

// NewJob creates a job due at the timer's next due date
func (t *Timer) NewJob(now time.Time) (*job.Job, error) {
	dueDate, err := timer.CalculateDueDate(t.Model, now)
	if err != nil {
		return nil, err
	}
	ret := &job.Job{Key: idgen.New(), Type: t.Kind, TimerIndex: t.Index}
	ret.SetDueDate(dueDate)
	return ret, nil
}

// NewWorkflowJob creates a workflow level job for a start activity timer
func (w *Workflow) NewWorkflowJob(activity *Activity, t *Timer, now time.Time) (*job.Job, error) {
	ret, err := t.NewJob(now)
	if err != nil {
		return nil, err
	}
	ret.WorkflowID = w.ID
	ret.ActivityID = activity.ID
	return ret, nil
}
