package execution

import (
	"context"

	"github.com/viant/bpmn/model"
)

// ActivityType is the behaviour of an activity kind
type ActivityType interface {
	// Parse validates kind specific configuration, reporting issues
	Parse(activity *Activity, issues *model.Issues)

	// Execute runs when an activity instance starts
	Execute(ctx context.Context, activityInstance *ActivityInstance) error

	// Message handles a message sent to a waiting activity instance
	Message(ctx context.Context, activityInstance *ActivityInstance) error

	// IsFlushSkippable returns true if the instance does not need to be
	// flushed after Execute
	IsFlushSkippable() bool
}

// TriggerType is the behaviour of a workflow trigger kind
type TriggerType interface {
	Parse(workflow *Workflow, trigger *model.Trigger, issues *model.Issues)

	// Apply sets initial variable values from trigger data
	Apply(instance *WorkflowInstance, trigger *model.TriggerInstance) error

	// Published is called once the workflow was deployed
	Published(ctx context.Context, workflow *Workflow) error
}

// TimerType is the behaviour of a timer kind
type TimerType interface {
	Parse(timer *Timer, activity *Activity, issues *model.Issues)

	// WorkflowLevel returns true for timers scheduled on deployment rather
	// than when an activity instance starts
	WorkflowLevel() bool
}

// CallActivityType is implemented by behaviours starting sub workflows
type CallActivityType interface {
	// CalledWorkflowEnded is invoked under the caller lock once the called
	// instance ended
	CalledWorkflowEnded(ctx context.Context, activityInstance *ActivityInstance, called *model.WorkflowInstance) error
}

// Listener observes activity instance lifecycle
type Listener interface {
	// ActivityStarted is called before the behaviour executes; an error aborts the operation
	ActivityStarted(ctx context.Context, activityInstance *ActivityInstance) error
	ActivityEnded(ctx context.Context, activityInstance *ActivityInstance)
	TransitionTaken(ctx context.Context, from *ActivityInstance, transition *Transition)
}

// Continuation identifies an activity instance whose execution was deferred
type Continuation struct {
	WorkflowInstanceID string `json:"workflowInstanceId"`
	ActivityInstanceID string `json:"activityInstanceId"`
}
