package activity

import (
	"context"

	"github.com/viant/bpmn/runtime/execution"
)

// NoneTask performs no work and continues immediately
type NoneTask struct {
	base
}

func (n *NoneTask) Execute(ctx context.Context, activityInstance *execution.ActivityInstance) error {
	return activityInstance.Onwards(ctx)
}

func (n *NoneTask) IsFlushSkippable() bool {
	return true
}

// WaitTask waits until a message completes it; used for user and receive tasks
type WaitTask struct {
	waiting
}
