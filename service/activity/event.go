package activity

import (
	"context"

	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
)

// StartEvent continues immediately
type StartEvent struct {
	base
}

func (s *StartEvent) Parse(activity *execution.Activity, issues *model.Issues) {
	if len(activity.Incoming) > 0 {
		issues.AddWarning(activity.ID, "start event has incoming transitions")
	}
}

func (s *StartEvent) Execute(ctx context.Context, activityInstance *execution.ActivityInstance) error {
	return activityInstance.Onwards(ctx)
}

func (s *StartEvent) IsFlushSkippable() bool {
	return true
}

// EndEvent ends its branch
type EndEvent struct {
	base
}

func (e *EndEvent) Parse(activity *execution.Activity, issues *model.Issues) {
	if len(activity.Outgoing) > 0 {
		issues.AddWarning(activity.ID, "end event has outgoing transitions")
	}
}

func (e *EndEvent) Execute(ctx context.Context, activityInstance *execution.ActivityInstance) error {
	return activityInstance.Onwards(ctx)
}

// IntermediateThrowEvent waits until its timer fires or a message arrives
type IntermediateThrowEvent struct {
	waiting
}
