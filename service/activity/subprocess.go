package activity

import (
	"context"

	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
)

// EmbeddedSubprocess executes its nested scope; it continues once every nested activity instance ended
type EmbeddedSubprocess struct {
	base
}

func (e *EmbeddedSubprocess) Parse(activity *execution.Activity, issues *model.Issues) {
	if !activity.HasScope() {
		issues.AddError(activity.ID, "embedded subprocess has no activities")
	}
}

func (e *EmbeddedSubprocess) Execute(ctx context.Context, activityInstance *execution.ActivityInstance) error {
	activity := activityInstance.Activity()
	instance := activityInstance.Instance()
	for _, start := range activity.Scope.StartActivities {
		if _, err := instance.Execute(ctx, start, activityInstance); err != nil {
			return err
		}
	}
	return nil
}
