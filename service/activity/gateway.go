package activity

import (
	"context"

	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
)

// ExclusiveGateway takes the first passing transition, the default one otherwise
type ExclusiveGateway struct {
	base
}

func (e *ExclusiveGateway) Parse(activity *execution.Activity, issues *model.Issues) {
	if len(activity.Outgoing) < 2 || activity.DefaultTransition != nil {
		return
	}
	for _, transition := range activity.Outgoing {
		if transition.Condition == "" {
			return
		}
	}
	issues.AddWarning(activity.ID, "every transition is guarded and no default transition is set")
}

func (e *ExclusiveGateway) Execute(ctx context.Context, activityInstance *execution.ActivityInstance) error {
	return activityInstance.Onwards(ctx)
}

func (e *ExclusiveGateway) IsFlushSkippable() bool {
	return true
}

// ParallelGateway joins every incoming branch, then forks into every outgoing transition
type ParallelGateway struct {
	base
}

func (p *ParallelGateway) Parse(activity *execution.Activity, issues *model.Issues) {
	for _, transition := range activity.Outgoing {
		if transition.Condition != "" {
			issues.AddWarning(activity.ID, "condition of transition %v is ignored", transition.ID)
		}
	}
	if activity.DefaultTransition != nil {
		issues.AddWarning(activity.ID, "default transition is ignored")
	}
}

func (p *ParallelGateway) Execute(ctx context.Context, activityInstance *execution.ActivityInstance) error {
	activity := activityInstance.Activity()
	if expected := len(activity.Incoming); expected > 1 {
		var arrived []*execution.ActivityInstance
		for _, sibling := range activityInstance.Siblings() {
			if sibling.ActivityID == activity.ID && sibling.IsJoining() {
				arrived = append(arrived, sibling)
			}
		}
		if len(arrived)+1 < expected {
			activityInstance.Instance().Logger().Debug().
				Str("activity", activity.ID).
				Int("arrived", len(arrived)+1).
				Int("expected", expected).
				Msg("join waiting")
			return activityInstance.MarkJoining(ctx)
		}
		for _, sibling := range arrived[:expected-1] {
			if err := sibling.End(ctx); err != nil {
				return err
			}
		}
	}
	return activityInstance.Fork(ctx, activity.Outgoing)
}

func (p *ParallelGateway) IsFlushSkippable() bool {
	return true
}
