package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/qmuntal/stateless"
	"github.com/viant/bpmn/internal/clock"
	"github.com/viant/bpmn/runtime/evaluator"
)

// ActivityInstance is one execution of one activity
type ActivityInstance struct {
	ID         string                 `json:"id"`
	ActivityID string                 `json:"activityId"`
	ParentID   string                 `json:"parentId,omitempty"`
	Children   []string               `json:"children,omitempty"`
	State      State                  `json:"state"`
	StartTime  time.Time              `json:"start"`
	EndTime    *time.Time             `json:"end,omitempty"`
	Duration   time.Duration          `json:"duration,omitempty"`
	Variables  map[string]interface{} `json:"variables,omitempty"`

	// Container marks the multi instance parent of per element instances
	Container   bool          `json:"container,omitempty"`
	Elements    []interface{} `json:"elements,omitempty"`
	NextElement int           `json:"nextElement,omitempty"`

	instance *WorkflowInstance
	machine  *stateless.StateMachine
}

// Instance returns the owning workflow instance
func (a *ActivityInstance) Instance() *WorkflowInstance {
	return a.instance
}

// Activity returns the compiled activity
func (a *ActivityInstance) Activity() *Activity {
	return a.instance.workflow.Activity(a.ActivityID)
}

// Parent returns the enclosing activity instance or nil in the root scope
func (a *ActivityInstance) Parent() *ActivityInstance {
	if a.ParentID == "" {
		return nil
	}
	return a.instance.ActivityInstances[a.ParentID]
}

// IsOpen returns true while the instance neither ended nor waits in a join
func (a *ActivityInstance) IsOpen() bool {
	return a.State == StateOpen
}

// IsJoining returns true if the instance waits in a join
func (a *ActivityInstance) IsJoining() bool {
	return a.State == StateJoining
}

// IsEnded returns true if the instance ended
func (a *ActivityInstance) IsEnded() bool {
	return a.State == StateEnded
}

// HasOpenChildren returns true if any child activity instance has not ended
func (a *ActivityInstance) HasOpenChildren() bool {
	for _, id := range a.Children {
		if child := a.instance.ActivityInstances[id]; child != nil && !child.IsEnded() {
			return true
		}
	}
	return false
}

// Siblings returns activity instances sharing the parent scope, excluding a
func (a *ActivityInstance) Siblings() []*ActivityInstance {
	ids := a.instance.Roots
	if parent := a.Parent(); parent != nil {
		ids = parent.Children
	}
	var result []*ActivityInstance
	for _, id := range ids {
		if candidate := a.instance.ActivityInstances[id]; candidate != nil && candidate != a {
			result = append(result, candidate)
		}
	}
	return result
}

// MarkJoining parks the instance at a join until sibling branches arrive
func (a *ActivityInstance) MarkJoining(ctx context.Context) error {
	return a.fire(ctx, triggerJoin)
}

// End ends the activity instance without taking any transition
func (a *ActivityInstance) End(ctx context.Context) error {
	if err := a.fire(ctx, triggerEnd); err != nil {
		return err
	}
	now := clock.Now()
	a.EndTime = &now
	a.Duration = now.Sub(a.StartTime)
	if len(a.Activity().InstanceTimers()) > 0 {
		a.instance.ended = append(a.instance.ended, a.ID)
	}
	for _, listener := range a.instance.runtime.Listeners {
		listener.ActivityEnded(ctx, a)
	}
	return nil
}

// Onwards ends the instance and takes the first outgoing transition whose
// guard passes, the default transition otherwise, or ends the enclosing scope
func (a *ActivityInstance) Onwards(ctx context.Context) error {
	if parent := a.Parent(); parent != nil && parent.Container && !a.Container {
		if err := a.End(ctx); err != nil {
			return err
		}
		return parent.elementEnded(ctx)
	}
	transition, err := a.SelectTransition()
	if err != nil {
		return err
	}
	if err = a.End(ctx); err != nil {
		return err
	}
	if transition == nil {
		return a.instance.scopeEnded(ctx, a.ParentID)
	}
	return a.TakeTransition(ctx, transition)
}

// Fork ends the instance and takes every supplied transition
func (a *ActivityInstance) Fork(ctx context.Context, transitions []*Transition) error {
	if err := a.End(ctx); err != nil {
		return err
	}
	if len(transitions) == 0 {
		return a.instance.scopeEnded(ctx, a.ParentID)
	}
	for _, transition := range transitions {
		if err := a.TakeTransition(ctx, transition); err != nil {
			return err
		}
	}
	return nil
}

// TakeTransition starts the transition target in the same scope
func (a *ActivityInstance) TakeTransition(ctx context.Context, transition *Transition) error {
	for _, listener := range a.instance.runtime.Listeners {
		listener.TransitionTaken(ctx, a, transition)
	}
	_, err := a.instance.Execute(ctx, transition.To, a.Parent())
	return err
}

// SelectTransition evaluates outgoing guards in declaration order
func (a *ActivityInstance) SelectTransition() (*Transition, error) {
	activity := a.Activity()
	for _, transition := range activity.Outgoing {
		if transition == activity.DefaultTransition {
			continue
		}
		ok, err := a.Evaluate(transition.Condition)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate transition %v -> %v: %w", activity.ID, transition.To.ID, err)
		}
		if ok {
			return transition, nil
		}
	}
	return activity.DefaultTransition, nil
}

// Evaluate evaluates a guard against variables visible from this instance;
// an empty guard passes
func (a *ActivityInstance) Evaluate(condition string) (bool, error) {
	if condition == "" {
		return true, nil
	}
	return evaluator.EvaluateBool(condition, a.Variable)
}

func (a *ActivityInstance) elementEnded(ctx context.Context) error {
	if a.Activity().MultiInstance.Sequential && a.NextElement < len(a.Elements) {
		return a.instance.startElement(a)
	}
	if a.HasOpenChildren() {
		return nil
	}
	return a.Onwards(ctx)
}

func (a *ActivityInstance) clone(owner *WorkflowInstance) *ActivityInstance {
	ret := *a
	ret.instance = owner
	ret.machine = nil
	ret.Children = append([]string(nil), a.Children...)
	ret.Variables = copyMap(a.Variables)
	ret.Elements = append([]interface{}(nil), a.Elements...)
	if a.EndTime != nil {
		end := *a.EndTime
		ret.EndTime = &end
	}
	return &ret
}
