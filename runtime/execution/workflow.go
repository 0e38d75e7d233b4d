package execution

import (
	"reflect"
	"time"

	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/model/graph"
)

type (
	// Workflow is an immutable compiled workflow
	Workflow struct {
		ID               string
		SourceWorkflowID string
		Name             string
		CreateTime       time.Time
		*Scope
		Trigger TriggerType
		Model   *model.Workflow

		activities map[string]*Activity
	}

	// Scope holds activities, transitions and variables of the workflow root
	// or of an activity with nested activities
	Scope struct {
		Activities      []*Activity
		Transitions     []*Transition
		Variables       map[string]*Variable
		StartActivities []*Activity
		// Owner is the activity holding the nested scope, nil for the workflow root
		Owner *Activity
	}

	// Activity is a compiled graph node bound to its behaviour
	Activity struct {
		ID                string
		Kind              string
		Type              ActivityType
		Model             *graph.Activity
		Parent            *Scope
		Scope             *Scope
		Outgoing          []*Transition
		Incoming          []*Transition
		DefaultTransition *Transition
		Timers            []*Timer
		MultiInstance     *graph.MultiInstance
		Async             bool
	}

	// Transition is a compiled, optionally guarded edge
	Transition struct {
		ID        string
		From      *Activity
		To        *Activity
		Condition string
	}

	// Timer is a compiled activity timer
	Timer struct {
		Index int
		Kind  string
		Model *graph.Timer
		Type  TimerType
	}

	// Variable is a compiled variable declaration; Type is nil for untyped variables
	Variable struct {
		ID       string
		DataType string
		Type     reflect.Type
		Default  interface{}
	}
)

// NewWorkflow creates an empty compiled workflow
func NewWorkflow(source *model.Workflow) *Workflow {
	ret := &Workflow{
		ID:               source.ID,
		SourceWorkflowID: source.SourceWorkflowID,
		Name:             source.Name,
		Model:            source,
		Scope:            NewScope(nil),
		activities:       make(map[string]*Activity),
	}
	if source.CreateTime != nil {
		ret.CreateTime = *source.CreateTime
	}
	return ret
}

// NewScope creates a scope owned by activity
func NewScope(owner *Activity) *Scope {
	return &Scope{Owner: owner, Variables: make(map[string]*Variable)}
}

// Index registers activity for workflow wide lookup; ids must be unique
func (w *Workflow) Index(activity *Activity) bool {
	if _, ok := w.activities[activity.ID]; ok {
		return false
	}
	w.activities[activity.ID] = activity
	return true
}

// Activity returns an activity by id from any nesting level
func (w *Workflow) Activity(id string) *Activity {
	return w.activities[id]
}

// SelectStartActivities returns start activities matching ids, all when ids is empty
func (w *Workflow) SelectStartActivities(ids []string) []*Activity {
	if len(ids) == 0 {
		return w.StartActivities
	}
	var result []*Activity
	for _, candidate := range w.StartActivities {
		for _, id := range ids {
			if candidate.ID == id {
				result = append(result, candidate)
				break
			}
		}
	}
	return result
}

// AddActivity appends an activity to the scope
func (s *Scope) AddActivity(activity *Activity) {
	activity.Parent = s
	s.Activities = append(s.Activities, activity)
}

// LocalActivity returns activity declared directly in the scope
func (s *Scope) LocalActivity(id string) *Activity {
	for _, candidate := range s.Activities {
		if candidate.ID == id {
			return candidate
		}
	}
	return nil
}

// HasScope returns true if the activity declares nested activities
func (a *Activity) HasScope() bool {
	return a.Scope != nil && len(a.Scope.Activities) > 0
}

// InstanceTimers returns timers creating instance scoped jobs
func (a *Activity) InstanceTimers() []*Timer {
	var result []*Timer
	for _, candidate := range a.Timers {
		if candidate.Type != nil && !candidate.Type.WorkflowLevel() {
			result = append(result, candidate)
		}
	}
	return result
}

// WorkflowTimers returns timers creating workflow level jobs
func (a *Activity) WorkflowTimers() []*Timer {
	var result []*Timer
	for _, candidate := range a.Timers {
		if candidate.Type != nil && candidate.Type.WorkflowLevel() {
			result = append(result, candidate)
		}
	}
	return result
}

// Declares returns the variable declared by the activity scope
func (a *Activity) Declares(id string) *Variable {
	if a.Scope == nil {
		return nil
	}
	return a.Scope.Variables[id]
}
