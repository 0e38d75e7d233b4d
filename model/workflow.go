package model

import (
	"time"

	"github.com/viant/bpmn/model/graph"
	"github.com/viant/bpmn/model/state"
)

// Workflow represents an authoring-time workflow definition
type Workflow struct {
	// ID is assigned on deployment when empty
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// SourceWorkflowID groups versions of the same workflow; the latest
	// deployed version can be started by source id
	SourceWorkflowID string `json:"sourceWorkflowId,omitempty" yaml:"sourceWorkflowId,omitempty"`

	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// CreateTime records deployment time
	CreateTime *time.Time `json:"createTime,omitempty" yaml:"createTime,omitempty"`

	Variables   state.Variables     `json:"variables,omitempty" yaml:"variables,omitempty"`
	Activities  []*graph.Activity   `json:"activities,omitempty" yaml:"activities,omitempty"`
	Transitions []*graph.Transition `json:"transitions,omitempty" yaml:"transitions,omitempty"`

	// Trigger maps external start data onto workflow variables
	Trigger *Trigger `json:"trigger,omitempty" yaml:"trigger,omitempty"`
}

// Trigger declares how a workflow instance is started
type Trigger struct {
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	// Mappings maps trigger data keys to variable ids
	Mappings map[string]string `json:"mappings,omitempty" yaml:"mappings,omitempty"`
}

// NewWorkflow creates a workflow with the supplied source id
func NewWorkflow(sourceWorkflowID string) *Workflow {
	return &Workflow{SourceWorkflowID: sourceWorkflowID, Name: sourceWorkflowID}
}

// Activity adds a top level activity
func (w *Workflow) Activity(activity *graph.Activity) *graph.Activity {
	w.Activities = append(w.Activities, activity)
	return activity
}

// NewActivity creates and adds a top level activity of the supplied kind
func (w *Workflow) NewActivity(id, kind string) *graph.Activity {
	return w.Activity(graph.NewActivity(id, kind))
}

// Transition adds a top level transition
func (w *Workflow) Transition(from, to string) *graph.Transition {
	ret := &graph.Transition{From: from, To: to}
	w.Transitions = append(w.Transitions, ret)
	return ret
}

// Variable declares a workflow variable
func (w *Workflow) Variable(id, dataType string) *state.Variable {
	return w.Variables.Add(id, dataType)
}

// WithTrigger sets the workflow trigger
func (w *Workflow) WithTrigger(kind string, mappings map[string]string) *Workflow {
	w.Trigger = &Trigger{Type: kind, Mappings: mappings}
	return w
}

// Clone returns a shallow copy with own activity and transition slices
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	ret := *w
	ret.Activities = append([]*graph.Activity(nil), w.Activities...)
	ret.Transitions = append([]*graph.Transition(nil), w.Transitions...)
	ret.Variables = append(state.Variables(nil), w.Variables...)
	if w.CreateTime != nil {
		createTime := *w.CreateTime
		ret.CreateTime = &createTime
	}
	return &ret
}
