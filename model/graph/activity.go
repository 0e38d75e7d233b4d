package graph

import (
	"github.com/viant/bpmn/model/state"
)

type (
	// Activity is an authoring-time graph node (task, gateway or event)
	Activity struct {
		ID                  string                 `json:"id,omitempty" yaml:"id,omitempty"`
		Type                string                 `json:"type,omitempty" yaml:"type,omitempty"`
		Name                string                 `json:"name,omitempty" yaml:"name,omitempty"`
		Async               bool                   `json:"async,omitempty" yaml:"async,omitempty"`
		DefaultTransitionID string                 `json:"defaultTransitionId,omitempty" yaml:"defaultTransitionId,omitempty"`
		Variables           state.Variables        `json:"variables,omitempty" yaml:"variables,omitempty"`
		Activities          []*Activity            `json:"activities,omitempty" yaml:"activities,omitempty"`
		Transitions         []*Transition          `json:"transitions,omitempty" yaml:"transitions,omitempty"`
		Timers              []*Timer               `json:"timers,omitempty" yaml:"timers,omitempty"`
		MultiInstance       *MultiInstance         `json:"multiInstance,omitempty" yaml:"multiInstance,omitempty"`
		Config              map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`
	}

	// Transition is a directed, optionally guarded edge between two activities
	Transition struct {
		ID        string `json:"id,omitempty" yaml:"id,omitempty"`
		From      string `json:"from,omitempty" yaml:"from,omitempty"`
		To        string `json:"to,omitempty" yaml:"to,omitempty"`
		Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
	}

	// Timer holds exactly one of date, duration or cycle expression
	Timer struct {
		Type     string `json:"type,omitempty" yaml:"type,omitempty"`
		Date     string `json:"date,omitempty" yaml:"date,omitempty"`
		Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
		Cycle    string `json:"cycle,omitempty" yaml:"cycle,omitempty"`
	}

	// MultiInstance repeats an activity over a collection variable
	MultiInstance struct {
		Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
		Element    string `json:"element,omitempty" yaml:"element,omitempty"`
		Sequential bool   `json:"sequential,omitempty" yaml:"sequential,omitempty"`
	}
)

// NewActivity creates an activity of the supplied kind
func NewActivity(id, kind string) *Activity {
	return &Activity{ID: id, Type: kind}
}

// WithConfig sets a kind specific configuration entry
func (a *Activity) WithConfig(key string, value interface{}) *Activity {
	if a.Config == nil {
		a.Config = make(map[string]interface{})
	}
	a.Config[key] = value
	return a
}

// WithTimer attaches a timer to the activity
func (a *Activity) WithTimer(timer *Timer) *Activity {
	a.Timers = append(a.Timers, timer)
	return a
}

// WithMultiInstance repeats the activity for each element of collection
func (a *Activity) WithMultiInstance(collection, element string, sequential bool) *Activity {
	a.MultiInstance = &MultiInstance{Collection: collection, Element: element, Sequential: sequential}
	return a
}

// WithAsync marks the activity for out-of-band continuation
func (a *Activity) WithAsync() *Activity {
	a.Async = true
	return a
}

// Activity adds a nested activity, turning this activity into a scope
func (a *Activity) Activity(activity *Activity) *Activity {
	a.Activities = append(a.Activities, activity)
	return activity
}

// Transition adds a nested transition between two nested activities
func (a *Activity) Transition(from, to string) *Transition {
	ret := &Transition{From: from, To: to}
	a.Transitions = append(a.Transitions, ret)
	return ret
}

// WithCondition sets the transition guard
func (t *Transition) WithCondition(condition string) *Transition {
	t.Condition = condition
	return t
}

// WithID sets transition id, used to designate a default transition
func (t *Transition) WithID(id string) *Transition {
	t.ID = id
	return t
}

// ExpressionCount returns number of non empty expressions
func (t *Timer) ExpressionCount() int {
	count := 0
	for _, expr := range []string{t.Date, t.Duration, t.Cycle} {
		if expr != "" {
			count++
		}
	}
	return count
}
