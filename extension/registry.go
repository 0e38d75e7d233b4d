package extension

import (
	"sort"
	"sync"

	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/x"
)

type (
	// ActivityFactory creates a behaviour instance per declared activity
	ActivityFactory func() execution.ActivityType
	// TriggerFactory creates a behaviour instance per declared trigger
	TriggerFactory func() execution.TriggerType
	// TimerFactory creates a behaviour instance per declared timer
	TimerFactory func() execution.TimerType
)

// Registry maps kind tags to behaviour factories; kinds register at startup
type Registry struct {
	types      *Types
	activities map[string]ActivityFactory
	triggers   map[string]TriggerFactory
	timers     map[string]TimerFactory
	mux        sync.RWMutex
}

// Types returns the variable data type registry
func (r *Registry) Types() *Types {
	return r.types
}

// RegisterActivity registers an activity kind
func (r *Registry) RegisterActivity(kind string, factory ActivityFactory) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.activities[kind] = factory
}

// RegisterTrigger registers a trigger kind
func (r *Registry) RegisterTrigger(kind string, factory TriggerFactory) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.triggers[kind] = factory
}

// RegisterTimer registers a timer kind
func (r *Registry) RegisterTimer(kind string, factory TimerFactory) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.timers[kind] = factory
}

// Activity creates a behaviour for kind
func (r *Registry) Activity(kind string) (execution.ActivityType, bool) {
	r.mux.RLock()
	factory, ok := r.activities[kind]
	r.mux.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Trigger creates a trigger behaviour for kind
func (r *Registry) Trigger(kind string) (execution.TriggerType, bool) {
	r.mux.RLock()
	factory, ok := r.triggers[kind]
	r.mux.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Timer creates a timer behaviour for kind
func (r *Registry) Timer(kind string) (execution.TimerType, bool) {
	r.mux.RLock()
	factory, ok := r.timers[kind]
	r.mux.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// ActivityKinds returns sorted registered activity kinds
func (r *Registry) ActivityKinds() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	result := make([]string, 0, len(r.activities))
	for kind := range r.activities {
		result = append(result, kind)
	}
	sort.Strings(result)
	return result
}

// NewRegistry creates an empty registry with the supplied data types
func NewRegistry(goTypes ...*x.Type) *Registry {
	ret := &Registry{
		types:      NewTypes(),
		activities: make(map[string]ActivityFactory),
		triggers:   make(map[string]TriggerFactory),
		timers:     make(map[string]TimerFactory),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
