// Package event publishes activity instance lifecycle events over typed
// in-memory queues.
package event

import (
	"time"

	"github.com/viant/bpmn/internal/clock"
)

const (
	TypeActivityStarted = "activityStarted"
	TypeActivityEnded   = "activityEnded"
	TypeTransitionTaken = "transitionTaken"
)

// Context identifies where an event happened
type Context struct {
	WorkflowID         string `json:"workflowId"`
	WorkflowInstanceID string `json:"workflowInstanceId"`
	ActivityInstanceID string `json:"activityInstanceId,omitempty"`
	ActivityID         string `json:"activityId,omitempty"`
	EventType          string `json:"eventType"`
	EngineID           string `json:"engineId,omitempty"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
