// Package activity implements the control flow activity kinds registered by default.
package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/bpmn/extension"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
)

const (
	KindStartEvent             = "startEvent"
	KindEndEvent               = "endEvent"
	KindIntermediateThrowEvent = "intermediateThrowEvent"
	KindNoneTask               = "noneTask"
	KindUserTask               = "userTask"
	KindReceiveTask            = "receiveTask"
	KindExclusiveGateway       = "exclusiveGateway"
	KindParallelGateway        = "parallelGateway"
	KindEmbeddedSubprocess     = "embeddedSubprocess"
	KindCall                   = "call"
)

// ErrMessageNotSupported is returned when a message targets an activity that never waits
var ErrMessageNotSupported = errors.New("activity does not accept messages")

// Register registers default activity kinds
func Register(registry *extension.Registry) {
	registry.RegisterActivity(KindStartEvent, func() execution.ActivityType { return &StartEvent{} })
	registry.RegisterActivity(KindEndEvent, func() execution.ActivityType { return &EndEvent{} })
	registry.RegisterActivity(KindIntermediateThrowEvent, func() execution.ActivityType { return &IntermediateThrowEvent{} })
	registry.RegisterActivity(KindNoneTask, func() execution.ActivityType { return &NoneTask{} })
	registry.RegisterActivity(KindUserTask, func() execution.ActivityType { return &WaitTask{} })
	registry.RegisterActivity(KindReceiveTask, func() execution.ActivityType { return &WaitTask{} })
	registry.RegisterActivity(KindExclusiveGateway, func() execution.ActivityType { return &ExclusiveGateway{} })
	registry.RegisterActivity(KindParallelGateway, func() execution.ActivityType { return &ParallelGateway{} })
	registry.RegisterActivity(KindEmbeddedSubprocess, func() execution.ActivityType { return &EmbeddedSubprocess{} })
	registry.RegisterActivity(KindCall, func() execution.ActivityType { return &Call{} })
}

// base provides defaults for activities that never wait
type base struct{}

func (b *base) Parse(activity *execution.Activity, issues *model.Issues) {}

func (b *base) Message(ctx context.Context, activityInstance *execution.ActivityInstance) error {
	return fmt.Errorf("%w: %v", ErrMessageNotSupported, activityInstance.ActivityID)
}

func (b *base) IsFlushSkippable() bool {
	return false
}

// waiting provides message handling for activities that wait for a message or a timer
type waiting struct{}

func (w *waiting) Parse(activity *execution.Activity, issues *model.Issues) {}

func (w *waiting) Execute(ctx context.Context, activityInstance *execution.ActivityInstance) error {
	return nil
}

func (w *waiting) Message(ctx context.Context, activityInstance *execution.ActivityInstance) error {
	return activityInstance.Onwards(ctx)
}

func (w *waiting) IsFlushSkippable() bool {
	return false
}
