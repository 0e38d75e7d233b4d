package event

import (
	"context"
	"time"

	"github.com/viant/bpmn/runtime/execution"
)

// Activity is the payload of activity instance lifecycle events
type Activity struct {
	State        string        `json:"state"`
	Duration     time.Duration `json:"duration,omitempty"`
	TransitionID string        `json:"transitionId,omitempty"`
	TargetID     string        `json:"targetId,omitempty"`
}

// ActivityListener publishes execution lifecycle notifications as events
type ActivityListener struct {
	publisher *Publisher[Activity]
	service   *Service
	timeout   time.Duration
}

var _ execution.Listener = (*ActivityListener)(nil)

func (l *ActivityListener) ActivityStarted(ctx context.Context, activityInstance *execution.ActivityInstance) error {
	l.publish(ctx, activityInstance, TypeActivityStarted, Activity{State: string(activityInstance.State)})
	return nil
}

func (l *ActivityListener) ActivityEnded(ctx context.Context, activityInstance *execution.ActivityInstance) {
	l.publish(ctx, activityInstance, TypeActivityEnded, Activity{State: string(activityInstance.State), Duration: activityInstance.Duration})
}

func (l *ActivityListener) TransitionTaken(ctx context.Context, from *execution.ActivityInstance, transition *execution.Transition) {
	l.publish(ctx, from, TypeTransitionTaken, Activity{State: string(from.State), TransitionID: transition.ID, TargetID: transition.To.ID})
}

// publish never blocks execution longer than the timeout; a full queue drops the event
func (l *ActivityListener) publish(ctx context.Context, activityInstance *execution.ActivityInstance, eventType string, data Activity) {
	instance := activityInstance.Instance()
	eventContext := &Context{
		WorkflowID:         instance.WorkflowID,
		WorkflowInstanceID: instance.ID,
		ActivityInstanceID: activityInstance.ID,
		ActivityID:         activityInstance.ActivityID,
		EventType:          eventType,
		EngineID:           instance.EngineID(),
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()
	if err := l.publisher.Publish(ctx, NewEvent(eventContext, data)); err != nil {
		l.service.logger.Warn().Err(err).Str("eventType", eventType).Str("workflowInstance", instance.ID).Msg("event dropped")
	}
}

// NewActivityListener creates an execution listener publishing through service
func NewActivityListener(service *Service) *ActivityListener {
	return &ActivityListener{publisher: PublisherOf[Activity](service), service: service, timeout: 50 * time.Millisecond}
}
