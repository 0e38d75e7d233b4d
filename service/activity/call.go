package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/runtime/job"
	jobservice "github.com/viant/bpmn/service/job"
	"github.com/viant/structology/conv"
)

var converter = conv.NewConverter(conv.DefaultOptions())

// CallConfig configures a call activity
type CallConfig struct {
	WorkflowID       string `json:"workflowId,omitempty"`
	SourceWorkflowID string `json:"sourceWorkflowId,omitempty"`
	// InputMappings maps caller variable ids to called workflow variable ids
	InputMappings map[string]string `json:"inputMappings,omitempty"`
	// OutputMappings maps called workflow variable ids to caller variable ids
	OutputMappings map[string]string `json:"outputMappings,omitempty"`
}

// Call starts a sub workflow instance and waits until it ends
type Call struct {
	base
	config CallConfig
}

func (c *Call) Parse(activity *execution.Activity, issues *model.Issues) {
	if len(activity.Model.Config) > 0 {
		if err := converter.Convert(activity.Model.Config, &c.config); err != nil {
			issues.AddError(activity.ID+".config", "invalid call configuration: %v", err)
			return
		}
	}
	if c.config.WorkflowID == "" && c.config.SourceWorkflowID == "" {
		issues.AddError(activity.ID+".config", "workflowId or sourceWorkflowId is required")
	}
}

func (c *Call) Execute(ctx context.Context, activityInstance *execution.ActivityInstance) error {
	trigger := model.NewTriggerInstance(c.config.WorkflowID)
	trigger.SourceWorkflowID = c.config.SourceWorkflowID
	trigger.CallerActivityInstanceID = activityInstance.ID
	for from, to := range c.config.InputMappings {
		if value, ok := activityInstance.Variable(from); ok {
			trigger.WithVariable(to, value)
		}
	}
	activityInstance.Instance().Call(trigger)
	return nil
}

// CalledWorkflowEnded copies mapped outputs and continues the caller
func (c *Call) CalledWorkflowEnded(ctx context.Context, activityInstance *execution.ActivityInstance, called *model.WorkflowInstance) error {
	for from, to := range c.config.OutputMappings {
		value, ok := called.Variables[from]
		if !ok {
			continue
		}
		if err := activityInstance.SetVariable(to, value); err != nil {
			return err
		}
	}
	return activityInstance.Onwards(ctx)
}

// Handlers returns job handlers owned by activity kinds
func Handlers() map[string]jobservice.Handler {
	return map[string]jobservice.Handler{
		job.TypeCallStart: &CallStart{},
	}
}

// CallStart retries starting the workflow of a call activity whose first start failed
type CallStart struct{}

func (c *CallStart) MaxRetries() int {
	return 3
}

func (c *CallStart) RetryDelay(attempt int) time.Duration {
	return time.Duration(attempt) * 10 * time.Second
}

func (c *CallStart) Execute(ctx context.Context, jobContext *jobservice.Context) error {
	trigger, err := callTrigger(jobContext.Job.Data[job.DataTrigger])
	if err != nil {
		return err
	}
	aJob := jobContext.Job
	waiting := false
	_, err = jobContext.Engine.Advance(ctx, aJob.WorkflowInstanceID, func(ctx context.Context, instance *execution.WorkflowInstance) error {
		activityInstance := instance.ActivityInstance(aJob.ActivityInstanceID)
		waiting = activityInstance != nil && activityInstance.IsOpen()
		return nil
	})
	if err != nil {
		return err
	}
	if !waiting {
		jobContext.Logger.Info().Str("activityInstance", aJob.ActivityInstanceID).Msg("call activity instance no longer waiting")
		return nil
	}
	instance, err := jobContext.Engine.Start(ctx, trigger)
	if err != nil {
		return err
	}
	jobContext.Logger.Info().Str("workflowInstance", instance.ID).Msg("called workflow started")
	return nil
}

func callTrigger(value interface{}) (*model.TriggerInstance, error) {
	switch actual := value.(type) {
	case *model.TriggerInstance:
		return actual, nil
	case nil:
		return nil, fmt.Errorf("call start job has no %v", job.DataTrigger)
	}
	trigger := &model.TriggerInstance{}
	if err := converter.Convert(value, trigger); err != nil {
		return nil, fmt.Errorf("invalid call start trigger: %w", err)
	}
	return trigger, nil
}
