package engine

import (
	"context"
	"fmt"

	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/runtime/job"
)

// FindWorkflows returns deployed workflows matching query
func (e *Engine) FindWorkflows(ctx context.Context, query *model.WorkflowQuery) ([]*model.Workflow, error) {
	return e.workflows.Find(ctx, query)
}

// DeleteWorkflows deletes matching workflows with their start timers
func (e *Engine) DeleteWorkflows(ctx context.Context, query *model.WorkflowQuery) (int, error) {
	workflows, err := e.workflows.Find(ctx, query)
	if err != nil {
		return 0, err
	}
	for _, workflow := range workflows {
		e.cache.Delete(workflow.ID)
		if _, err = e.jobs.Delete(ctx, &job.Query{WorkflowID: workflow.ID}); err != nil {
			return 0, fmt.Errorf("failed to delete jobs of %v: %w", workflow.ID, err)
		}
	}
	return e.workflows.Delete(ctx, query)
}

// FindInstances returns snapshots of instances matching query
func (e *Engine) FindInstances(ctx context.Context, query *model.InstanceQuery) ([]*model.WorkflowInstance, error) {
	instances, err := e.instances.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	result := make([]*model.WorkflowInstance, 0, len(instances))
	for _, instance := range instances {
		result = append(result, instance.Snapshot())
	}
	return result, nil
}

// DeleteInstances deletes matching instances with their jobs
func (e *Engine) DeleteInstances(ctx context.Context, query *model.InstanceQuery) (int, error) {
	instances, err := e.instances.Find(ctx, query)
	if err != nil {
		return 0, err
	}
	for _, instance := range instances {
		if _, err = e.jobs.DeleteByScope(ctx, instance.ID, ""); err != nil {
			return 0, fmt.Errorf("failed to delete jobs of %v: %w", instance.ID, err)
		}
	}
	return e.instances.Delete(ctx, query)
}

// VariableValues returns variables visible at the root scope, or from the
// open activity instance when activityInstanceID is set
func (e *Engine) VariableValues(ctx context.Context, workflowInstanceID, activityInstanceID string) (map[string]interface{}, error) {
	instance, err := e.load(ctx, workflowInstanceID)
	if err != nil {
		return nil, err
	}
	if activityInstanceID == "" {
		return instance.VariableValues(), nil
	}
	activityInstance, err := openActivityInstance(instance, activityInstanceID)
	if err != nil {
		return nil, err
	}
	return activityInstance.VariableValues(), nil
}

// VariableValue returns one variable value, see VariableValues
func (e *Engine) VariableValue(ctx context.Context, workflowInstanceID, activityInstanceID, variableID string) (interface{}, error) {
	values, err := e.VariableValues(ctx, workflowInstanceID, activityInstanceID)
	if err != nil {
		return nil, err
	}
	return values[variableID], nil
}

// SetVariableValues writes variables under the instance lock
func (e *Engine) SetVariableValues(ctx context.Context, workflowInstanceID, activityInstanceID string, values map[string]interface{}) (*model.WorkflowInstance, error) {
	return e.Advance(ctx, workflowInstanceID, func(ctx context.Context, instance *execution.WorkflowInstance) error {
		if activityInstanceID == "" {
			return instance.SetVariableValues(values)
		}
		activityInstance, err := openActivityInstance(instance, activityInstanceID)
		if err != nil {
			return err
		}
		return activityInstance.SetVariableValues(values)
	})
}

// SetVariableValue writes one variable, see SetVariableValues
func (e *Engine) SetVariableValue(ctx context.Context, workflowInstanceID, activityInstanceID, variableID string, value interface{}) (*model.WorkflowInstance, error) {
	return e.SetVariableValues(ctx, workflowInstanceID, activityInstanceID, map[string]interface{}{variableID: value})
}

func (e *Engine) load(ctx context.Context, workflowInstanceID string) (*execution.WorkflowInstance, error) {
	instances, err := e.instances.Find(ctx, &model.InstanceQuery{WorkflowInstanceID: workflowInstanceID})
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrInstanceNotFound, workflowInstanceID)
	}
	instance := instances[0]
	workflow, err := e.Workflow(ctx, instance.WorkflowID)
	if err != nil {
		return nil, err
	}
	instance.Bind(workflow, e.runtime)
	return instance, nil
}

func openActivityInstance(instance *execution.WorkflowInstance, activityInstanceID string) (*execution.ActivityInstance, error) {
	activityInstance := instance.ActivityInstance(activityInstanceID)
	if activityInstance == nil || activityInstance.IsEnded() {
		return nil, fmt.Errorf("%w: %v", ErrActivityInstanceNotFound, activityInstanceID)
	}
	return activityInstance, nil
}
