// Package trigger implements workflow trigger kinds.
package trigger

import (
	"context"
	"fmt"

	"github.com/viant/bpmn/extension"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
)

// KindVariableMapping maps trigger data keys onto workflow variables
const KindVariableMapping = "variableMapping"

// Register registers default trigger kinds
func Register(registry *extension.Registry) {
	registry.RegisterTrigger(KindVariableMapping, func() execution.TriggerType { return &VariableMapping{} })
}

// VariableMapping copies trigger data to workflow variables by mapping
type VariableMapping struct {
	mappings map[string]string
}

func (v *VariableMapping) Parse(workflow *execution.Workflow, trigger *model.Trigger, issues *model.Issues) {
	v.mappings = trigger.Mappings
	for key, variableID := range trigger.Mappings {
		if variableID == "" {
			issues.AddError("trigger.mappings."+key, "variable id was empty")
			continue
		}
		if _, ok := workflow.Variables[variableID]; !ok {
			issues.AddWarning("trigger.mappings."+key, "variable %v is not declared", variableID)
		}
	}
}

// Apply sets raw variable values, then mapped trigger data; unmapped data is ignored
func (v *VariableMapping) Apply(instance *execution.WorkflowInstance, trigger *model.TriggerInstance) error {
	if err := instance.SetVariableValues(trigger.VariableValues); err != nil {
		return err
	}
	for key, variableID := range v.mappings {
		value, ok := trigger.Data[key]
		if !ok {
			continue
		}
		if err := instance.SetVariableValue(variableID, value); err != nil {
			return fmt.Errorf("failed to map trigger data %v: %w", key, err)
		}
	}
	return nil
}

func (v *VariableMapping) Published(ctx context.Context, workflow *execution.Workflow) error {
	return nil
}
