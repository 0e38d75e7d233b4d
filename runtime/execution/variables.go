package execution

import (
	"fmt"
	"reflect"

	"github.com/viant/structology/conv"
)

var converter = conv.NewConverter(conv.DefaultOptions())

// Variable resolves a value through the activity instance nesting chain up
// to the workflow instance
func (a *ActivityInstance) Variable(id string) (interface{}, bool) {
	for scope := a; scope != nil; scope = scope.Parent() {
		if value, ok := scope.Variables[id]; ok {
			return value, true
		}
	}
	return a.instance.VariableValue(id)
}

// SetVariable writes a value to the nearest scope already holding or
// declaring the variable, the workflow instance otherwise
func (a *ActivityInstance) SetVariable(id string, value interface{}) error {
	for scope := a; scope != nil; scope = scope.Parent() {
		_, holds := scope.Variables[id]
		declaration := scope.Activity().Declares(id)
		if !holds && declaration == nil {
			continue
		}
		typed, err := typedValue(declaration, value)
		if err != nil {
			return err
		}
		scope.Variables[id] = typed
		return nil
	}
	return a.instance.SetVariableValue(id, value)
}

// SetVariableValues writes every supplied value
func (a *ActivityInstance) SetVariableValues(values map[string]interface{}) error {
	for id, value := range values {
		if err := a.SetVariable(id, value); err != nil {
			return err
		}
	}
	return nil
}

// VariableValues returns values visible from the activity instance
func (a *ActivityInstance) VariableValues() map[string]interface{} {
	result := a.instance.VariableValues()
	var chain []*ActivityInstance
	for scope := a; scope != nil; scope = scope.Parent() {
		chain = append(chain, scope)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Variables {
			result[k] = v
		}
	}
	return result
}

// VariableValue returns a top level variable value
func (w *WorkflowInstance) VariableValue(id string) (interface{}, bool) {
	value, ok := w.Variables[id]
	return value, ok
}

// VariableValues returns a copy of top level variable values
func (w *WorkflowInstance) VariableValues() map[string]interface{} {
	result := copyMap(w.Variables)
	if result == nil {
		result = make(map[string]interface{})
	}
	return result
}

// SetVariableValue sets a top level variable, converting declared types
func (w *WorkflowInstance) SetVariableValue(id string, value interface{}) error {
	var declaration *Variable
	if w.workflow != nil {
		declaration = w.workflow.Variables[id]
	}
	typed, err := typedValue(declaration, value)
	if err != nil {
		return err
	}
	w.Variables[id] = typed
	return nil
}

// SetVariableValues sets top level variables
func (w *WorkflowInstance) SetVariableValues(values map[string]interface{}) error {
	for id, value := range values {
		if err := w.SetVariableValue(id, value); err != nil {
			return err
		}
	}
	return nil
}

// InitializeVariables applies declared defaults
func (w *WorkflowInstance) InitializeVariables() error {
	for id, declaration := range w.workflow.Variables {
		if declaration.Default == nil {
			continue
		}
		if _, ok := w.Variables[id]; ok {
			continue
		}
		if err := w.SetVariableValue(id, declaration.Default); err != nil {
			return err
		}
	}
	return nil
}

func typedValue(declaration *Variable, value interface{}) (interface{}, error) {
	if declaration == nil || declaration.Type == nil || value == nil {
		return value, nil
	}
	if reflect.TypeOf(value) == declaration.Type {
		return value, nil
	}
	target := declaration.Type
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	instance := reflect.New(target).Interface()
	if err := converter.Convert(value, instance); err != nil {
		return nil, fmt.Errorf("failed to convert variable %v to %v: %w", declaration.ID, declaration.DataType, err)
	}
	if declaration.Type.Kind() == reflect.Ptr {
		return instance, nil
	}
	return reflect.ValueOf(instance).Elem().Interface(), nil
}
