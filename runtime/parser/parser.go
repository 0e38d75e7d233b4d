// Package parser compiles authoring-time workflow definitions into immutable
// execution workflows, reporting every problem found as a structured issue.
package parser

import (
	"fmt"
	"time"

	"github.com/viant/bpmn/extension"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/model/graph"
	"github.com/viant/bpmn/model/state"
	"github.com/viant/bpmn/runtime/evaluator"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/runtime/timer"
)

// Parser compiles workflows using kinds registered in the extension registry
type Parser struct {
	registry *extension.Registry
}

// Parse compiles source; the returned workflow is usable only when issues hold no errors.
// Parse does not depend on the current time, so a stored workflow always
// recompiles the same way.
func (p *Parser) Parse(source *model.Workflow) (*execution.Workflow, model.Issues) {
	var issues model.Issues
	if source == nil {
		issues.AddError("", "workflow was nil")
		return nil, issues
	}
	ret := execution.NewWorkflow(source)
	p.parseVariables(ret.Scope, source.Variables, "variables", &issues)
	p.parseScope(ret, ret.Scope, source.Activities, source.Transitions, "", &issues)
	p.parseTrigger(ret, source.Trigger, &issues)
	if len(ret.StartActivities) == 0 && len(source.Activities) > 0 {
		issues.AddError("activities", "no start activity: every activity has an incoming transition")
	}
	if len(source.Activities) == 0 {
		issues.AddError("activities", "workflow has no activities")
	}
	return ret, issues
}

// CheckDueDates reports timers without a due date at now, for example a
// cycle whose last occurrence has passed. It applies to new deployments only.
func (p *Parser) CheckDueDates(workflow *execution.Workflow, now time.Time) model.Issues {
	var issues model.Issues
	if workflow != nil {
		checkDueDates(workflow.Scope, now, &issues)
	}
	return issues
}

func checkDueDates(scope *execution.Scope, now time.Time, issues *model.Issues) {
	for _, activity := range scope.Activities {
		for _, activityTimer := range activity.Timers {
			if _, err := timer.CalculateDueDate(activityTimer.Model, now); err != nil {
				issues.AddError(fmt.Sprintf("%s.timers[%d]", activity.ID, activityTimer.Index), "%v", err)
			}
		}
		if activity.HasScope() {
			checkDueDates(activity.Scope, now, issues)
		}
	}
}

func (p *Parser) parseScope(workflow *execution.Workflow, scope *execution.Scope, activities []*graph.Activity, transitions []*graph.Transition, path string, issues *model.Issues) {
	for i, source := range activities {
		activityPath := fmt.Sprintf("%sactivities[%d]", path, i)
		if source == nil {
			issues.AddError(activityPath, "activity was nil")
			continue
		}
		if source.ID != "" {
			activityPath = path + source.ID
		}
		activity := p.parseActivity(workflow, source, activityPath, issues)
		if activity == nil {
			continue
		}
		scope.AddActivity(activity)
	}
	p.parseTransitions(scope, transitions, path, issues)
	for _, activity := range scope.Activities {
		if len(activity.Incoming) == 0 {
			scope.StartActivities = append(scope.StartActivities, activity)
		}
	}
	for _, activity := range scope.Activities {
		if activity.Type != nil {
			activity.Type.Parse(activity, issues)
		}
		for _, activityTimer := range activity.Timers {
			activityTimer.Type.Parse(activityTimer, activity, issues)
		}
		if activity.HasScope() && len(activity.Scope.StartActivities) == 0 {
			issues.AddError(path+activity.ID, "nested scope has no start activity")
		}
	}
}

func (p *Parser) parseActivity(workflow *execution.Workflow, source *graph.Activity, path string, issues *model.Issues) *execution.Activity {
	if source.ID == "" {
		issues.AddError(path, "activity id was empty")
		return nil
	}
	activity := &execution.Activity{
		ID:            source.ID,
		Kind:          source.Type,
		Model:         source,
		Async:         source.Async,
		MultiInstance: source.MultiInstance,
	}
	if !workflow.Index(activity) {
		issues.AddError(path, "duplicate activity id %v", source.ID)
		return nil
	}
	aType, ok := p.registry.Activity(source.Type)
	if !ok {
		issues.AddError(path, "unknown activity type %q", source.Type)
	}
	activity.Type = aType
	if source.MultiInstance != nil && source.MultiInstance.Collection == "" {
		issues.AddError(path+".multiInstance", "collection was empty")
	}
	for i, timerModel := range source.Timers {
		if compiled := p.parseTimer(i, timerModel, fmt.Sprintf("%s.timers[%d]", path, i), issues); compiled != nil {
			activity.Timers = append(activity.Timers, compiled)
		}
	}
	if len(source.Activities) > 0 || len(source.Variables) > 0 {
		activity.Scope = execution.NewScope(activity)
		p.parseVariables(activity.Scope, source.Variables, path+".variables", issues)
		p.parseScope(workflow, activity.Scope, source.Activities, source.Transitions, path+"/", issues)
	}
	return activity
}

func (p *Parser) parseTransitions(scope *execution.Scope, transitions []*graph.Transition, path string, issues *model.Issues) {
	for i, source := range transitions {
		transitionPath := fmt.Sprintf("%stransitions[%d]", path, i)
		if source == nil {
			issues.AddError(transitionPath, "transition was nil")
			continue
		}
		from := scope.LocalActivity(source.From)
		if from == nil {
			issues.AddError(transitionPath, "unknown source activity %q", source.From)
			continue
		}
		to := scope.LocalActivity(source.To)
		if to == nil {
			issues.AddError(transitionPath, "unknown target activity %q", source.To)
			continue
		}
		if source.Condition != "" {
			if err := evaluator.Validate(source.Condition); err != nil {
				issues.AddError(transitionPath+".condition", "%v", err)
			}
		}
		transition := &execution.Transition{ID: source.ID, From: from, To: to, Condition: source.Condition}
		if transition.ID == "" {
			transition.ID = fmt.Sprintf("%v->%v", from.ID, to.ID)
		}
		from.Outgoing = append(from.Outgoing, transition)
		to.Incoming = append(to.Incoming, transition)
		scope.Transitions = append(scope.Transitions, transition)
	}
	for _, activity := range scope.Activities {
		defaultID := activity.Model.DefaultTransitionID
		if defaultID == "" {
			continue
		}
		for _, transition := range activity.Outgoing {
			if transition.ID == defaultID {
				activity.DefaultTransition = transition
				break
			}
		}
		if activity.DefaultTransition == nil {
			issues.AddError(path+activity.ID, "unknown default transition %q", defaultID)
		}
	}
}

func (p *Parser) parseTimer(index int, source *graph.Timer, path string, issues *model.Issues) *execution.Timer {
	if source == nil {
		issues.AddError(path, "timer was nil")
		return nil
	}
	tType, ok := p.registry.Timer(source.Type)
	if !ok {
		issues.AddError(path, "unknown timer type %q", source.Type)
		return nil
	}
	if err := timer.CheckSyntax(source, tType.WorkflowLevel()); err != nil {
		issues.AddError(path, "%v", err)
		return nil
	}
	return &execution.Timer{Index: index, Kind: source.Type, Model: source, Type: tType}
}

func (p *Parser) parseVariables(scope *execution.Scope, variables state.Variables, path string, issues *model.Issues) {
	for i, source := range variables {
		variablePath := fmt.Sprintf("%s[%d]", path, i)
		if source == nil || source.ID == "" {
			issues.AddError(variablePath, "variable id was empty")
			continue
		}
		if _, ok := scope.Variables[source.ID]; ok {
			issues.AddError(variablePath, "duplicate variable %v", source.ID)
			continue
		}
		variable := &execution.Variable{ID: source.ID, DataType: source.DataType, Default: source.Default}
		if source.DataType != "" {
			dataType := p.registry.Types().Lookup(source.DataType)
			if dataType == nil {
				issues.AddError(variablePath, "unknown data type %q", source.DataType)
			} else {
				variable.Type = dataType.Type
			}
		}
		scope.Variables[source.ID] = variable
	}
}

func (p *Parser) parseTrigger(workflow *execution.Workflow, source *model.Trigger, issues *model.Issues) {
	if source == nil {
		return
	}
	tType, ok := p.registry.Trigger(source.Type)
	if !ok {
		issues.AddError("trigger", "unknown trigger type %q", source.Type)
		return
	}
	tType.Parse(workflow, source, issues)
	workflow.Trigger = tType
}

// New creates a parser
func New(registry *extension.Registry) *Parser {
	return &Parser{registry: registry}
}
