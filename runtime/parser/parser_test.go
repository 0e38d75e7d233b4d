package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/bpmn/extension"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/model/graph"
	"github.com/viant/bpmn/runtime/parser"
	"github.com/viant/bpmn/service/activity"
	"github.com/viant/bpmn/service/timer"
	"github.com/viant/bpmn/service/trigger"
)

func newParser() *parser.Parser {
	registry := extension.NewRegistry()
	activity.Register(registry)
	trigger.Register(registry)
	timer.Register(registry)
	return parser.New(registry)
}

func errorPaths(issues model.Issues) []string {
	var ret []string
	for _, issue := range issues.Errors() {
		ret = append(ret, issue.Path)
	}
	return ret
}

func TestParser_Parse(t *testing.T) {
	var testCases = []struct {
		description string
		workflow    func() *model.Workflow
		expectPaths []string
	}{
		{
			description: "valid sequence",
			workflow: func() *model.Workflow {
				ret := model.NewWorkflow("valid")
				ret.Variable("amount", "int")
				ret.NewActivity("start", activity.KindStartEvent)
				ret.NewActivity("end", activity.KindEndEvent)
				ret.Transition("start", "end")
				return ret
			},
		},
		{
			description: "no activities",
			workflow:    func() *model.Workflow { return model.NewWorkflow("empty") },
			expectPaths: []string{"activities"},
		},
		{
			description: "unknown activity type",
			workflow: func() *model.Workflow {
				ret := model.NewWorkflow("unknown")
				ret.NewActivity("x", "bogus")
				return ret
			},
			expectPaths: []string{"x"},
		},
		{
			description: "duplicate activity id",
			workflow: func() *model.Workflow {
				ret := model.NewWorkflow("duplicate")
				ret.NewActivity("a", activity.KindNoneTask)
				ret.NewActivity("a", activity.KindNoneTask)
				return ret
			},
			expectPaths: []string{"a"},
		},
		{
			description: "unknown transition target",
			workflow: func() *model.Workflow {
				ret := model.NewWorkflow("target")
				ret.NewActivity("start", activity.KindStartEvent)
				ret.Transition("start", "missing")
				return ret
			},
			expectPaths: []string{"transitions[0]"},
		},
		{
			description: "no start activity",
			workflow: func() *model.Workflow {
				ret := model.NewWorkflow("cycle")
				ret.NewActivity("a", activity.KindUserTask)
				ret.NewActivity("b", activity.KindUserTask)
				ret.Transition("a", "b")
				ret.Transition("b", "a")
				return ret
			},
			expectPaths: []string{"activities"},
		},
		{
			description: "invalid condition",
			workflow: func() *model.Workflow {
				ret := model.NewWorkflow("condition")
				ret.NewActivity("start", activity.KindStartEvent)
				ret.NewActivity("end", activity.KindEndEvent)
				ret.Transition("start", "end").WithCondition("amount >")
				return ret
			},
			expectPaths: []string{"transitions[0].condition"},
		},
		{
			description: "ambiguous timer",
			workflow: func() *model.Workflow {
				ret := model.NewWorkflow("timer")
				ret.NewActivity("wait", activity.KindUserTask).WithTimer(&graph.Timer{
					Type:     timer.KindIntermediateThrowEvent,
					Duration: "PT5M",
					Date:     "2030-01-01",
				})
				return ret
			},
			expectPaths: []string{"wait.timers[0]"},
		},
		{
			description: "unknown data type",
			workflow: func() *model.Workflow {
				ret := model.NewWorkflow("types")
				ret.Variable("v", "complex128")
				ret.NewActivity("start", activity.KindStartEvent)
				return ret
			},
			expectPaths: []string{"variables[0]"},
		},
		{
			description: "unknown default transition",
			workflow: func() *model.Workflow {
				ret := model.NewWorkflow("default")
				ret.NewActivity("route", activity.KindExclusiveGateway).DefaultTransitionID = "nope"
				ret.NewActivity("a", activity.KindEndEvent)
				ret.Transition("route", "a")
				return ret
			},
			expectPaths: []string{"route"},
		},
		{
			description: "nested scope without start activity",
			workflow: func() *model.Workflow {
				ret := model.NewWorkflow("nested")
				sub := ret.NewActivity("sub", activity.KindEmbeddedSubprocess)
				sub.Activity(graph.NewActivity("a", activity.KindUserTask))
				sub.Activity(graph.NewActivity("b", activity.KindUserTask))
				sub.Transition("a", "b")
				sub.Transition("b", "a")
				return ret
			},
			expectPaths: []string{"sub"},
		},
		{
			description: "unknown trigger",
			workflow: func() *model.Workflow {
				ret := model.NewWorkflow("trigger")
				ret.NewActivity("start", activity.KindStartEvent)
				return ret.WithTrigger("webhook", nil)
			},
			expectPaths: []string{"trigger"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			_, issues := newParser().Parse(testCase.workflow())
			assert.Equal(t, testCase.expectPaths, errorPaths(issues), issues.String())
		})
	}
}

func TestParser_Compile(t *testing.T) {
	source := model.NewWorkflow("orders")
	source.NewActivity("start", activity.KindStartEvent)
	sub := source.NewActivity("sub", activity.KindEmbeddedSubprocess)
	sub.Activity(graph.NewActivity("inner", activity.KindUserTask))
	source.NewActivity("route", activity.KindExclusiveGateway).DefaultTransitionID = "fallback"
	source.NewActivity("end", activity.KindEndEvent)
	source.Transition("start", "sub")
	source.Transition("sub", "route")
	source.Transition("route", "end").WithCondition("amount > 10")
	source.Transition("route", "end").WithID("fallback")

	compiled, issues := newParser().Parse(source)
	require.False(t, issues.HasErrors(), issues.String())

	require.Len(t, compiled.StartActivities, 1)
	assert.Equal(t, "start", compiled.StartActivities[0].ID)
	assert.Equal(t, "start->sub", compiled.Activity("start").Outgoing[0].ID)

	route := compiled.Activity("route")
	require.NotNil(t, route.DefaultTransition)
	assert.Equal(t, "fallback", route.DefaultTransition.ID)

	inner := compiled.Activity("inner")
	require.NotNil(t, inner)
	assert.Same(t, compiled.Activity("sub").Scope, inner.Parent)
	require.Len(t, compiled.Activity("sub").Scope.StartActivities, 1)
}
