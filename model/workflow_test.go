package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/bpmn/model/graph"
)

func TestProgrammaticWorkflowCreation(t *testing.T) {
	workflow := NewWorkflow("approval")
	workflow.Variable("amount", "int")
	workflow.NewActivity("start", "startEvent")
	workflow.NewActivity("review", "userTask")
	workflow.NewActivity("end", "endEvent")
	workflow.Transition("start", "review")
	workflow.Transition("review", "end").WithCondition("amount > 10")

	encoded, err := json.Marshal(workflow)
	assert.NoError(t, err)

	var decoded Workflow
	assert.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, "approval", decoded.SourceWorkflowID)
	assert.Len(t, decoded.Activities, 3)
	assert.Equal(t, "userTask", decoded.Activities[1].Type)
	assert.Equal(t, "amount > 10", decoded.Transitions[1].Condition)
	variable, ok := decoded.Variables.Get("amount")
	assert.True(t, ok)
	assert.Equal(t, "int", variable.DataType)
}

func TestIssues_HasErrors(t *testing.T) {
	testCases := []struct {
		name     string
		build    func(issues *Issues)
		expected bool
	}{
		{name: "empty", build: func(issues *Issues) {}, expected: false},
		{name: "warning only", build: func(issues *Issues) { issues.AddWarning("a", "unused") }, expected: false},
		{name: "error", build: func(issues *Issues) {
			issues.AddWarning("a", "unused")
			issues.AddError("b", "unknown kind %v", "x")
		}, expected: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var issues Issues
			testCase.build(&issues)
			assert.Equal(t, testCase.expected, issues.HasErrors())
			assert.Equal(t, testCase.expected, len(issues.Errors()) > 0)
		})
	}
}

func TestTimer_ExpressionCount(t *testing.T) {
	testCases := []struct {
		name     string
		timer    *graph.Timer
		expected int
	}{
		{name: "none", timer: &graph.Timer{}, expected: 0},
		{name: "duration", timer: &graph.Timer{Duration: "PT5M"}, expected: 1},
		{name: "date and cycle", timer: &graph.Timer{Date: "2024-01-01T00:00:00Z", Cycle: "*/5 * * * *"}, expected: 2},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, testCase.timer.ExpressionCount())
		})
	}
}

func TestPage(t *testing.T) {
	testCases := []struct {
		name                   string
		size, skip, limit      int
		expectStart, expectEnd int
	}{
		{name: "no limit", size: 5, expectStart: 0, expectEnd: 5},
		{name: "skip and limit", size: 5, skip: 1, limit: 2, expectStart: 1, expectEnd: 3},
		{name: "skip beyond", size: 2, skip: 4, limit: 1, expectStart: 2, expectEnd: 2},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			start, end := Page(testCase.size, testCase.skip, testCase.limit)
			assert.Equal(t, testCase.expectStart, start)
			assert.Equal(t, testCase.expectEnd, end)
		})
	}
}
