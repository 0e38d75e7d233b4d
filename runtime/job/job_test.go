package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/bpmn/model"
)

func TestJob_IsDue(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)
	testCases := []struct {
		name   string
		job    *Job
		expect bool
	}{
		{name: "no due date", job: &Job{}, expect: true},
		{name: "due now", job: &Job{DueDate: &now}, expect: true},
		{name: "past", job: &Job{DueDate: &past}, expect: true},
		{name: "future", job: &Job{DueDate: &future}, expect: false},
		{name: "locked", job: &Job{DueDate: &past, Lock: model.NewLock(now, "node-1")}, expect: false},
		{name: "done", job: &Job{DueDate: &past, Done: true}, expect: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expect, testCase.job.IsDue(now))
		})
	}
}

func TestScope_Accepts(t *testing.T) {
	workflowJob := &Job{WorkflowID: "w1", ActivityID: "start"}
	instanceJob := &Job{WorkflowID: "w1", WorkflowInstanceID: "i1", ActivityInstanceID: "3"}
	assert.True(t, AnyScope.Accepts(workflowJob))
	assert.True(t, AnyScope.Accepts(instanceJob))
	assert.True(t, WorkflowScope.Accepts(workflowJob))
	assert.False(t, WorkflowScope.Accepts(instanceJob))
	assert.False(t, InstanceScope.Accepts(workflowJob))
	assert.True(t, InstanceScope.Accepts(instanceJob))
}

func TestJob_Clone(t *testing.T) {
	now := time.Now()
	original := &Job{Key: "k", DueDate: &now, Data: map[string]interface{}{"a": 1}}
	clone := original.Clone()
	clone.SetDueDate(now.Add(time.Hour))
	clone.Data["a"] = 2
	clone.AddExecution(&Execution{Time: now})
	assert.Equal(t, now, *original.DueDate)
	assert.Equal(t, 1, original.Data["a"])
	assert.Empty(t, original.Executions)
}
