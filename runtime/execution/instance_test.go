package execution

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/model/graph"
)

type passType struct{}

func (passType) Parse(*Activity, *model.Issues) {}
func (passType) Execute(ctx context.Context, ai *ActivityInstance) error {
	return ai.Onwards(ctx)
}
func (passType) Message(context.Context, *ActivityInstance) error { return nil }
func (passType) IsFlushSkippable() bool                           { return true }

type waitType struct{}

func (waitType) Parse(*Activity, *model.Issues)                   {}
func (waitType) Execute(context.Context, *ActivityInstance) error { return nil }
func (waitType) Message(ctx context.Context, ai *ActivityInstance) error {
	return ai.Onwards(ctx)
}
func (waitType) IsFlushSkippable() bool { return false }

type recorder struct {
	started []string
	ended   []string
}

func (r *recorder) ActivityStarted(_ context.Context, ai *ActivityInstance) error {
	r.started = append(r.started, ai.ActivityID)
	return nil
}

func (r *recorder) ActivityEnded(_ context.Context, ai *ActivityInstance) {
	r.ended = append(r.ended, ai.ActivityID)
}

func (r *recorder) TransitionTaken(context.Context, *ActivityInstance, *Transition) {}

// testWorkflow builds start -> (review if approved | reject) -> end
func testWorkflow() *Workflow {
	ret := NewWorkflow(model.NewWorkflow("approval"))
	ret.ID = "approval-1"
	add := func(id string, aType ActivityType) *Activity {
		activity := &Activity{ID: id, Kind: "test", Type: aType, Model: graph.NewActivity(id, "test")}
		ret.AddActivity(activity)
		ret.Index(activity)
		return activity
	}
	link := func(from, to *Activity, condition string) *Transition {
		transition := &Transition{ID: from.ID + "-" + to.ID, From: from, To: to, Condition: condition}
		from.Outgoing = append(from.Outgoing, transition)
		to.Incoming = append(to.Incoming, transition)
		ret.Transitions = append(ret.Transitions, transition)
		return transition
	}
	start := add("start", passType{})
	review := add("review", waitType{})
	reject := add("reject", waitType{})
	end := add("end", passType{})
	link(start, review, "approved == true")
	start.DefaultTransition = link(start, reject, "")
	link(review, end, "")
	link(reject, end, "")
	ret.StartActivities = []*Activity{start}
	ret.Variables["approved"] = &Variable{ID: "approved", DataType: "bool"}
	return ret
}

func drain(t *testing.T, ctx context.Context, instance *WorkflowInstance) {
	for ai := instance.NextWork(); ai != nil; ai = instance.NextWork() {
		require.NoError(t, instance.Perform(ctx, ai))
	}
}

func TestWorkflowInstance_Execute(t *testing.T) {
	testCases := []struct {
		description string
		approved    bool
		expectOpen  string
	}{
		{description: "guarded transition", approved: true, expectOpen: "review"},
		{description: "default transition", approved: false, expectOpen: "reject"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			ctx := context.Background()
			workflow := testWorkflow()
			listener := &recorder{}
			runtime := NewRuntime("node-1")
			runtime.Listeners = []Listener{listener}
			instance := NewWorkflowInstance("wi-1", workflow, runtime)
			require.NoError(t, instance.SetVariableValue("approved", testCase.approved))
			_, err := instance.Execute(ctx, workflow.Activity("start"), nil)
			require.NoError(t, err)
			drain(t, ctx, instance)

			open := instance.OpenActivityInstances()
			require.Len(t, open, 1)
			assert.Equal(t, testCase.expectOpen, open[0].ActivityID)
			assert.False(t, instance.IsEnded())

			require.NoError(t, open[0].Activity().Type.Message(ctx, open[0]))
			drain(t, ctx, instance)
			assert.True(t, instance.IsEnded())
			assert.True(t, instance.TakeEnded())
			assert.False(t, instance.TakeEnded())
			assert.EqualValues(t, []string{"start", testCase.expectOpen, "end"}, listener.started)
			assert.EqualValues(t, []string{"start", testCase.expectOpen, "end"}, listener.ended)

			snapshot := instance.Snapshot()
			require.Len(t, snapshot.Activities, 3)
			for _, ai := range snapshot.Activities {
				assert.Equal(t, string(StateEnded), ai.State)
				assert.NotNil(t, ai.End)
			}
		})
	}
}

func TestActivityInstance_Lifecycle(t *testing.T) {
	ctx := context.Background()
	workflow := testWorkflow()
	instance := NewWorkflowInstance("wi-1", workflow, nil)
	ai, err := instance.Execute(ctx, workflow.Activity("review"), nil)
	require.NoError(t, err)

	assert.True(t, ai.IsOpen())
	require.NoError(t, ai.MarkJoining(ctx))
	assert.True(t, ai.IsJoining())
	assert.Error(t, ai.MarkJoining(ctx))
	require.NoError(t, ai.End(ctx))
	assert.True(t, ai.IsEnded())
	assert.Error(t, ai.End(ctx))
}

func TestWorkflowInstance_Clone(t *testing.T) {
	ctx := context.Background()
	workflow := testWorkflow()
	instance := NewWorkflowInstance("wi-1", workflow, nil)
	ai, err := instance.Execute(ctx, workflow.Activity("review"), nil)
	require.NoError(t, err)
	ai.Variables["note"] = "draft"

	cloned := instance.Clone()
	cloned.Bind(workflow, nil)
	ai.Variables["note"] = "final"
	require.NoError(t, ai.End(ctx))

	clonedAI := cloned.ActivityInstance(ai.ID)
	require.NotNil(t, clonedAI)
	assert.Equal(t, "draft", clonedAI.Variables["note"])
	assert.True(t, clonedAI.IsOpen())
	assert.Same(t, cloned, clonedAI.Instance())
}

func TestActivityInstance_SetVariable(t *testing.T) {
	ctx := context.Background()
	workflow := testWorkflow()
	instance := NewWorkflowInstance("wi-1", workflow, nil)
	ai, err := instance.Execute(ctx, workflow.Activity("review"), nil)
	require.NoError(t, err)
	ai.Variables["local"] = 1

	require.NoError(t, ai.SetVariable("local", 2))
	require.NoError(t, ai.SetVariable("approved", true))

	assert.Equal(t, 2, ai.Variables["local"])
	_, inScope := ai.Variables["approved"]
	assert.False(t, inScope)
	value, ok := instance.VariableValue("approved")
	require.True(t, ok)
	assert.Equal(t, true, value)
	assert.Equal(t, map[string]interface{}{"approved": true, "local": 2}, ai.VariableValues())
}

func TestWorkflowInstance_Logger(t *testing.T) {
	ctx := context.Background()
	buffer := &bytes.Buffer{}
	runtime := NewRuntime("node-1")
	runtime.Logger = zerolog.New(buffer).Level(zerolog.DebugLevel)
	workflow := testWorkflow()
	instance := NewWorkflowInstance("wi-1", workflow, runtime)
	require.NoError(t, instance.SetVariableValue("approved", false))
	_, err := instance.Execute(ctx, workflow.Activity("start"), nil)
	require.NoError(t, err)
	drain(t, ctx, instance)
	open := instance.OpenActivityInstances()
	require.Len(t, open, 1)
	require.NoError(t, open[0].Activity().Type.Message(ctx, open[0]))
	drain(t, ctx, instance)

	require.True(t, instance.IsEnded())
	assert.Contains(t, buffer.String(), `"workflowInstance":"wi-1"`)
	assert.Contains(t, buffer.String(), "workflow instance ended")
}
