package bpmn_test

import (
	"context"
	"embed"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	_ "github.com/viant/afs/embed"
	"github.com/viant/bpmn"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/service/event"
	"github.com/viant/bpmn/service/meta"
)

//go:embed testdata/*
var embedFS embed.FS

func newService(t *testing.T, options ...bpmn.Option) *bpmn.Service {
	config := bpmn.DefaultConfig()
	config.EngineID = "node-1"
	config.Scheduler.Enabled = false
	options = append([]bpmn.Option{
		bpmn.WithConfig(config),
		bpmn.WithLogger(zerolog.Nop()),
		bpmn.WithMetaFsOptions(&embedFS),
		bpmn.WithMetaBaseURL("embed:///testdata"),
	}, options...)
	srv, err := bpmn.New(context.Background(), options...)
	require.NoError(t, err)
	return srv
}

func TestService_DeployWorkflow(t *testing.T) {
	var testCases = []struct {
		description string
		location    string
		expectErr   bool
	}{
		{description: "valid workflow", location: "review.yaml"},
		{description: "parse issues", location: "broken.yaml", expectErr: true},
		{description: "missing workflow", location: "missing.yaml", expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			srv := newService(t)
			deployment, err := srv.Runtime().DeployWorkflow(context.Background(), testCase.location)
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, deployment.WorkflowID)
		})
	}
}

func TestService_AsyncContinuation(t *testing.T) {
	ctx := context.Background()
	events := event.New()
	defer events.Close()
	received := make(chan *event.Event[event.Activity], 16)
	event.SetListenerOf[event.Activity](events, func(e *event.Event[event.Activity]) {
		select {
		case received <- e:
		default:
		}
	})

	srv := newService(t, bpmn.WithEventService(events))
	runtime := srv.Runtime()
	require.NoError(t, runtime.Start(ctx))
	defer runtime.Shutdown(ctx)

	_, err := runtime.DeployWorkflow(ctx, "review.yaml")
	require.NoError(t, err)

	anEngine := runtime.Engine()
	trigger := model.NewTriggerInstance("").WithVariable("amount", 3)
	trigger.SourceWorkflowID = "review"
	started, err := anEngine.Start(ctx, trigger)
	require.NoError(t, err)
	review := started.FindOpenActivityInstance("review")
	require.NotNil(t, review)

	message := model.NewMessage(started.ID, review.ID)
	message.VariableValues = map[string]interface{}{"approved": true}
	_, err = anEngine.Send(ctx, message)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		instances, err := anEngine.FindInstances(ctx, &model.InstanceQuery{WorkflowInstanceID: started.ID})
		return err == nil && len(instances) == 1 && instances[0].IsEnded()
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case e := <-received:
		assert.Equal(t, started.ID, e.Context.WorkflowInstanceID)
	case <-time.After(time.Second):
		t.Fatal("expected activity event")
	}
}

func TestRuntime_Lifecycle(t *testing.T) {
	ctx := context.Background()
	runtime := newService(t).Runtime()
	require.NoError(t, runtime.Start(ctx))
	require.NoError(t, runtime.Start(ctx))
	require.NoError(t, runtime.Shutdown(ctx))
	assert.Error(t, runtime.Start(ctx))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("BPMN_TEST_ENGINE", "node-7")
	metaService := meta.New(afs.New(), "embed:///testdata", &embedFS)

	config, err := bpmn.LoadConfig(context.Background(), metaService, "config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "node-7", config.EngineID)
	assert.Equal(t, 5, config.Lock.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, config.Lock.Delay)
	assert.False(t, config.Scheduler.Enabled)
	assert.Equal(t, 2*time.Second, config.Scheduler.PollInterval)
	assert.Equal(t, 2, config.Processor.WorkerCount)
	assert.Equal(t, bpmn.DefaultConfig().Processor.QueueBuffer, config.Processor.QueueBuffer)
}

func TestConfig_Validate(t *testing.T) {
	var testCases = []struct {
		description string
		mutate      func(c *bpmn.Config)
		expectErr   bool
	}{
		{description: "defaults", mutate: func(c *bpmn.Config) {}},
		{description: "empty engine id", mutate: func(c *bpmn.Config) { c.EngineID = "" }, expectErr: true},
		{description: "no lock attempts", mutate: func(c *bpmn.Config) { c.Lock.MaxAttempts = 0 }, expectErr: true},
		{description: "unknown backoff", mutate: func(c *bpmn.Config) { c.Lock.Backoff = "random" }, expectErr: true},
		{description: "no workers", mutate: func(c *bpmn.Config) { c.Processor.WorkerCount = 0 }, expectErr: true},
		{description: "disabled scheduler ignores poll", mutate: func(c *bpmn.Config) {
			c.Scheduler.Enabled = false
			c.Scheduler.PollInterval = 0
		}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			config := bpmn.DefaultConfig()
			testCase.mutate(config)
			err := config.Validate()
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
