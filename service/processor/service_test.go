package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/service/messaging/memory"
)

type testEngine struct {
	mux       sync.Mutex
	failures  int
	calls     []string
	completed chan string
}

func (e *testEngine) Continue(ctx context.Context, continuation *execution.Continuation) (*model.WorkflowInstance, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.calls = append(e.calls, continuation.ActivityInstanceID)
	if e.failures > 0 {
		e.failures--
		return nil, errors.New("instance locked")
	}
	e.completed <- continuation.ActivityInstanceID
	return &model.WorkflowInstance{ID: continuation.WorkflowInstanceID}, nil
}

func TestService_Dispatch(t *testing.T) {
	var testCases = []struct {
		description string
		failures    int
		expectCalls int
	}{
		{description: "continued", expectCalls: 1},
		{description: "redelivered after failure", failures: 2, expectCalls: 3},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			engine := &testEngine{failures: testCase.failures, completed: make(chan string, 1)}
			config := memory.DefaultConfig()
			config.RetryDelay = time.Millisecond
			queue := memory.NewQueue[execution.Continuation](config)
			service, err := New(engine, WithMessageQueue(queue), WithWorkers(2))
			require.NoError(t, err)
			ctx := context.Background()
			require.NoError(t, service.Start(ctx))
			defer service.Shutdown()

			require.NoError(t, service.Dispatch(ctx, &execution.Continuation{WorkflowInstanceID: "wi-1", ActivityInstanceID: "3"}))
			select {
			case id := <-engine.completed:
				assert.Equal(t, "3", id)
			case <-time.After(2 * time.Second):
				t.Fatal("continuation was not executed")
			}
			engine.mux.Lock()
			assert.Len(t, engine.calls, testCase.expectCalls)
			engine.mux.Unlock()
		})
	}
}

func TestService_Shutdown(t *testing.T) {
	service, err := New(&testEngine{completed: make(chan string, 1)})
	require.NoError(t, err)
	require.NoError(t, service.Start(context.Background()))
	service.Shutdown()
	service.Shutdown()
	assert.Error(t, service.Dispatch(context.Background(), &execution.Continuation{}))
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
