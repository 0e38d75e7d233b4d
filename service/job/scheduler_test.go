package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/bpmn/internal/clock"
	"github.com/viant/bpmn/runtime/job"
	jobdao "github.com/viant/bpmn/service/dao/job"
)

type testHandler struct {
	maxRetries int
	failures   int
	reschedule time.Duration
	// rescheduleFirst reschedules before a failure is returned
	rescheduleFirst bool
	calls           int
}

func (h *testHandler) MaxRetries() int { return h.maxRetries }

func (h *testHandler) RetryDelay(attempt int) time.Duration {
	return time.Duration(attempt) * time.Minute
}

func (h *testHandler) Execute(ctx context.Context, jobContext *Context) error {
	h.calls++
	jobContext.Logger.Info().Int("call", h.calls).Msg("executing")
	if h.rescheduleFirst {
		jobContext.Reschedule(clock.Now().Add(h.reschedule))
	}
	if h.calls <= h.failures {
		return errors.New("downstream unavailable")
	}
	if h.reschedule > 0 {
		jobContext.Reschedule(clock.Now().Add(h.reschedule))
	}
	return nil
}

func TestScheduler_Execute(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		description     string
		handler         *testHandler
		jobType         string
		runs            int
		expectArchived  bool
		expectErrors    []bool
		expectRetries   int
		expectDueOffset time.Duration
	}{
		{
			description:    "success archives",
			handler:        &testHandler{},
			jobType:        "test",
			runs:           1,
			expectArchived: true,
			expectErrors:   []bool{false},
		},
		{
			description:     "failure within budget is retried",
			handler:         &testHandler{maxRetries: 2, failures: 1},
			jobType:         "test",
			runs:            1,
			expectErrors:    []bool{true},
			expectRetries:   1,
			expectDueOffset: time.Minute,
		},
		{
			description:    "retries exhausted archives as failed",
			handler:        &testHandler{maxRetries: 1, failures: 5},
			jobType:        "test",
			runs:           2,
			expectArchived: true,
			expectErrors:   []bool{true, true},
			expectRetries:  1,
		},
		{
			description:     "recurring job is rescheduled",
			handler:         &testHandler{reschedule: 5 * time.Minute},
			jobType:         "test",
			runs:            1,
			expectErrors:    []bool{false},
			expectDueOffset: 5 * time.Minute,
		},
		{
			description:     "failed recurring job without retries moves to next occurrence",
			handler:         &testHandler{failures: 1, reschedule: 5 * time.Minute, rescheduleFirst: true},
			jobType:         "test",
			runs:            1,
			expectErrors:    []bool{true},
			expectDueOffset: 5 * time.Minute,
		},
		{
			description:    "unknown type archives",
			handler:        &testHandler{},
			jobType:        "unknown",
			runs:           1,
			expectArchived: true,
			expectErrors:   []bool{true},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			restore := clock.Freeze(now)
			defer restore()
			ctx := context.Background()
			store, err := jobdao.NewMemory()
			require.NoError(t, err)
			scheduler := New(store, nil, "engine-1", WithHandler("test", testCase.handler))
			aJob := &job.Job{Key: "j1", Type: testCase.jobType}
			aJob.SetDueDate(now)
			require.NoError(t, store.Save(ctx, aJob))

			for i := 0; i < testCase.runs; i++ {
				executed, err := scheduler.ExecuteByKey(ctx, "j1")
				require.NoError(t, err)
				assert.True(t, executed)
			}

			var stored *job.Job
			if testCase.expectArchived {
				archived, err := store.FindArchived(ctx, &job.Query{Key: "j1"})
				require.NoError(t, err)
				require.Len(t, archived, 1)
				stored = archived[0]
				assert.True(t, stored.Done)
				live, err := store.Find(ctx, &job.Query{Key: "j1"})
				require.NoError(t, err)
				assert.Empty(t, live)
			} else {
				live, err := store.Find(ctx, &job.Query{Key: "j1"})
				require.NoError(t, err)
				require.Len(t, live, 1)
				stored = live[0]
				assert.Nil(t, stored.Lock)
				assert.False(t, stored.Done)
				assert.Equal(t, now.Add(testCase.expectDueOffset), *stored.DueDate)
			}
			assert.Equal(t, testCase.expectRetries, stored.Retries)
			require.Len(t, stored.Executions, len(testCase.expectErrors))
			for i, expectError := range testCase.expectErrors {
				assert.Equal(t, expectError, stored.Executions[i].Error)
				assert.NotEmpty(t, stored.Executions[i].Logs)
			}
		})
	}
}

func TestScheduler_RunDue(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	defer clock.Freeze(now)()
	ctx := context.Background()
	store, err := jobdao.NewMemory()
	require.NoError(t, err)
	handler := &testHandler{}
	scheduler := New(store, nil, "engine-1", WithHandler("test", handler))
	for i, due := range []time.Duration{-time.Minute, 0, time.Minute} {
		aJob := &job.Job{Key: string(rune('a' + i)), Type: "test"}
		aJob.SetDueDate(now.Add(due))
		require.NoError(t, store.Save(ctx, aJob))
	}

	executed, err := scheduler.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, executed)
	assert.Equal(t, 2, handler.calls)
	live, err := store.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "c", live[0].Key)
}
