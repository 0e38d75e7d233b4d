package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/bpmn/internal/clock"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/job"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newJob(key string, due time.Duration, instanceID string) *job.Job {
	ret := &job.Job{Key: key, Type: "test", WorkflowID: "w1", WorkflowInstanceID: instanceID}
	ret.SetDueDate(now.Add(due))
	return ret
}

func TestMemory_LockNextJob(t *testing.T) {
	defer clock.Freeze(now)()
	ctx := context.Background()
	locked := newJob("locked", -time.Minute, "")
	locked.Lock = model.NewLock(now, "other")
	done := newJob("done", -time.Minute, "")
	done.Done = true

	testCases := []struct {
		description string
		jobs        []*job.Job
		scope       job.Scope
		expect      string
	}{
		{description: "earliest due job", jobs: []*job.Job{newJob("a", -time.Minute, ""), newJob("b", -time.Hour, "")}, expect: "b"},
		{description: "not yet due", jobs: []*job.Job{newJob("a", time.Minute, "")}, expect: ""},
		{description: "locked and done skipped", jobs: []*job.Job{locked, done}, expect: ""},
		{description: "workflow scope", jobs: []*job.Job{newJob("i", -time.Hour, "i1"), newJob("w", -time.Minute, "")}, scope: job.WorkflowScope, expect: "w"},
		{description: "instance scope", jobs: []*job.Job{newJob("i", -time.Minute, "i1"), newJob("w", -time.Hour, "")}, scope: job.InstanceScope, expect: "i"},
		{description: "no due date", jobs: []*job.Job{{Key: "now", Type: "test"}}, expect: "now"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			store, err := NewMemory()
			require.NoError(t, err)
			for _, aJob := range testCase.jobs {
				require.NoError(t, store.Save(ctx, aJob))
			}
			claimed, err := store.LockNextJob(ctx, testCase.scope, "engine")
			require.NoError(t, err)
			if testCase.expect == "" {
				assert.Nil(t, claimed)
				return
			}
			require.NotNil(t, claimed)
			assert.Equal(t, testCase.expect, claimed.Key)
			assert.Equal(t, "engine", claimed.Lock.Owner)
			again, err := store.LockJobByKey(ctx, claimed.Key, "engine-2")
			require.NoError(t, err)
			assert.Nil(t, again)
		})
	}
}

func TestMemory_LockNextJob_Concurrent(t *testing.T) {
	defer clock.Freeze(now)()
	ctx := context.Background()
	store, err := NewMemory()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, newJob("only", -time.Second, "")))

	var wg sync.WaitGroup
	var mux sync.Mutex
	claims := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.LockNextJob(ctx, job.AnyScope, "engine")
			assert.NoError(t, err)
			if claimed != nil {
				mux.Lock()
				claims++
				mux.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, claims)
}

func TestMemory_Archive(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemory()
	require.NoError(t, err)
	aJob := newJob("a", 0, "i1")
	require.NoError(t, store.Save(ctx, aJob))
	aJob.Done = true
	aJob.Lock = model.NewLock(now, "engine")
	require.NoError(t, store.Archive(ctx, aJob))

	live, err := store.Find(ctx, &job.Query{Key: "a"})
	require.NoError(t, err)
	assert.Empty(t, live)
	archived, err := store.FindArchived(ctx, &job.Query{WorkflowInstanceID: "i1"})
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.True(t, archived[0].Done)
	assert.Nil(t, archived[0].Lock)

	require.NoError(t, store.DeleteAllArchived(ctx))
	archived, err = store.FindArchived(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, archived)
}

func TestMemory_DeleteByScope(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemory()
	require.NoError(t, err)
	first := newJob("a", 0, "i1")
	first.ActivityInstanceID = "1"
	second := newJob("b", 0, "i1")
	second.ActivityInstanceID = "2"
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, newJob("c", 0, "i2")))
	require.NoError(t, store.Save(ctx, newJob("d", 0, "")))

	deleted, err := store.DeleteByScope(ctx, "i1", "2")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	deleted, err = store.DeleteByScope(ctx, "i1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	migrated, err := store.Migrate(ctx, "w1", "w2")
	require.NoError(t, err)
	assert.Equal(t, 1, migrated)
	repointed, err := store.Find(ctx, &job.Query{WorkflowID: "w2"})
	require.NoError(t, err)
	require.Len(t, repointed, 1)
	assert.Equal(t, "c", repointed[0].Key)

	require.NoError(t, store.DeleteAll(ctx))
	remaining, err := store.Find(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
