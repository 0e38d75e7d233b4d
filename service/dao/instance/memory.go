package instance

import (
	"context"
	"fmt"

	"github.com/viant/bpmn/internal/clock"
	"github.com/viant/bpmn/internal/idgen"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/service/dao"
	"github.com/viant/bpmn/service/dao/store"
)

// Memory is an in-memory instance store
type Memory struct {
	store *store.MemoryStore[string, execution.WorkflowInstance]
}

var _ Store = (*Memory)(nil)

func (m *Memory) GenerateID() string {
	return idgen.New()
}

func (m *Memory) Insert(ctx context.Context, instance *execution.WorkflowInstance) error {
	if instance == nil {
		return dao.ErrNilEntity
	}
	if instance.ID == "" {
		return dao.ErrInvalidID
	}
	if err := m.store.Insert(ctx, instance); err != nil {
		return fmt.Errorf("failed to insert instance %v: %w", instance.ID, err)
	}
	return nil
}

func (m *Memory) Find(ctx context.Context, query *model.InstanceQuery) ([]*execution.WorkflowInstance, error) {
	found, err := m.store.List(ctx, func(candidate *execution.WorkflowInstance) bool {
		return Matches(query, candidate)
	})
	if err != nil || query == nil {
		return found, err
	}
	start, end := model.Page(len(found), query.Skip, query.Limit)
	return found[start:end], nil
}

func (m *Memory) Delete(ctx context.Context, query *model.InstanceQuery) (int, error) {
	return m.store.DeleteWhere(ctx, func(candidate *execution.WorkflowInstance) bool {
		return Matches(query, candidate)
	})
}

func (m *Memory) Lock(ctx context.Context, id, owner string) (*execution.WorkflowInstance, error) {
	var ret *execution.WorkflowInstance
	err := m.store.Modify(ctx, id, func(stored *execution.WorkflowInstance) error {
		if stored.Lock != nil {
			return nil
		}
		stored.Lock = model.NewLock(clock.Now(), owner)
		ret = stored.Clone()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to lock instance %v: %w", id, err)
	}
	return ret, nil
}

func (m *Memory) Unlock(ctx context.Context, id string) error {
	return m.store.Modify(ctx, id, func(stored *execution.WorkflowInstance) error {
		stored.Lock = nil
		return nil
	})
}

func (m *Memory) Flush(ctx context.Context, instance *execution.WorkflowInstance) error {
	return m.store.Replace(ctx, instance, ownedBy(instance))
}

func (m *Memory) FlushAndUnlock(ctx context.Context, instance *execution.WorkflowInstance) error {
	unlocked := instance.Clone()
	unlocked.Lock = nil
	return m.store.Replace(ctx, unlocked, ownedBy(instance))
}

func ownedBy(instance *execution.WorkflowInstance) func(existing *execution.WorkflowInstance) error {
	return func(existing *execution.WorkflowInstance) error {
		if existing.Lock == nil || instance.Lock == nil || existing.Lock.Owner != instance.Lock.Owner {
			return fmt.Errorf("instance %v not locked by caller: %w", instance.ID, dao.ErrAlreadyLocked)
		}
		return nil
	}
}

func (m *Memory) LockAll(ctx context.Context, workflowID, owner string) (int, bool, error) {
	count := 0
	complete := true
	now := clock.Now()
	m.store.Update(ctx, func(stored *execution.WorkflowInstance) bool {
		if stored.WorkflowID != workflowID {
			return true
		}
		switch {
		case stored.Lock == nil:
			stored.Lock = model.NewLock(now, owner)
			count++
		case stored.Lock.Owner == owner:
			count++
		default:
			complete = false
		}
		return true
	})
	return count, complete, nil
}

func (m *Memory) MigrateAndUnlockAll(ctx context.Context, oldWorkflowID, newWorkflowID, owner string) (int, error) {
	count := 0
	m.store.Update(ctx, func(stored *execution.WorkflowInstance) bool {
		if stored.WorkflowID != oldWorkflowID || stored.Lock == nil || stored.Lock.Owner != owner {
			return true
		}
		if newWorkflowID != "" {
			stored.WorkflowID = newWorkflowID
		}
		stored.Lock = nil
		count++
		return true
	})
	return count, nil
}

// NewMemory creates an in-memory instance store
func NewMemory() *Memory {
	return &Memory{store: store.NewMemoryStore(
		func(instance *execution.WorkflowInstance) string { return instance.ID },
		func(instance *execution.WorkflowInstance) *execution.WorkflowInstance { return instance.Clone() },
	)}
}
