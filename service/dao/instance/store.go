// Package instance stores workflow instances and provides the atomic lock
// operations instance mutation relies on.
package instance

import (
	"context"

	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
)

// Store persists workflow instances. Lock operations must be atomic: a lock
// is set only if the instance is not locked.
type Store interface {
	GenerateID() string

	// Insert persists a new instance; it is expected to carry the creator's lock
	Insert(ctx context.Context, instance *execution.WorkflowInstance) error

	Find(ctx context.Context, query *model.InstanceQuery) ([]*execution.WorkflowInstance, error)

	Delete(ctx context.Context, query *model.InstanceQuery) (int, error)

	// Lock returns the locked instance, or nil if another owner holds the lock
	Lock(ctx context.Context, id, owner string) (*execution.WorkflowInstance, error)

	Unlock(ctx context.Context, id string) error

	// Flush persists an instance locked by its own lock owner
	Flush(ctx context.Context, instance *execution.WorkflowInstance) error

	FlushAndUnlock(ctx context.Context, instance *execution.WorkflowInstance) error

	// LockAll locks every instance of a workflow for owner, returning the
	// number of instances owned and whether no instance is held by another owner
	LockAll(ctx context.Context, workflowID, owner string) (int, bool, error)

	// MigrateAndUnlockAll repoints instances locked by owner to newWorkflowID
	// (left unchanged when empty) and unlocks them
	MigrateAndUnlockAll(ctx context.Context, oldWorkflowID, newWorkflowID, owner string) (int, error)
}

// Matches returns true if instance satisfies query filters
func Matches(query *model.InstanceQuery, instance *execution.WorkflowInstance) bool {
	if query == nil {
		return true
	}
	if query.WorkflowInstanceID != "" && query.WorkflowInstanceID != instance.ID {
		return false
	}
	if query.WorkflowID != "" && query.WorkflowID != instance.WorkflowID {
		return false
	}
	if query.ActivityID == "" {
		return true
	}
	for _, activityInstance := range instance.ActivityInstances {
		if activityInstance.ActivityID == query.ActivityID && !activityInstance.IsEnded() {
			return true
		}
	}
	return false
}
