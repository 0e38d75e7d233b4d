// Package job stores live and archived jobs and provides the atomic claim
// operations the scheduler relies on.
package job

import (
	"context"

	"github.com/viant/bpmn/runtime/job"
)

// Store persists jobs. Claim operations must be atomic: no job may be locked
// by two callers at the same time.
type Store interface {
	Save(ctx context.Context, aJob *job.Job) error

	Find(ctx context.Context, query *job.Query) ([]*job.Job, error)

	Delete(ctx context.Context, query *job.Query) (int, error)

	// DeleteByScope deletes jobs of an instance, or of one activity instance when activityInstanceID is set
	DeleteByScope(ctx context.Context, workflowInstanceID, activityInstanceID string) (int, error)

	DeleteAll(ctx context.Context) error

	// LockNextJob claims the earliest due job within scope, returning nil when none is due
	LockNextJob(ctx context.Context, scope job.Scope, owner string) (*job.Job, error)

	// LockJobByKey claims a job if it exists and is unlocked, returning nil otherwise
	LockJobByKey(ctx context.Context, key, owner string) (*job.Job, error)

	// Archive moves a job from the live collection to the archive
	Archive(ctx context.Context, aJob *job.Job) error

	FindArchived(ctx context.Context, query *job.Query) ([]*job.Job, error)

	DeleteAllArchived(ctx context.Context) error

	// Migrate repoints instance scoped jobs of one workflow to another
	Migrate(ctx context.Context, oldWorkflowID, newWorkflowID string) (int, error)
}
