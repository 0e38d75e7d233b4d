package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/viant/bpmn/internal/clock"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/job"
	"github.com/viant/bpmn/service/dao"
)

const (
	tableJobs     = "jobs"
	tableArchived = "archived"

	indexID       = "id"
	indexWorkflow = "workflow"
	indexInstance = "instance"
)

func jobTable(name string) *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: name,
		Indexes: map[string]*memdb.IndexSchema{
			indexID: {
				Name:    indexID,
				Unique:  true,
				Indexer: &memdb.StringFieldIndex{Field: "Key"},
			},
			indexWorkflow: {
				Name:         indexWorkflow,
				AllowMissing: true,
				Indexer:      &memdb.StringFieldIndex{Field: "WorkflowID"},
			},
			indexInstance: {
				Name:         indexInstance,
				AllowMissing: true,
				Indexer:      &memdb.StringFieldIndex{Field: "WorkflowInstanceID"},
			},
		},
	}
}

// Memory is a go-memdb backed job store; memdb serializes write transactions,
// which makes claims atomic. Stored objects are never mutated, only replaced.
type Memory struct {
	db *memdb.MemDB
}

var _ Store = (*Memory)(nil)

func (m *Memory) Save(ctx context.Context, aJob *job.Job) error {
	if aJob == nil {
		return dao.ErrNilEntity
	}
	if aJob.Key == "" {
		return dao.ErrInvalidID
	}
	txn := m.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableJobs, aJob.Clone()); err != nil {
		return fmt.Errorf("failed to save job %v: %w", aJob.Key, err)
	}
	txn.Commit()
	return nil
}

func (m *Memory) Find(ctx context.Context, query *job.Query) ([]*job.Job, error) {
	return m.find(tableJobs, query)
}

func (m *Memory) FindArchived(ctx context.Context, query *job.Query) ([]*job.Job, error) {
	return m.find(tableArchived, query)
}

func (m *Memory) find(table string, query *job.Query) ([]*job.Job, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()
	iterator, err := selectJobs(txn, table, query)
	if err != nil {
		return nil, err
	}
	var result []*job.Job
	for object := iterator.Next(); object != nil; object = iterator.Next() {
		candidate := object.(*job.Job)
		if query.Matches(candidate) {
			result = append(result, candidate.Clone())
		}
	}
	return result, nil
}

func selectJobs(txn *memdb.Txn, table string, query *job.Query) (memdb.ResultIterator, error) {
	var iterator memdb.ResultIterator
	var err error
	switch {
	case query != nil && query.Key != "":
		iterator, err = txn.Get(table, indexID, query.Key)
	case query != nil && query.WorkflowInstanceID != "":
		iterator, err = txn.Get(table, indexInstance, query.WorkflowInstanceID)
	case query != nil && query.WorkflowID != "":
		iterator, err = txn.Get(table, indexWorkflow, query.WorkflowID)
	default:
		iterator, err = txn.Get(table, indexID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %v: %w", table, err)
	}
	return iterator, nil
}

func (m *Memory) Delete(ctx context.Context, query *job.Query) (int, error) {
	txn := m.db.Txn(true)
	defer txn.Abort()
	count, err := deleteMatching(txn, query)
	if err != nil {
		return 0, err
	}
	txn.Commit()
	return count, nil
}

func deleteMatching(txn *memdb.Txn, query *job.Query) (int, error) {
	iterator, err := selectJobs(txn, tableJobs, query)
	if err != nil {
		return 0, err
	}
	var matched []*job.Job
	for object := iterator.Next(); object != nil; object = iterator.Next() {
		if candidate := object.(*job.Job); query.Matches(candidate) {
			matched = append(matched, candidate)
		}
	}
	for _, candidate := range matched {
		if err = txn.Delete(tableJobs, candidate); err != nil {
			return 0, fmt.Errorf("failed to delete job %v: %w", candidate.Key, err)
		}
	}
	return len(matched), nil
}

func (m *Memory) DeleteByScope(ctx context.Context, workflowInstanceID, activityInstanceID string) (int, error) {
	if workflowInstanceID == "" {
		return 0, dao.ErrInvalidID
	}
	return m.Delete(ctx, &job.Query{WorkflowInstanceID: workflowInstanceID, ActivityInstanceID: activityInstanceID})
}

func (m *Memory) DeleteAll(ctx context.Context) error {
	return m.deleteAll(tableJobs)
}

func (m *Memory) DeleteAllArchived(ctx context.Context) error {
	return m.deleteAll(tableArchived)
}

func (m *Memory) deleteAll(table string) error {
	txn := m.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(table, indexID); err != nil {
		return fmt.Errorf("failed to delete %v: %w", table, err)
	}
	txn.Commit()
	return nil
}

func (m *Memory) LockNextJob(ctx context.Context, scope job.Scope, owner string) (*job.Job, error) {
	now := clock.Now()
	txn := m.db.Txn(true)
	defer txn.Abort()
	iterator, err := txn.Get(tableJobs, indexID)
	if err != nil {
		return nil, fmt.Errorf("failed to scan jobs: %w", err)
	}
	var next *job.Job
	for object := iterator.Next(); object != nil; object = iterator.Next() {
		candidate := object.(*job.Job)
		if !candidate.IsDue(now) || !scope.Accepts(candidate) {
			continue
		}
		if next == nil || dueBefore(candidate, next) {
			next = candidate
		}
	}
	if next == nil {
		return nil, nil
	}
	return lock(txn, next, owner, now)
}

func (m *Memory) LockJobByKey(ctx context.Context, key, owner string) (*job.Job, error) {
	if key == "" {
		return nil, dao.ErrInvalidID
	}
	txn := m.db.Txn(true)
	defer txn.Abort()
	object, err := txn.First(tableJobs, indexID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find job %v: %w", key, err)
	}
	if object == nil {
		return nil, nil
	}
	candidate := object.(*job.Job)
	if candidate.Lock != nil || candidate.Done {
		return nil, nil
	}
	return lock(txn, candidate, owner, clock.Now())
}

func lock(txn *memdb.Txn, stored *job.Job, owner string, now time.Time) (*job.Job, error) {
	locked := stored.Clone()
	locked.Lock = model.NewLock(now, owner)
	if err := txn.Insert(tableJobs, locked); err != nil {
		return nil, fmt.Errorf("failed to lock job %v: %w", stored.Key, err)
	}
	txn.Commit()
	return locked.Clone(), nil
}

func dueBefore(a, b *job.Job) bool {
	if a.DueDate == nil || b.DueDate == nil {
		return a.DueDate == nil && b.DueDate != nil
	}
	return a.DueDate.Before(*b.DueDate)
}

func (m *Memory) Archive(ctx context.Context, aJob *job.Job) error {
	if aJob == nil {
		return dao.ErrNilEntity
	}
	txn := m.db.Txn(true)
	defer txn.Abort()
	archived := aJob.Clone()
	archived.Lock = nil
	if err := txn.Insert(tableArchived, archived); err != nil {
		return fmt.Errorf("failed to archive job %v: %w", aJob.Key, err)
	}
	if _, err := txn.DeleteAll(tableJobs, indexID, aJob.Key); err != nil {
		return fmt.Errorf("failed to remove archived job %v: %w", aJob.Key, err)
	}
	txn.Commit()
	return nil
}

func (m *Memory) Migrate(ctx context.Context, oldWorkflowID, newWorkflowID string) (int, error) {
	txn := m.db.Txn(true)
	defer txn.Abort()
	iterator, err := txn.Get(tableJobs, indexWorkflow, oldWorkflowID)
	if err != nil {
		return 0, fmt.Errorf("failed to query jobs of %v: %w", oldWorkflowID, err)
	}
	var matched []*job.Job
	for object := iterator.Next(); object != nil; object = iterator.Next() {
		if candidate := object.(*job.Job); candidate.IsInstanceScoped() {
			matched = append(matched, candidate)
		}
	}
	for _, candidate := range matched {
		migrated := candidate.Clone()
		migrated.WorkflowID = newWorkflowID
		if err = txn.Insert(tableJobs, migrated); err != nil {
			return 0, fmt.Errorf("failed to migrate job %v: %w", candidate.Key, err)
		}
	}
	txn.Commit()
	return len(matched), nil
}

// NewMemory creates a go-memdb backed job store
func NewMemory() (*Memory, error) {
	db, err := memdb.NewMemDB(&memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableJobs:     jobTable(tableJobs),
			tableArchived: jobTable(tableArchived),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create job store: %w", err)
	}
	return &Memory{db: db}, nil
}
