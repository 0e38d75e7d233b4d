package workflow

import (
	"context"
	"fmt"

	"github.com/viant/bpmn/internal/idgen"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/service/dao"
	"github.com/viant/bpmn/service/dao/store"
)

// Memory is an in-memory workflow store
type Memory struct {
	store *store.MemoryStore[string, model.Workflow]
}

var _ Store = (*Memory)(nil)

func (m *Memory) GenerateID() string {
	return idgen.New()
}

func (m *Memory) Insert(ctx context.Context, workflow *model.Workflow) error {
	if workflow == nil {
		return dao.ErrNilEntity
	}
	if workflow.ID == "" {
		return dao.ErrInvalidID
	}
	if err := m.store.Insert(ctx, workflow); err != nil {
		return fmt.Errorf("failed to insert workflow %v: %w", workflow.ID, err)
	}
	return nil
}

func (m *Memory) Load(ctx context.Context, id string) (*model.Workflow, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	return m.store.Load(ctx, id)
}

func (m *Memory) FindLatestIDBySource(ctx context.Context, sourceWorkflowID string) (string, error) {
	workflows, err := m.store.List(ctx, nil)
	if err != nil {
		return "", err
	}
	if ret := latest(workflows, sourceWorkflowID); ret != nil {
		return ret.ID, nil
	}
	return "", dao.ErrNotFound
}

func (m *Memory) Find(ctx context.Context, query *model.WorkflowQuery) ([]*model.Workflow, error) {
	workflows, err := m.store.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return filter(workflows, query), nil
}

func (m *Memory) Delete(ctx context.Context, query *model.WorkflowQuery) (int, error) {
	matched, err := m.Find(ctx, query)
	if err != nil {
		return 0, err
	}
	ids := make(map[string]bool, len(matched))
	for _, candidate := range matched {
		ids[candidate.ID] = true
	}
	return m.store.DeleteWhere(ctx, func(candidate *model.Workflow) bool {
		return ids[candidate.ID]
	})
}

// NewMemory creates an in-memory workflow store
func NewMemory() *Memory {
	return &Memory{store: store.NewMemoryStore(
		func(w *model.Workflow) string { return w.ID },
		func(w *model.Workflow) *model.Workflow { return w.Clone() },
	)}
}
