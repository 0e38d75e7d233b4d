// Package workflow stores deployed workflow definitions.
package workflow

import (
	"context"
	"sort"

	"github.com/viant/bpmn/model"
)

// Store persists deployed workflows
type Store interface {
	GenerateID() string

	Insert(ctx context.Context, workflow *model.Workflow) error

	// Load returns dao.ErrNotFound for unknown id
	Load(ctx context.Context, id string) (*model.Workflow, error)

	// FindLatestIDBySource returns the most recently deployed workflow id of a source
	FindLatestIDBySource(ctx context.Context, sourceWorkflowID string) (string, error)

	Find(ctx context.Context, query *model.WorkflowQuery) ([]*model.Workflow, error)

	Delete(ctx context.Context, query *model.WorkflowQuery) (int, error)
}

func filter(workflows []*model.Workflow, query *model.WorkflowQuery) []*model.Workflow {
	var result []*model.Workflow
	for _, candidate := range workflows {
		if query.Matches(candidate) {
			result = append(result, candidate)
		}
	}
	if query == nil {
		return result
	}
	switch query.OrderByDeployTime {
	case model.OrderAsc:
		sort.SliceStable(result, func(i, j int) bool { return deployedBefore(result[i], result[j]) })
	case model.OrderDesc:
		sort.SliceStable(result, func(i, j int) bool { return deployedBefore(result[j], result[i]) })
	}
	start, end := model.Page(len(result), query.Skip, query.Limit)
	return result[start:end]
}

func latest(workflows []*model.Workflow, sourceWorkflowID string) *model.Workflow {
	var result *model.Workflow
	for _, candidate := range workflows {
		if candidate.SourceWorkflowID != sourceWorkflowID {
			continue
		}
		if result == nil || !deployedBefore(candidate, result) {
			result = candidate
		}
	}
	return result
}

func deployedBefore(a, b *model.Workflow) bool {
	if a.CreateTime == nil || b.CreateTime == nil {
		return b.CreateTime != nil
	}
	return a.CreateTime.Before(*b.CreateTime)
}
