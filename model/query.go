package model

// OrderDirection of a query sort
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// WorkflowQuery selects deployed workflows
type WorkflowQuery struct {
	WorkflowID       string `json:"workflowId,omitempty"`
	WorkflowName     string `json:"workflowName,omitempty"`
	SourceWorkflowID string `json:"sourceWorkflowId,omitempty"`
	Skip             int    `json:"skip,omitempty"`
	Limit            int    `json:"limit,omitempty"`
	// OrderByDeployTime sorts by create time; empty keeps store order
	OrderByDeployTime OrderDirection `json:"orderByDeployTime,omitempty"`
}

// Matches returns true if workflow satisfies query filters
func (q *WorkflowQuery) Matches(workflow *Workflow) bool {
	if q == nil {
		return true
	}
	if q.WorkflowID != "" && q.WorkflowID != workflow.ID {
		return false
	}
	if q.WorkflowName != "" && q.WorkflowName != workflow.Name {
		return false
	}
	if q.SourceWorkflowID != "" && q.SourceWorkflowID != workflow.SourceWorkflowID {
		return false
	}
	return true
}

// InstanceQuery selects workflow instances
type InstanceQuery struct {
	WorkflowInstanceID string `json:"workflowInstanceId,omitempty"`
	WorkflowID         string `json:"workflowId,omitempty"`
	// ActivityID limits results to instances with an open activity instance of that activity
	ActivityID string `json:"activityId,omitempty"`
	Skip       int    `json:"skip,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// Page applies skip and limit to a result size, returning slice bounds
func Page(size, skip, limit int) (int, int) {
	if skip > size {
		skip = size
	}
	end := size
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return skip, end
}
