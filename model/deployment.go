package model

// Deployment is the outcome of deploying a workflow
type Deployment struct {
	WorkflowID string `json:"workflowId,omitempty" yaml:"workflowId,omitempty"`
	Issues     Issues `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// HasErrors returns true if the deployment was rejected
func (d *Deployment) HasErrors() bool {
	return d != nil && d.Issues.HasErrors()
}

// Migrator names the workflow whose instances get repointed to a new deployment
type Migrator struct {
	OriginalWorkflowID string `json:"originalWorkflowId" yaml:"originalWorkflowId"`
}
