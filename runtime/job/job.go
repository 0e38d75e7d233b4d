// Package job defines persisted units of deferred work.
package job

import (
	"time"

	"github.com/viant/bpmn/model"
)

const (
	// TypeCallStart retries starting the workflow of a call activity
	TypeCallStart = "callStart"
	// DataTrigger is the data key holding the trigger of a TypeCallStart job
	DataTrigger = "trigger"
)

// Job is a unit of deferred work claimed by exactly one worker at a time.
// Instance scoped jobs reference a workflow instance and activity instance;
// workflow level jobs reference a workflow and its start activity.
type Job struct {
	Key                string `json:"key"`
	Type               string `json:"type"`
	WorkflowID         string `json:"workflowId,omitempty"`
	WorkflowInstanceID string `json:"workflowInstanceId,omitempty"`
	ActivityInstanceID string `json:"activityInstanceId,omitempty"`
	ActivityID         string `json:"activityId,omitempty"`
	// TimerIndex selects the activity timer the job was created from
	TimerIndex int                    `json:"timerIndex,omitempty"`
	DueDate    *time.Time             `json:"dueDate,omitempty"`
	Lock       *model.Lock            `json:"lock,omitempty"`
	Done       bool                   `json:"done,omitempty"`
	Retries    int                    `json:"retries,omitempty"`
	Executions []*Execution           `json:"executions,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Execution records one attempt; appended, never mutated
type Execution struct {
	Error    bool          `json:"error,omitempty"`
	Logs     string        `json:"logs,omitempty"`
	Time     time.Time     `json:"time"`
	Duration time.Duration `json:"duration"`
}

// IsInstanceScoped returns true if the job targets a workflow instance
func (j *Job) IsInstanceScoped() bool {
	return j.WorkflowInstanceID != ""
}

// IsDue returns true if the job is unlocked, not done and its due date passed
func (j *Job) IsDue(now time.Time) bool {
	if j.Lock != nil || j.Done {
		return false
	}
	return j.DueDate == nil || !j.DueDate.After(now)
}

// SetDueDate sets the due date
func (j *Job) SetDueDate(at time.Time) {
	j.DueDate = &at
}

// AddExecution appends an attempt record
func (j *Job) AddExecution(execution *Execution) {
	j.Executions = append(j.Executions, execution)
}

// Clone returns a copy safe to mutate
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	ret := *j
	if j.DueDate != nil {
		dueDate := *j.DueDate
		ret.DueDate = &dueDate
	}
	if j.Lock != nil {
		lock := *j.Lock
		ret.Lock = &lock
	}
	ret.Executions = append([]*Execution(nil), j.Executions...)
	if j.Data != nil {
		ret.Data = make(map[string]interface{}, len(j.Data))
		for k, v := range j.Data {
			ret.Data[k] = v
		}
	}
	return &ret
}

// Scope restricts which jobs a claim may return
type Scope int

const (
	// AnyScope claims both workflow level and instance scoped jobs
	AnyScope Scope = iota
	// WorkflowScope claims only workflow level jobs
	WorkflowScope
	// InstanceScope claims only instance scoped jobs
	InstanceScope
)

// Accepts returns true if job falls into scope
func (s Scope) Accepts(j *Job) bool {
	switch s {
	case WorkflowScope:
		return !j.IsInstanceScoped()
	case InstanceScope:
		return j.IsInstanceScoped()
	}
	return true
}

// Query selects jobs; empty fields do not filter
type Query struct {
	Key                string
	WorkflowID         string
	WorkflowInstanceID string
	ActivityInstanceID string
}

// Matches returns true if job satisfies the query
func (q *Query) Matches(j *Job) bool {
	if q == nil {
		return true
	}
	if q.Key != "" && q.Key != j.Key {
		return false
	}
	if q.WorkflowID != "" && q.WorkflowID != j.WorkflowID {
		return false
	}
	if q.WorkflowInstanceID != "" && q.WorkflowInstanceID != j.WorkflowInstanceID {
		return false
	}
	if q.ActivityInstanceID != "" && q.ActivityInstanceID != j.ActivityInstanceID {
		return false
	}
	return true
}
