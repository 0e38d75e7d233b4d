package model

import "time"

// Lock marks exclusive ownership of an instance or a job
type Lock struct {
	Time  time.Time `json:"time"`
	Owner string    `json:"owner"`
}

// NewLock creates a lock owned by owner
func NewLock(at time.Time, owner string) *Lock {
	return &Lock{Time: at, Owner: owner}
}

// WorkflowInstance is a read-only snapshot of a running or ended instance
type WorkflowInstance struct {
	ID                       string                 `json:"id"`
	WorkflowID               string                 `json:"workflowId"`
	BusinessKey              string                 `json:"businessKey,omitempty"`
	Start                    time.Time              `json:"start"`
	End                      *time.Time             `json:"end,omitempty"`
	Duration                 time.Duration          `json:"duration,omitempty"`
	Lock                     *Lock                  `json:"lock,omitempty"`
	Variables                map[string]interface{} `json:"variables,omitempty"`
	Activities               []*ActivityInstance    `json:"activities,omitempty"`
	CallerWorkflowInstanceID string                 `json:"callerWorkflowInstanceId,omitempty"`
	CallerActivityInstanceID string                 `json:"callerActivityInstanceId,omitempty"`
}

// ActivityInstance is a snapshot of one activity execution
type ActivityInstance struct {
	ID         string                 `json:"id"`
	ActivityID string                 `json:"activityId"`
	State      string                 `json:"state"`
	Start      time.Time              `json:"start"`
	End        *time.Time             `json:"end,omitempty"`
	Duration   time.Duration          `json:"duration,omitempty"`
	Variables  map[string]interface{} `json:"variables,omitempty"`
	Activities []*ActivityInstance    `json:"activities,omitempty"`
}

// IsEnded returns true if the instance has ended
func (w *WorkflowInstance) IsEnded() bool {
	return w.End != nil
}

// IsEnded returns true if the activity instance has ended
func (a *ActivityInstance) IsEnded() bool {
	return a.End != nil
}

// FindOpenActivityInstance returns the first open activity instance of activityID
func (w *WorkflowInstance) FindOpenActivityInstance(activityID string) *ActivityInstance {
	return findOpen(w.Activities, activityID)
}

// OpenActivityIDs returns activity ids of all open activity instances, depth first
func (w *WorkflowInstance) OpenActivityIDs() []string {
	var result []string
	var walk func(activities []*ActivityInstance)
	walk = func(activities []*ActivityInstance) {
		for _, candidate := range activities {
			if !candidate.IsEnded() {
				result = append(result, candidate.ActivityID)
			}
			walk(candidate.Activities)
		}
	}
	walk(w.Activities)
	return result
}

func findOpen(activities []*ActivityInstance, activityID string) *ActivityInstance {
	for _, candidate := range activities {
		if candidate.ActivityID == activityID && !candidate.IsEnded() {
			return candidate
		}
		if ret := findOpen(candidate.Activities, activityID); ret != nil {
			return ret
		}
	}
	return nil
}
