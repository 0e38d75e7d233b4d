package engine

import "errors"

var (
	// ErrWorkflowNotFound is returned when a workflow id or source id does not resolve
	ErrWorkflowNotFound = errors.New("engine: workflow not found")
	// ErrNoWorkflowSpecified is returned when a trigger names neither workflow nor source id
	ErrNoWorkflowSpecified = errors.New("engine: no workflow specified")
	// ErrInstanceNotFound is returned for unknown workflow instances
	ErrInstanceNotFound = errors.New("engine: workflow instance not found")
	// ErrActivityInstanceNotFound is returned when an activity instance is unknown or not open
	ErrActivityInstanceNotFound = errors.New("engine: activity instance not found")
	// ErrNotLocked is returned when an instance is mutated without holding its lock
	ErrNotLocked = errors.New("engine: workflow instance not locked")
	// ErrMultipleOpenActivityInstances is returned when move targets an instance with parallel branches
	ErrMultipleOpenActivityInstances = errors.New("engine: more than one open activity instance")
	// ErrActivityNotFound is returned when an activity id is not declared by the workflow
	ErrActivityNotFound = errors.New("engine: activity not found")
	// ErrLockFailed is returned when the instance lock could not be acquired
	ErrLockFailed = errors.New("engine: failed to lock workflow instance")
)
