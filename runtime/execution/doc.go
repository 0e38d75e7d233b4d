// Package execution holds the compiled workflow graph and the runtime
// instance tree.
//
// A WorkflowInstance owns a flat arena of ActivityInstances addressed by id;
// parent and child relationships are id references. Activity behaviours
// advance the tree through the control-flow primitives defined on
// ActivityInstance (Onwards, Fork, End) while the owning engine drains the
// instance work queue under the instance lock.
package execution
