// Package bpmn provides an embeddable BPMN execution kernel.
//
// Workflows are declared in YAML (or built with the model package), compiled
// on deployment and executed as instances whose activity instances form a
// tree of scopes. Every mutation of an instance happens under a pessimistic
// instance lock, so several engine nodes can share the same stores. Timers
// and other deferred work are persisted as jobs and executed by a due-date
// scheduler.
//
// The root package wires the components together:
//
//   - engine    – deploys workflows and advances instances under lock
//   - job       – claims due jobs, retries, reschedules and archives them
//   - processor – runs asynchronous continuations on a worker pool
//   - event     – publishes activity lifecycle events
//
// Typical usage:
//
//	srv, _ := bpmn.New(ctx, bpmn.WithMetaBaseURL("file:///etc/workflows"))
//	rt := srv.Runtime()
//	_ = rt.Start(ctx)
//	deployment, _ := rt.DeployWorkflow(ctx, "order.yaml")
//	instance, _ := rt.Engine().Start(ctx, model.NewTriggerInstance(deployment.WorkflowID))
package bpmn
