package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/bpmn/internal/clock"
	"github.com/viant/bpmn/internal/idgen"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/execution"
	"github.com/viant/bpmn/runtime/job"
	"github.com/viant/bpmn/runtime/retry"
	"github.com/viant/bpmn/service/dao"
	"github.com/viant/bpmn/tracing"
)

// Start creates a workflow instance, executes its start activities and
// drains the resulting work before returning a snapshot
func (e *Engine) Start(ctx context.Context, trigger *model.TriggerInstance) (snapshot *model.WorkflowInstance, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.start", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	workflow, err := e.resolveWorkflow(ctx, trigger)
	if err != nil {
		return nil, err
	}
	id := trigger.WorkflowInstanceID
	if id == "" {
		id = e.instances.GenerateID()
	}
	span.WithAttributes(map[string]string{"workflow.id": workflow.ID, "workflowInstance.id": id})
	instance := execution.NewWorkflowInstance(id, workflow, e.runtime)
	instance.BusinessKey = trigger.BusinessKey
	instance.CallerWorkflowInstanceID = trigger.CallerWorkflowInstanceID
	instance.CallerActivityInstanceID = trigger.CallerActivityInstanceID
	instance.Lock = model.NewLock(clock.Now(), e.config.EngineID)
	if err = e.bindTrigger(instance, trigger); err != nil {
		return nil, err
	}

	startActivities := workflow.SelectStartActivities(trigger.StartActivityIDs)
	if len(trigger.StartActivityIDs) > 0 && len(startActivities) != len(trigger.StartActivityIDs) {
		return nil, fmt.Errorf("%w: start activities %v of %v", ErrActivityNotFound, trigger.StartActivityIDs, workflow.ID)
	}
	if err = e.instances.Insert(ctx, instance); err != nil {
		return nil, err
	}
	e.logger.Debug().Str("workflow", workflow.ID).Str("workflowInstance", id).Msg("workflow instance started")
	for _, activity := range startActivities {
		if _, err = instance.Execute(ctx, activity, nil); err != nil {
			e.discard(ctx, instance.ID)
			return nil, err
		}
	}
	if len(startActivities) == 0 {
		instance.EndAndPropagate(ctx)
	}
	if snapshot, err = e.complete(ctx, instance); err != nil {
		e.discard(ctx, instance.ID)
		return nil, err
	}
	return snapshot, nil
}

// discard removes an instance whose start failed, together with its jobs
func (e *Engine) discard(ctx context.Context, workflowInstanceID string) {
	if _, err := e.instances.Delete(ctx, &model.InstanceQuery{WorkflowInstanceID: workflowInstanceID}); err != nil {
		e.logger.Error().Err(err).Str("workflowInstance", workflowInstanceID).Msg("failed to discard instance")
	}
	if _, err := e.jobs.DeleteByScope(ctx, workflowInstanceID, ""); err != nil {
		e.logger.Error().Err(err).Str("workflowInstance", workflowInstanceID).Msg("failed to discard instance jobs")
	}
}

func (e *Engine) resolveWorkflow(ctx context.Context, trigger *model.TriggerInstance) (*execution.Workflow, error) {
	workflowID := trigger.WorkflowID
	if workflowID == "" {
		if trigger.SourceWorkflowID == "" {
			return nil, ErrNoWorkflowSpecified
		}
		latestID, err := e.workflows.FindLatestIDBySource(ctx, trigger.SourceWorkflowID)
		if err != nil {
			if errors.Is(err, dao.ErrNotFound) {
				return nil, fmt.Errorf("%w: source %v", ErrWorkflowNotFound, trigger.SourceWorkflowID)
			}
			return nil, err
		}
		workflowID = latestID
	}
	return e.Workflow(ctx, workflowID)
}

func (e *Engine) bindTrigger(instance *execution.WorkflowInstance, trigger *model.TriggerInstance) error {
	if err := instance.InitializeVariables(); err != nil {
		return err
	}
	if workflowTrigger := instance.Workflow().Trigger; workflowTrigger != nil {
		return workflowTrigger.Apply(instance, trigger)
	}
	return instance.SetVariableValues(trigger.VariableValues)
}

// Send delivers a message to a waiting activity instance
func (e *Engine) Send(ctx context.Context, message *model.Message) (snapshot *model.WorkflowInstance, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.send", "INTERNAL")
	span.WithAttributes(map[string]string{"workflowInstance.id": message.WorkflowInstanceID, "activityInstance.id": message.ActivityInstanceID})
	defer func() { tracing.EndSpan(span, err) }()

	return e.Advance(ctx, message.WorkflowInstanceID, func(ctx context.Context, instance *execution.WorkflowInstance) error {
		activityInstance := instance.ActivityInstance(message.ActivityInstanceID)
		if activityInstance == nil || activityInstance.IsEnded() {
			return fmt.Errorf("%w: %v", ErrActivityInstanceNotFound, message.ActivityInstanceID)
		}
		if err := activityInstance.SetVariableValues(message.VariableValues); err != nil {
			return err
		}
		e.logger.Debug().Str("workflowInstance", instance.ID).Str("activity", activityInstance.ActivityID).Msg("message received")
		return activityInstance.Activity().Type.Message(ctx, activityInstance)
	})
}

// Move ends the single open activity instance and resumes execution at
// newActivityID without evaluating transitions
func (e *Engine) Move(ctx context.Context, workflowInstanceID, activityInstanceID, newActivityID string) (snapshot *model.WorkflowInstance, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.move", "INTERNAL")
	span.WithAttributes(map[string]string{"workflowInstance.id": workflowInstanceID, "activity.id": newActivityID})
	defer func() { tracing.EndSpan(span, err) }()

	return e.Advance(ctx, workflowInstanceID, func(ctx context.Context, instance *execution.WorkflowInstance) error {
		target := instance.Workflow().Activity(newActivityID)
		if target == nil {
			return fmt.Errorf("%w: %v", ErrActivityNotFound, newActivityID)
		}
		leaves := openLeaves(instance)
		if len(leaves) > 1 {
			return fmt.Errorf("%w: %v", ErrMultipleOpenActivityInstances, len(leaves))
		}
		var leaf *execution.ActivityInstance
		if len(leaves) == 1 {
			leaf = leaves[0]
		}
		if activityInstanceID != "" && (leaf == nil || leaf.ID != activityInstanceID) {
			return fmt.Errorf("%w: %v", ErrActivityInstanceNotFound, activityInstanceID)
		}
		parent, err := endUpToScope(ctx, leaf, target)
		if err != nil {
			return err
		}
		instance.Reopen()
		e.logger.Debug().Str("workflowInstance", instance.ID).Str("activity", newActivityID).Msg("moved")
		_, err = instance.Execute(ctx, target, parent)
		return err
	})
}

// openLeaves returns open or joining activity instances without open children
func openLeaves(instance *execution.WorkflowInstance) []*execution.ActivityInstance {
	var result []*execution.ActivityInstance
	for _, candidate := range instance.OpenActivityInstances() {
		if !candidate.HasOpenChildren() {
			result = append(result, candidate)
		}
	}
	return result
}

// endUpToScope ends leaf and its ancestors below the scope declaring target,
// returning the activity instance that owns that scope
func endUpToScope(ctx context.Context, leaf *execution.ActivityInstance, target *execution.Activity) (*execution.ActivityInstance, error) {
	var chain []*execution.ActivityInstance
	var parent *execution.ActivityInstance
	owner := target.Parent.Owner
	found := owner == nil
	for candidate := leaf; candidate != nil; candidate = candidate.Parent() {
		if owner != nil && candidate.ActivityID == owner.ID {
			parent = candidate
			found = true
			break
		}
		chain = append(chain, candidate)
	}
	if !found {
		return nil, fmt.Errorf("%w: %v is not reachable from the open activity instance", ErrActivityNotFound, target.ID)
	}
	for _, candidate := range chain {
		if candidate.IsEnded() {
			continue
		}
		if err := candidate.End(ctx); err != nil {
			return nil, err
		}
	}
	return parent, nil
}

// Continue executes a deferred activity instance under the instance lock
func (e *Engine) Continue(ctx context.Context, continuation *execution.Continuation) (*model.WorkflowInstance, error) {
	return e.Advance(ctx, continuation.WorkflowInstanceID, func(ctx context.Context, instance *execution.WorkflowInstance) error {
		activityInstance := instance.ActivityInstance(continuation.ActivityInstanceID)
		if activityInstance == nil {
			return fmt.Errorf("%w: %v", ErrActivityInstanceNotFound, continuation.ActivityInstanceID)
		}
		if !activityInstance.IsOpen() {
			return nil
		}
		return e.perform(ctx, instance, activityInstance)
	})
}

// Advance runs fn against the locked, bound instance, then flushes, unlocks
// and drains follow-up work. The lock is released when fn fails.
func (e *Engine) Advance(ctx context.Context, workflowInstanceID string, fn func(ctx context.Context, instance *execution.WorkflowInstance) error) (*model.WorkflowInstance, error) {
	instance, err := e.lock(ctx, workflowInstanceID)
	if err != nil {
		return nil, err
	}
	if err = fn(ctx, instance); err != nil {
		e.unlock(ctx, instance.ID)
		return nil, err
	}
	return e.complete(ctx, instance)
}

func (e *Engine) lock(ctx context.Context, workflowInstanceID string) (*execution.WorkflowInstance, error) {
	hooks := retry.Hooks{
		FailedWaiting: func(attempt int, wait time.Duration) {
			e.logger.Debug().Str("workflowInstance", workflowInstanceID).Int("attempt", attempt).Dur("wait", wait).Msg("instance locked, waiting")
		},
		Interrupted: func(err error) {
			e.logger.Debug().Err(err).Str("workflowInstance", workflowInstanceID).Msg("instance lock interrupted")
		},
		FailedPermanently: func(attempts int) {
			e.logger.Warn().Str("workflowInstance", workflowInstanceID).Int("attempts", attempts).Msg("failed to lock instance")
		},
	}
	instance, err := retry.Do(ctx, e.config.Lock, hooks, func(ctx context.Context) (*execution.WorkflowInstance, bool, error) {
		locked, err := e.instances.Lock(ctx, workflowInstanceID, e.config.EngineID)
		if err != nil {
			if errors.Is(err, dao.ErrNotFound) {
				return nil, false, fmt.Errorf("%w: %v", ErrInstanceNotFound, workflowInstanceID)
			}
			return nil, false, err
		}
		return locked, locked != nil, nil
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) || errors.Is(err, retry.ErrInterrupted) {
			return nil, fmt.Errorf("%w %v: %v", ErrLockFailed, workflowInstanceID, err)
		}
		return nil, err
	}
	workflow, err := e.Workflow(ctx, instance.WorkflowID)
	if err != nil {
		e.unlock(ctx, instance.ID)
		return nil, err
	}
	instance.Bind(workflow, e.runtime)
	return instance, nil
}

func (e *Engine) unlock(ctx context.Context, workflowInstanceID string) {
	if err := e.instances.Unlock(ctx, workflowInstanceID); err != nil {
		e.logger.Error().Err(err).Str("workflowInstance", workflowInstanceID).Msg("failed to unlock instance")
	}
}

func (e *Engine) perform(ctx context.Context, instance *execution.WorkflowInstance, activityInstance *execution.ActivityInstance) error {
	if instance.Lock == nil || instance.Lock.Owner != e.config.EngineID {
		return fmt.Errorf("%w: %v", ErrNotLocked, instance.ID)
	}
	if err := instance.Perform(ctx, activityInstance); err != nil {
		return err
	}
	if activityInstance.Activity().Type.IsFlushSkippable() {
		return nil
	}
	return e.instances.Flush(ctx, instance)
}

// complete drains the work queue, persists jobs and the instance, unlocks it,
// then runs work that needs the lock released: sub workflow starts,
// async continuations and caller notification
func (e *Engine) complete(ctx context.Context, instance *execution.WorkflowInstance) (*model.WorkflowInstance, error) {
	for activityInstance := instance.NextWork(); activityInstance != nil; activityInstance = instance.NextWork() {
		if err := e.perform(ctx, instance, activityInstance); err != nil {
			e.unlock(ctx, instance.ID)
			return nil, err
		}
	}
	ended := instance.TakeEnded()
	if err := e.persistJobs(ctx, instance, ended); err != nil {
		e.unlock(ctx, instance.ID)
		return nil, err
	}
	continuations := instance.TakeContinuations()
	calls := instance.TakeCalls()
	if err := e.instances.FlushAndUnlock(ctx, instance); err != nil {
		return nil, err
	}
	instance.Lock = nil
	snapshot := instance.Snapshot()

	for _, call := range calls {
		if _, err := e.Start(ctx, call); err != nil {
			e.logger.Warn().Err(err).Str("workflowInstance", instance.ID).Str("activityInstance", call.CallerActivityInstanceID).Msg("failed to start called workflow, retry scheduled")
			e.scheduleCallStart(ctx, call, err)
		}
	}
	for _, continuation := range continuations {
		e.dispatch(ctx, continuation)
	}
	if ended && snapshot.CallerWorkflowInstanceID != "" {
		if err := e.notifyCaller(ctx, snapshot); err != nil {
			e.logger.Error().Err(err).Str("workflowInstance", snapshot.CallerWorkflowInstanceID).Msg("failed to notify caller")
		}
	}
	return snapshot, nil
}

func (e *Engine) persistJobs(ctx context.Context, instance *execution.WorkflowInstance, ended bool) error {
	for _, aJob := range instance.TakeJobs() {
		if err := e.jobs.Save(ctx, aJob); err != nil {
			return fmt.Errorf("failed to save job %v: %w", aJob.Key, err)
		}
	}
	for _, activityInstanceID := range instance.TakeEndedScopes() {
		if _, err := e.jobs.DeleteByScope(ctx, instance.ID, activityInstanceID); err != nil {
			return fmt.Errorf("failed to delete jobs of %v: %w", activityInstanceID, err)
		}
	}
	if ended {
		if _, err := e.jobs.DeleteByScope(ctx, instance.ID, ""); err != nil {
			return fmt.Errorf("failed to delete jobs of %v: %w", instance.ID, err)
		}
	}
	return nil
}

// scheduleCallStart hands a failed sub workflow start over to the scheduler,
// which retries it while the call activity instance is still waiting
func (e *Engine) scheduleCallStart(ctx context.Context, call *model.TriggerInstance, cause error) {
	now := clock.Now()
	aJob := &job.Job{
		Key:                idgen.New(),
		Type:               job.TypeCallStart,
		WorkflowInstanceID: call.CallerWorkflowInstanceID,
		ActivityInstanceID: call.CallerActivityInstanceID,
		Data:               map[string]interface{}{job.DataTrigger: call},
	}
	aJob.SetDueDate(now)
	aJob.AddExecution(&job.Execution{Error: true, Logs: cause.Error(), Time: now})
	if err := e.jobs.Save(ctx, aJob); err != nil {
		e.logger.Error().Err(err).Str("workflowInstance", call.CallerWorkflowInstanceID).Str("activityInstance", call.CallerActivityInstanceID).Msg("failed to schedule called workflow start")
	}
}

func (e *Engine) dispatch(ctx context.Context, continuation *execution.Continuation) {
	if e.dispatcher != nil {
		err := e.dispatcher.Dispatch(ctx, continuation)
		if err == nil {
			return
		}
		e.logger.Warn().Err(err).Str("workflowInstance", continuation.WorkflowInstanceID).Msg("dispatch failed, continuing inline")
	}
	if _, err := e.Continue(ctx, continuation); err != nil {
		e.logger.Error().Err(err).Str("workflowInstance", continuation.WorkflowInstanceID).Str("activityInstance", continuation.ActivityInstanceID).Msg("continuation failed")
	}
}

func (e *Engine) notifyCaller(ctx context.Context, called *model.WorkflowInstance) error {
	_, err := e.Advance(ctx, called.CallerWorkflowInstanceID, func(ctx context.Context, instance *execution.WorkflowInstance) error {
		activityInstance := instance.ActivityInstance(called.CallerActivityInstanceID)
		if activityInstance == nil || !activityInstance.IsOpen() {
			return fmt.Errorf("%w: %v", ErrActivityInstanceNotFound, called.CallerActivityInstanceID)
		}
		if callActivity, ok := activityInstance.Activity().Type.(execution.CallActivityType); ok {
			return callActivity.CalledWorkflowEnded(ctx, activityInstance, called)
		}
		return activityInstance.Onwards(ctx)
	})
	return err
}
