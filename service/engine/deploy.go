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

// Deploy validates and stores a workflow. Parse errors reject the deployment
// and are reported as issues, not as an error.
func (e *Engine) Deploy(ctx context.Context, workflow *model.Workflow) (*model.Deployment, error) {
	return e.DeployWithMigrator(ctx, workflow, nil)
}

// DeployWithMigrator deploys a workflow and repoints every instance of the
// migrator's original workflow to it. When the instances cannot all be
// locked nothing is deployed and a migration issue is reported.
func (e *Engine) DeployWithMigrator(ctx context.Context, workflow *model.Workflow, migrator *model.Migrator) (deployment *model.Deployment, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.deploy", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	source := workflow.Clone()
	deployment = &model.Deployment{}
	if source != nil {
		if source.ID == "" {
			source.ID = e.workflows.GenerateID()
		}
		createTime := clock.Now()
		source.CreateTime = &createTime
		span.WithAttributes(map[string]string{"workflow.id": source.ID, "workflow.source": source.SourceWorkflowID})
	}
	compiled, issues := e.parser.Parse(source)
	if !issues.HasErrors() {
		issues = append(issues, e.parser.CheckDueDates(compiled, clock.Now())...)
	}
	deployment.Issues = issues
	if issues.HasErrors() {
		e.logger.Debug().Str("issues", issues.String()).Msg("workflow rejected")
		return deployment, nil
	}

	var owner string
	if migrator != nil && migrator.OriginalWorkflowID != "" {
		if _, err = e.workflows.Load(ctx, migrator.OriginalWorkflowID); err != nil {
			if errors.Is(err, dao.ErrNotFound) {
				deployment.Issues.AddError("migrator", "original workflow %v not found", migrator.OriginalWorkflowID)
				return deployment, nil
			}
			return nil, err
		}
		owner = idgen.Suffixed(e.config.EngineID + "-migration")
		if err = e.lockAll(ctx, migrator.OriginalWorkflowID, owner); err != nil {
			if _, unlockErr := e.instances.MigrateAndUnlockAll(ctx, migrator.OriginalWorkflowID, "", owner); unlockErr != nil {
				e.logger.Error().Err(unlockErr).Str("workflow", migrator.OriginalWorkflowID).Msg("failed to unlock instances")
			}
			e.logger.Warn().Err(err).Str("workflow", migrator.OriginalWorkflowID).Msg("migration failed")
			deployment.Issues.AddError("migrator", "migration of %v failed: %v", migrator.OriginalWorkflowID, err)
			return deployment, nil
		}
	}

	if err = e.publish(ctx, source, compiled); err != nil {
		if owner != "" {
			_, _ = e.instances.MigrateAndUnlockAll(ctx, migrator.OriginalWorkflowID, "", owner)
		}
		return nil, err
	}
	deployment.WorkflowID = source.ID
	e.logger.Debug().Str("workflow", source.ID).Str("source", source.SourceWorkflowID).Msg("workflow deployed")

	if owner != "" {
		if err = e.migrate(ctx, migrator.OriginalWorkflowID, source.ID, owner); err != nil {
			return deployment, err
		}
	}
	return deployment, nil
}

func (e *Engine) publish(ctx context.Context, source *model.Workflow, compiled *execution.Workflow) error {
	if err := e.workflows.Insert(ctx, source); err != nil {
		return fmt.Errorf("failed to store workflow %v: %w", source.ID, err)
	}
	e.cache.Store(source.ID, compiled)
	if compiled.Trigger != nil {
		if err := compiled.Trigger.Published(ctx, compiled); err != nil {
			return fmt.Errorf("failed to publish trigger of %v: %w", source.ID, err)
		}
	}
	now := clock.Now()
	for _, activity := range compiled.StartActivities {
		for _, timer := range activity.WorkflowTimers() {
			aJob, err := compiled.NewWorkflowJob(activity, timer, now)
			if err != nil {
				return fmt.Errorf("failed to schedule start timer of %v: %w", activity.ID, err)
			}
			if err = e.jobs.Save(ctx, aJob); err != nil {
				return err
			}
			e.logger.Debug().Str("job", aJob.Key).Time("dueDate", *aJob.DueDate).Msg("start timer scheduled")
		}
	}
	return nil
}

func (e *Engine) lockAll(ctx context.Context, workflowID, owner string) error {
	hooks := retry.Hooks{
		FailedWaiting: func(attempt int, wait time.Duration) {
			e.logger.Debug().Str("workflow", workflowID).Int("attempt", attempt).Dur("wait", wait).Msg("instances locked by others, waiting")
		},
	}
	_, err := retry.Do(ctx, e.config.Lock, hooks, func(ctx context.Context) (int, bool, error) {
		return e.instances.LockAll(ctx, workflowID, owner)
	})
	return err
}

func (e *Engine) migrate(ctx context.Context, oldWorkflowID, newWorkflowID, owner string) error {
	count, err := e.instances.MigrateAndUnlockAll(ctx, oldWorkflowID, newWorkflowID, owner)
	if err != nil {
		return fmt.Errorf("failed to migrate instances of %v: %w", oldWorkflowID, err)
	}
	if _, err = e.jobs.Migrate(ctx, oldWorkflowID, newWorkflowID); err != nil {
		return fmt.Errorf("failed to migrate jobs of %v: %w", oldWorkflowID, err)
	}
	if _, err = e.jobs.Delete(ctx, &job.Query{WorkflowID: oldWorkflowID}); err != nil {
		return fmt.Errorf("failed to delete start timers of %v: %w", oldWorkflowID, err)
	}
	e.logger.Debug().Str("from", oldWorkflowID).Str("to", newWorkflowID).Int("instances", count).Msg("instances migrated")
	return nil
}
