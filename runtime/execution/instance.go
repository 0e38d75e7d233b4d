package execution

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/bpmn/internal/clock"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/runtime/job"
)

// WorkflowInstance is the runtime state of one workflow execution. It owns
// every activity instance in a flat arena keyed by activity instance id.
type WorkflowInstance struct {
	ID                       string                       `json:"id"`
	WorkflowID               string                       `json:"workflowId"`
	BusinessKey              string                       `json:"businessKey,omitempty"`
	Start                    time.Time                    `json:"start"`
	End                      *time.Time                   `json:"end,omitempty"`
	Duration                 time.Duration                `json:"duration,omitempty"`
	Lock                     *model.Lock                  `json:"lock,omitempty"`
	Variables                map[string]interface{}       `json:"variables,omitempty"`
	ActivityInstances        map[string]*ActivityInstance `json:"activityInstances,omitempty"`
	Roots                    []string                     `json:"roots,omitempty"`
	Sequence                 int                          `json:"sequence"`
	CallerWorkflowInstanceID string                       `json:"callerWorkflowInstanceId,omitempty"`
	CallerActivityInstanceID string                       `json:"callerActivityInstanceId,omitempty"`

	workflow  *Workflow
	runtime   *Runtime
	work      []string
	asyncWork []string
	jobs      []*job.Job
	ended     []string
	calls     []*model.TriggerInstance
	endedNow  bool
}

// NewWorkflowInstance creates an open instance of workflow
func NewWorkflowInstance(id string, workflow *Workflow, runtime *Runtime) *WorkflowInstance {
	ret := &WorkflowInstance{
		ID:                id,
		WorkflowID:        workflow.ID,
		Start:             clock.Now(),
		Variables:         make(map[string]interface{}),
		ActivityInstances: make(map[string]*ActivityInstance),
	}
	ret.Bind(workflow, runtime)
	return ret
}

// Bind attaches the compiled workflow and engine runtime after loading
func (w *WorkflowInstance) Bind(workflow *Workflow, runtime *Runtime) {
	w.workflow = workflow
	if runtime == nil {
		runtime = NewRuntime("")
	}
	w.runtime = runtime
	if w.Variables == nil {
		w.Variables = make(map[string]interface{})
	}
	if w.ActivityInstances == nil {
		w.ActivityInstances = make(map[string]*ActivityInstance)
	}
	for _, activityInstance := range w.ActivityInstances {
		activityInstance.instance = w
	}
}

// Workflow returns the bound compiled workflow
func (w *WorkflowInstance) Workflow() *Workflow {
	return w.workflow
}

// Logger returns the engine logger enriched with instance id
func (w *WorkflowInstance) Logger() *zerolog.Logger {
	logger := w.runtime.Logger.With().Str("workflowInstance", w.ID).Logger()
	return &logger
}

// EngineID returns the engine node id executing this instance
func (w *WorkflowInstance) EngineID() string {
	return w.runtime.EngineID
}

// IsEnded returns true if the instance ended
func (w *WorkflowInstance) IsEnded() bool {
	return w.End != nil
}

// ActivityInstance returns an activity instance by id
func (w *WorkflowInstance) ActivityInstance(id string) *ActivityInstance {
	return w.ActivityInstances[id]
}

// OpenActivityInstances returns every not yet ended activity instance, including
// joining branches and multi instance containers
func (w *WorkflowInstance) OpenActivityInstances() []*ActivityInstance {
	var result []*ActivityInstance
	w.walk(w.Roots, func(candidate *ActivityInstance) {
		if !candidate.IsEnded() {
			result = append(result, candidate)
		}
	})
	return result
}

// FindOpenActivityInstance returns the first open activity instance of activity id
func (w *WorkflowInstance) FindOpenActivityInstance(activityID string) *ActivityInstance {
	var result *ActivityInstance
	w.walk(w.Roots, func(candidate *ActivityInstance) {
		if result == nil && candidate.ActivityID == activityID && candidate.IsOpen() {
			result = candidate
		}
	})
	return result
}

func (w *WorkflowInstance) walk(ids []string, fn func(activityInstance *ActivityInstance)) {
	for _, id := range ids {
		candidate := w.ActivityInstances[id]
		if candidate == nil {
			continue
		}
		fn(candidate)
		w.walk(candidate.Children, fn)
	}
}

// Execute creates an activity instance for activity under parent (nil for the
// root scope) and queues it for execution
func (w *WorkflowInstance) Execute(ctx context.Context, activity *Activity, parent *ActivityInstance) (*ActivityInstance, error) {
	if activity.MultiInstance != nil {
		return w.executeMultiInstance(ctx, activity, parent)
	}
	activityInstance := w.newActivityInstance(activity, parent)
	return activityInstance, w.schedule(activityInstance)
}

func (w *WorkflowInstance) executeMultiInstance(ctx context.Context, activity *Activity, parent *ActivityInstance) (*ActivityInstance, error) {
	container := w.newActivityInstance(activity, parent)
	container.Container = true
	value, _ := container.Variable(activity.MultiInstance.Collection)
	container.Elements = toSlice(value)
	if len(container.Elements) == 0 {
		return container, container.Onwards(ctx)
	}
	if activity.MultiInstance.Sequential {
		return container, w.startElement(container)
	}
	for range container.Elements {
		if err := w.startElement(container); err != nil {
			return container, err
		}
	}
	return container, nil
}

func (w *WorkflowInstance) startElement(container *ActivityInstance) error {
	activity := container.Activity()
	element := w.newActivityInstance(activity, container)
	element.Variables[activity.MultiInstance.Element] = container.Elements[container.NextElement]
	container.NextElement++
	return w.schedule(element)
}

func (w *WorkflowInstance) schedule(activityInstance *ActivityInstance) error {
	activity := activityInstance.Activity()
	for _, timer := range activity.InstanceTimers() {
		aJob, err := timer.NewJob(clock.Now())
		if err != nil {
			return fmt.Errorf("failed to schedule timer of %v: %w", activity.ID, err)
		}
		aJob.WorkflowID = w.WorkflowID
		aJob.WorkflowInstanceID = w.ID
		aJob.ActivityInstanceID = activityInstance.ID
		aJob.ActivityID = activity.ID
		w.jobs = append(w.jobs, aJob)
	}
	if activity.Async {
		w.asyncWork = append(w.asyncWork, activityInstance.ID)
		return nil
	}
	w.work = append(w.work, activityInstance.ID)
	return nil
}

func (w *WorkflowInstance) newActivityInstance(activity *Activity, parent *ActivityInstance) *ActivityInstance {
	w.Sequence++
	ret := &ActivityInstance{
		ID:         strconv.Itoa(w.Sequence),
		ActivityID: activity.ID,
		State:      StateOpen,
		StartTime:  clock.Now(),
		Variables:  make(map[string]interface{}),
		instance:   w,
	}
	w.ActivityInstances[ret.ID] = ret
	if parent == nil {
		w.Roots = append(w.Roots, ret.ID)
	} else {
		ret.ParentID = parent.ID
		parent.Children = append(parent.Children, ret.ID)
	}
	return ret
}

// Perform runs the behaviour of a queued activity instance
func (w *WorkflowInstance) Perform(ctx context.Context, activityInstance *ActivityInstance) error {
	if !activityInstance.IsOpen() {
		return nil
	}
	for _, listener := range w.runtime.Listeners {
		if err := listener.ActivityStarted(ctx, activityInstance); err != nil {
			return fmt.Errorf("activity %v start rejected: %w", activityInstance.ActivityID, err)
		}
	}
	activity := activityInstance.Activity()
	if err := activity.Type.Execute(ctx, activityInstance); err != nil {
		return fmt.Errorf("failed to execute activity %v: %w", activity.ID, err)
	}
	return nil
}

// NextWork pops the next queued activity instance or returns nil
func (w *WorkflowInstance) NextWork() *ActivityInstance {
	for len(w.work) > 0 {
		id := w.work[0]
		w.work = w.work[1:]
		if candidate := w.ActivityInstances[id]; candidate != nil {
			return candidate
		}
	}
	return nil
}

// TakeContinuations drains activity instances deferred to asynchronous execution
func (w *WorkflowInstance) TakeContinuations() []*Continuation {
	var result []*Continuation
	for _, id := range w.asyncWork {
		result = append(result, &Continuation{WorkflowInstanceID: w.ID, ActivityInstanceID: id})
	}
	w.asyncWork = nil
	return result
}

// TakeJobs drains jobs created since the last flush, skipping jobs of already ended scopes
func (w *WorkflowInstance) TakeJobs() []*job.Job {
	var result []*job.Job
	for _, candidate := range w.jobs {
		if scope := w.ActivityInstances[candidate.ActivityInstanceID]; scope != nil && scope.IsEnded() {
			continue
		}
		result = append(result, candidate)
	}
	w.jobs = nil
	return result
}

// TakeEndedScopes drains ids of ended activity instances owning timer jobs
func (w *WorkflowInstance) TakeEndedScopes() []string {
	result := w.ended
	w.ended = nil
	return result
}

// Call requests a sub workflow start once the instance is flushed
func (w *WorkflowInstance) Call(trigger *model.TriggerInstance) {
	trigger.CallerWorkflowInstanceID = w.ID
	w.calls = append(w.calls, trigger)
}

// TakeCalls drains pending sub workflow starts
func (w *WorkflowInstance) TakeCalls() []*model.TriggerInstance {
	result := w.calls
	w.calls = nil
	return result
}

// TakeEnded returns true once after the instance ended
func (w *WorkflowInstance) TakeEnded() bool {
	ret := w.endedNow
	w.endedNow = false
	return ret
}

// EndAndPropagate ends the instance if no activity instance is open in the root scope
func (w *WorkflowInstance) EndAndPropagate(ctx context.Context) {
	for _, id := range w.Roots {
		if candidate := w.ActivityInstances[id]; candidate != nil && !candidate.IsEnded() {
			return
		}
	}
	if w.IsEnded() {
		return
	}
	now := clock.Now()
	w.End = &now
	w.Duration = now.Sub(w.Start)
	w.endedNow = true
	w.Logger().Debug().Str("workflow", w.WorkflowID).Msg("workflow instance ended")
}

// Reopen clears end time and duration of an ended instance
func (w *WorkflowInstance) Reopen() {
	w.End = nil
	w.Duration = 0
	w.endedNow = false
}

func (w *WorkflowInstance) scopeEnded(ctx context.Context, parentID string) error {
	if parentID == "" {
		w.EndAndPropagate(ctx)
		return nil
	}
	parent := w.ActivityInstances[parentID]
	if parent == nil || parent.IsEnded() || parent.HasOpenChildren() {
		return nil
	}
	return parent.Onwards(ctx)
}

// Snapshot returns a read-only copy of the instance state
func (w *WorkflowInstance) Snapshot() *model.WorkflowInstance {
	ret := &model.WorkflowInstance{
		ID:                       w.ID,
		WorkflowID:               w.WorkflowID,
		BusinessKey:              w.BusinessKey,
		Start:                    w.Start,
		End:                      w.End,
		Duration:                 w.Duration,
		Variables:                copyMap(w.Variables),
		Activities:               w.snapshots(w.Roots),
		CallerWorkflowInstanceID: w.CallerWorkflowInstanceID,
		CallerActivityInstanceID: w.CallerActivityInstanceID,
	}
	if w.Lock != nil {
		lock := *w.Lock
		ret.Lock = &lock
	}
	return ret
}

func (w *WorkflowInstance) snapshots(ids []string) []*model.ActivityInstance {
	var result []*model.ActivityInstance
	for _, id := range ids {
		candidate := w.ActivityInstances[id]
		if candidate == nil {
			continue
		}
		result = append(result, &model.ActivityInstance{
			ID:         candidate.ID,
			ActivityID: candidate.ActivityID,
			State:      string(candidate.State),
			Start:      candidate.StartTime,
			End:        candidate.EndTime,
			Duration:   candidate.Duration,
			Variables:  copyMap(candidate.Variables),
			Activities: w.snapshots(candidate.Children),
		})
	}
	return result
}

// Clone returns a deep copy of persisted state without runtime bindings
func (w *WorkflowInstance) Clone() *WorkflowInstance {
	ret := &WorkflowInstance{
		ID:                       w.ID,
		WorkflowID:               w.WorkflowID,
		BusinessKey:              w.BusinessKey,
		Start:                    w.Start,
		Duration:                 w.Duration,
		Variables:                copyMap(w.Variables),
		ActivityInstances:        make(map[string]*ActivityInstance, len(w.ActivityInstances)),
		Roots:                    append([]string(nil), w.Roots...),
		Sequence:                 w.Sequence,
		CallerWorkflowInstanceID: w.CallerWorkflowInstanceID,
		CallerActivityInstanceID: w.CallerActivityInstanceID,
	}
	if w.End != nil {
		end := *w.End
		ret.End = &end
	}
	if w.Lock != nil {
		lock := *w.Lock
		ret.Lock = &lock
	}
	for id, activityInstance := range w.ActivityInstances {
		ret.ActivityInstances[id] = activityInstance.clone(ret)
	}
	return ret
}

func copyMap(source map[string]interface{}) map[string]interface{} {
	if source == nil {
		return nil
	}
	ret := make(map[string]interface{}, len(source))
	for k, v := range source {
		ret[k] = v
	}
	return ret
}

func toSlice(value interface{}) []interface{} {
	if value == nil {
		return nil
	}
	if ret, ok := value.([]interface{}); ok {
		return ret
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []interface{}{value}
	}
	ret := make([]interface{}, rv.Len())
	for i := range ret {
		ret[i] = rv.Index(i).Interface()
	}
	return ret
}
