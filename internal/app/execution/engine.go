// Package execution implements the execution engine: it resolves a
// hierarchical reference to a Subtask, picks an Executor from a
// priority-ordered strategy chain, runs it, validates the result against
// the owning ExecutableTask's criteria, and propagates status.
package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taskctl/internal/app/tracker"
	"taskctl/internal/domain/plan"
	"taskctl/internal/infra/store"
	jsonx "taskctl/internal/shared/json"
	"taskctl/internal/shared/logging"
)

// Engine drives ExecuteTask end to end against a Task Store, holding a
// per-project lock for the read-modify-write-persist round trip.
type Engine struct {
	store          *store.Store
	executors      []Executor
	logger         logging.Logger
	now            func() time.Time
	subtaskTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithSubtaskTimeout bounds a single Executor.Execute call, wired from
// config.Config.SubtaskTimeout. Zero (the default) means no deadline
// beyond the caller's own context.
func WithSubtaskTimeout(d time.Duration) Option {
	return func(e *Engine) { e.subtaskTimeout = d }
}

// New constructs an Engine with the default executor chain.
func New(s *store.Store, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		executors: DefaultExecutors(),
		logger:    logging.OrNop(logger),
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) lockFor(projectID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[projectID] = l
	}
	return l
}

// GetTaskDetails resolves ref against task, returning a synthetic
// "unknown task" record (Synthetic=true) rather than an error when ref
// does not resolve.
func GetTaskDetails(task *plan.Task, ref string) Details {
	st, et, err := plan.FindSubtask(task, ref)
	if err != nil {
		return Details{Ref: ref, Synthetic: true}
	}
	return Details{Ref: ref, Subtask: st, ExecutableTask: et}
}

// ExecuteTask runs the full resolve-select-execute-validate-persist
// pipeline for one subtask reference, reporting each phase to tr.
func (e *Engine) ExecuteTask(ctx context.Context, projectID, ref string, workspacePath string, tr *tracker.Tracker) (FlowResult, error) {
	lock := e.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	task, err := e.store.LoadTask(ctx, projectID)
	if err != nil {
		return FlowResult{}, err
	}
	if task == nil {
		return FlowResult{}, plan.NotFoundError("task for project " + projectID)
	}

	details := GetTaskDetails(task, ref)
	tr.RecordActivity(tracker.Activity{Agent: "execution_engine", ActionType: "get_task_details", Description: ref, Success: !details.Synthetic})

	if details.Synthetic {
		fr := FlowResult{Ref: ref, Status: plan.SubtaskFailed, Result: Result{Success: false, Err: fmt.Errorf("unknown task reference %q", ref)}}
		tr.RecordActivity(tracker.Activity{Agent: "execution_engine", ActionType: "execute", Description: ref, Success: false, Error: fr.Result.Err.Error()})
		return fr, nil
	}

	executor, err := SelectExecutor(e.executors, details)
	if err != nil {
		return FlowResult{}, err
	}
	tr.RecordActivity(tracker.Activity{Agent: "execution_engine", ActionType: "select_executor", Description: executor.Name(), Success: true})

	now := e.now()
	plan.StartSubtask(details.Subtask, now)

	tr.RecordToolCallStart(executor.Name(), map[string]any{"ref": ref})
	start := time.Now()
	execCtx := ctx
	if e.subtaskTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.subtaskTimeout)
		defer cancel()
	}
	result := executor.Execute(execCtx, details, workspacePath)
	tr.RecordToolCallEnd(tracker.ToolCall{
		Tool: executor.Name(), Success: result.Success, DurationMs: time.Since(start).Milliseconds(),
		ResultPreview: truncate(result.Message, 200),
	})

	validations := ValidateCompletion(details, result, workspacePath)
	allPassed := true
	for _, v := range validations {
		if !v.Passed {
			allPassed = false
		}
	}

	finish := e.now()
	switch {
	case result.Err != nil:
		plan.FailSubtask(details.Subtask, result.Err.Error(), finish)
	case !allPassed:
		plan.FailSubtask(details.Subtask, "failed validation criteria: "+failedCriteriaSummary(validations), finish)
	default:
		serialized, _ := jsonx.Marshal(result)
		plan.CompleteSubtask(details.Subtask, string(serialized), finish)
	}

	if err := e.store.SaveTask(ctx, projectID, task); err != nil {
		return FlowResult{}, err
	}

	tr.RecordActivity(tracker.Activity{
		Agent: "execution_engine", ActionType: "validate_completion",
		Description: ref, Success: allPassed,
	})

	return FlowResult{
		Ref: ref, Status: details.Subtask.Status, ExecutorUsed: executor.Name(),
		Result: result, Validations: validations, AllPassed: allPassed,
	}, nil
}

func failedCriteriaSummary(validations []ValidationResult) string {
	var failed []string
	for _, v := range validations {
		if !v.Passed {
			failed = append(failed, v.Criterion)
		}
	}
	out := ""
	for i, c := range failed {
		if i > 0 {
			out += "; "
		}
		out += c
	}
	return out
}

// ProgressSummary loads projectID's Task and summarizes ref's descendants.
func (e *Engine) ProgressSummary(ctx context.Context, projectID, ref string) (ProgressSummary, error) {
	task, err := e.store.LoadTask(ctx, projectID)
	if err != nil {
		return ProgressSummary{}, err
	}
	if task == nil {
		return ProgressSummary{}, plan.NotFoundError("task for project " + projectID)
	}
	return ComputeProgressSummary(task, ref)
}

// CheckDependencies loads projectID's Task and checks whether ref is blocked.
func (e *Engine) CheckDependencies(ctx context.Context, projectID, ref string) (bool, []string, error) {
	task, err := e.store.LoadTask(ctx, projectID)
	if err != nil {
		return false, nil, err
	}
	if task == nil {
		return false, nil, plan.NotFoundError("task for project " + projectID)
	}
	return CheckDependencies(task, ref)
}

// SuggestValidationWorkflow loads projectID's Task and, if etID is fully
// completed, returns its human validation checklist.
func (e *Engine) SuggestValidationWorkflow(ctx context.Context, projectID, etID string) ([]string, error) {
	task, err := e.store.LoadTask(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, plan.NotFoundError("task for project " + projectID)
	}
	return SuggestValidationWorkflow(task, etID)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
