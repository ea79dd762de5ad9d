package execution

import (
	"context"

	"taskctl/internal/domain/plan"
)

// Details is the typed record GetTaskDetails resolves a reference into.
// Synthetic is true when ref did not resolve to a real Subtask, giving the
// caller a placeholder record instead of an error so it can still write a
// FAILED status.
type Details struct {
	Ref            string
	Subtask        *plan.Subtask
	ExecutableTask *plan.ExecutableTask
	Synthetic      bool
}

// Result is what an Executor returns from one Execute call.
type Result struct {
	Success          bool
	Message          string
	ArtifactsCreated []string
	FileContent      string
	FilePath         string
	Err              error
	Metadata         map[string]any
}

// Executor is one pluggable strategy in the priority chain SelectExecutor
// walks.
type Executor interface {
	Name() string
	CanExecute(details Details) bool
	Execute(ctx context.Context, details Details, workspacePath string) Result
}

// ValidationResult is the outcome of one validation criterion.
type ValidationResult struct {
	Criterion string
	Passed    bool
	Detail    string
}

// FlowResult is ExecuteTask's combined return value, carrying the executor
// outcome and validation results back to the caller for display.
type FlowResult struct {
	Ref         string
	Status      plan.SubtaskStatus
	ExecutorUsed string
	Result      Result
	Validations []ValidationResult
	AllPassed   bool
}

// ProgressSummary is the typed output of Engine.ProgressSummary.
type ProgressSummary struct {
	Total             int
	ByStatus          map[plan.SubtaskStatus]int
	PercentComplete   float64
	NeedsValidation   bool
	BlockingDependencies []string
}
