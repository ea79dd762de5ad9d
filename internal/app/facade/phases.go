package facade

import (
	"context"
	"fmt"
	"time"

	"taskctl/internal/domain/llm"
	"taskctl/internal/domain/plan"
)

const promptHeader = "You are the planning agent for a task orchestration system. " +
	"Respond with a single JSON object matching the requested schema and nothing else."

// AnalyzeContextSufficiency reports whether enough context has been
// gathered to leave CONTEXT_GATHERING, and if not, which questions remain.
func (f *Facade) AnalyzeContextSufficiency(ctx context.Context, task *plan.Task) (ContextSufficiencyResult, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: analyze_context_sufficiency."),
		userMessage(mustJSON(map[string]any{
			"task":            task.TaskText,
			"context":         task.Context,
			"context_answers": task.ContextAnswers,
		})),
	}
	return callAgent[ContextSufficiencyResult](ctx, f, "analyze_context_sufficiency", messages,
		`{"sufficient": bool, "questions": [{"text": string}]}`)
}

// SummarizeContext folds feedback (if any) into a condensed context summary.
func (f *Facade) SummarizeContext(ctx context.Context, task *plan.Task, feedback string) (ContextSummary, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: summarize_context."),
		userMessage(mustJSON(map[string]any{
			"task":            task.TaskText,
			"context":         task.Context,
			"context_answers": task.ContextAnswers,
			"feedback":        feedback,
		})),
	}
	return callAgent[ContextSummary](ctx, f, "summarize_context", messages,
		`{"task": string, "context": string}`)
}

// FormulateScopeQuestions generates clarifying questions for one scope
// dimension, with prior dimensions visible as locked context.
func (f *Facade) FormulateScopeQuestions(ctx context.Context, task *plan.Task, dimension plan.ScopeDimension) ([]ScopeQuestion, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: formulate_scope_questions."),
		userMessage(mustJSON(map[string]any{
			"task":      task.TaskText,
			"context":   task.Context,
			"scope":     task.Scope,
			"dimension": dimension,
		})),
	}
	result, err := callAgent[struct {
		Questions []ScopeQuestion `json:"questions"`
	}](ctx, f, "formulate_scope_questions", messages, `{"questions": [{"dimension": string, "text": string}]}`)
	if err != nil {
		return nil, err
	}
	for i := range result.Questions {
		result.Questions[i].Dimension = dimension
	}
	return result.Questions, nil
}

// GenerateDraftScope produces a first full draft of the six-dimension scope.
func (f *Facade) GenerateDraftScope(ctx context.Context, task *plan.Task) (DraftScope, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: generate_draft_scope."),
		userMessage(mustJSON(map[string]any{
			"task":    task.TaskText,
			"context": task.Context,
			"scope":   task.Scope,
		})),
	}
	return callAgent[DraftScope](ctx, f, "generate_draft_scope", messages,
		`{"scope": Scope, "validation_criteria": [string]}`)
}

// ValidateScope incorporates human feedback into the draft scope.
func (f *Facade) ValidateScope(ctx context.Context, task *plan.Task, feedback string) (ValidationScopeResult, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: validate_scope."),
		userMessage(mustJSON(map[string]any{
			"task":     task.TaskText,
			"scope":    task.Scope,
			"feedback": feedback,
		})),
	}
	return callAgent[ValidationScopeResult](ctx, f, "validate_scope", messages,
		`{"updated_scope": Scope, "changes": [string]}`)
}

// GenerateIFR produces the task's Ideal Final Result.
func (f *Facade) GenerateIFR(ctx context.Context, task *plan.Task) (*plan.IFR, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: generate_ifr."),
		userMessage(mustJSON(map[string]any{
			"task":  task.TaskText,
			"scope": task.Scope,
		})),
	}
	ifr, err := callAgent[plan.IFR](ctx, f, "generate_ifr", messages,
		`{"statement": string, "success_criteria": [string], "expected_outcomes": [string], "quality_metrics": [string], "validation_checklist": [string]}`)
	if err != nil {
		return nil, err
	}
	return &ifr, nil
}

// DefineRequirements derives Requirements from scope + IFR.
func (f *Facade) DefineRequirements(ctx context.Context, task *plan.Task) (*plan.Requirements, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: define_requirements."),
		userMessage(mustJSON(map[string]any{
			"task":  task.TaskText,
			"scope": task.Scope,
			"ifr":   task.IFR,
		})),
	}
	req, err := callAgent[plan.Requirements](ctx, f, "define_requirements", messages,
		`{"requirements": [string], "constraints": [string], "limitations": [string], "resources": [string], "tools": [string], "definitions": {string: string}}`)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// createNetworkPlan is the Creator half of the Creator/Critic loop: it
// proposes a full NetworkPlan, optionally conditioned on the previous
// attempt and the Critic's feedback.
func (f *Facade) createNetworkPlan(ctx context.Context, task *plan.Task, prev *plan.NetworkPlan, critique string) (*plan.NetworkPlan, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: generate_network_plan (creator)."),
		userMessage(mustJSON(map[string]any{
			"task":            task.TaskText,
			"scope":           task.Scope,
			"ifr":             task.IFR,
			"requirements":    task.Requirements,
			"previous_plan":   prev,
			"critic_feedback": critique,
		})),
	}
	result, err := callAgent[plan.NetworkPlan](ctx, f, "generate_network_plan.creator", messages,
		`{"stages": [Stage]}`)
	if err != nil {
		return nil, err
	}
	assignNetworkPlanIDs(&result)
	return &result, nil
}

// critiqueNetworkPlan is the Critic half of the Creator/Critic loop.
func (f *Facade) critiqueNetworkPlan(ctx context.Context, task *plan.Task, candidate *plan.NetworkPlan) (CriticVerdict, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: generate_network_plan (critic)."),
		userMessage(mustJSON(map[string]any{
			"task":  task.TaskText,
			"ifr":   task.IFR,
			"plan":  candidate,
		})),
	}
	return callAgent[CriticVerdict](ctx, f, "generate_network_plan.critic", messages,
		`{"score": int, "needs_improvement": bool, "feedback": string}`)
}

// GenerateNetworkPlan runs a bounded Creator/Critic loop: each iteration
// drafts a plan, then critiques it, stopping once the critic scores it
// highly enough or the iteration cap is reached. Any LLM error mid-loop
// falls back to the last successfully produced plan; the call only
// fails if no plan was ever produced.
func (f *Facade) GenerateNetworkPlan(ctx context.Context, task *plan.Task) (*plan.NetworkPlan, error) {
	var lastPlan *plan.NetworkPlan
	var critique string

	for iteration := 0; iteration < f.networkPlanMaxIter; iteration++ {
		candidate, err := f.createNetworkPlan(ctx, task, lastPlan, critique)
		if err != nil {
			if lastPlan != nil {
				f.logger.Warn("generate_network_plan: creator failed on iteration %d, falling back to last plan: %v", iteration, err)
				return lastPlan, nil
			}
			return nil, err
		}
		lastPlan = candidate

		verdict, err := f.critiqueNetworkPlan(ctx, task, candidate)
		if err != nil {
			f.logger.Warn("generate_network_plan: critic failed on iteration %d, accepting last plan: %v", iteration, err)
			return lastPlan, nil
		}
		if !verdict.NeedsImprovement && verdict.Score >= 8 {
			return lastPlan, nil
		}
		critique = verdict.Feedback
	}
	return lastPlan, nil
}

// GenerateWorkForStage produces the Work packages for one Stage, with
// Work IDs derived from the Stage's ID.
func (f *Facade) GenerateWorkForStage(ctx context.Context, task *plan.Task, stage *plan.Stage) ([]*plan.Work, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: generate_work_for_stage."),
		userMessage(mustJSON(map[string]any{
			"task":  task.TaskText,
			"stage": stage,
		})),
	}
	result, err := callAgent[struct {
		Work []*plan.Work `json:"work"`
	}](ctx, f, "generate_work_for_stage", messages, `{"work": [Work]}`)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i, w := range result.Work {
		w.ID = fmt.Sprintf("%s_W%d", stage.ID, i+1)
		w.SequenceOrder = i
		w.CreatedAt, w.UpdatedAt = now, now
	}
	return result.Work, nil
}

// GenerateTasksForWork produces the ExecutableTasks for one Work package.
func (f *Facade) GenerateTasksForWork(ctx context.Context, task *plan.Task, stage *plan.Stage, work *plan.Work) ([]*plan.ExecutableTask, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: generate_tasks_for_work."),
		userMessage(mustJSON(map[string]any{
			"task": task.TaskText,
			"work": work,
		})),
	}
	result, err := callAgent[struct {
		Tasks []*plan.ExecutableTask `json:"tasks"`
	}](ctx, f, "generate_tasks_for_work", messages, `{"tasks": [ExecutableTask]}`)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i, et := range result.Tasks {
		et.ID = fmt.Sprintf("%s_ET%d", work.ID, i+1)
		et.SequenceOrder = i
		et.CreatedAt, et.UpdatedAt = now, now
	}
	return result.Tasks, nil
}

// GenerateSubtasks produces the Subtasks for one ExecutableTask.
func (f *Facade) GenerateSubtasks(ctx context.Context, task *plan.Task, stage *plan.Stage, work *plan.Work, execTask *plan.ExecutableTask) ([]*plan.Subtask, error) {
	messages := []llm.Message{
		systemMessage(promptHeader + " Phase: generate_subtasks."),
		userMessage(mustJSON(map[string]any{
			"task":            task.TaskText,
			"executable_task": execTask,
		})),
	}
	result, err := callAgent[struct {
		Subtasks []*plan.Subtask `json:"subtasks"`
	}](ctx, f, "generate_subtasks", messages, `{"subtasks": [Subtask]}`)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i, st := range result.Subtasks {
		st.ID = fmt.Sprintf("%s_ST%d", execTask.ID, i+1)
		st.SequenceOrder = i
		st.Status = plan.SubtaskPending
		st.CreatedAt, st.UpdatedAt = now, now
	}
	return result.Subtasks, nil
}

// assignNetworkPlanIDs fills in Stage/Work/ExecutableTask/Subtask IDs and
// sequence orders for a freshly generated plan, following the same
// hierarchical reference scheme the rest of the façade uses.
func assignNetworkPlanIDs(np *plan.NetworkPlan) {
	now := time.Now()
	for si, stage := range np.Stages {
		stage.ID = fmt.Sprintf("S%d", si+1)
		stage.SequenceOrder = si
		stage.CreatedAt, stage.UpdatedAt = now, now
		for wi, work := range stage.WorkPackages {
			work.ID = fmt.Sprintf("%s_W%d", stage.ID, wi+1)
			work.SequenceOrder = wi
			work.CreatedAt, work.UpdatedAt = now, now
			for ei, et := range work.Tasks {
				et.ID = fmt.Sprintf("%s_ET%d", work.ID, ei+1)
				et.SequenceOrder = ei
				et.CreatedAt, et.UpdatedAt = now, now
				for subi, st := range et.Subtasks {
					st.ID = fmt.Sprintf("%s_ST%d", et.ID, subi+1)
					st.SequenceOrder = subi
					if st.Status == "" {
						st.Status = plan.SubtaskPending
					}
					st.CreatedAt, st.UpdatedAt = now, now
				}
			}
		}
	}
}
