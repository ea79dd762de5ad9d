// Package planning implements the phase-by-phase orchestrator that
// drives a Task from NEW to NETWORK_PLAN_GENERATED. Every phase follows
// the same shape: validate precondition, invoke the façade, apply the
// result, transition state, persist.
package planning

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"taskctl/internal/app/facade"
	"taskctl/internal/domain/plan"
	"taskctl/internal/infra/store"
	"taskctl/internal/shared/logging"
)

// dontKnowThreshold is the number of distinct "I don't know" answers that
// ends context gathering even without force=true.
const dontKnowThreshold = 3

// Pipeline owns no state itself; every call loads a Task, mutates it, and
// saves it back, holding a per-project lock for the whole round trip so
// concurrent requests against the same Task serialize.
type Pipeline struct {
	facade *facade.Facade
	store  *store.Store
	logger logging.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a Pipeline wired to f and s.
func New(f *facade.Facade, s *store.Store, logger logging.Logger) *Pipeline {
	return &Pipeline{
		facade: f,
		store:  s,
		logger: logging.OrNop(logger),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (p *Pipeline) lockFor(projectID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[projectID] = l
	}
	return l
}

// withTask loads projectID's Task, holds the per-Task lock for the
// duration of fn, and persists the Task afterward unless fn returns an
// error.
func (p *Pipeline) withTask(ctx context.Context, projectID string, fn func(task *plan.Task) error) (*plan.Task, error) {
	lock := p.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	task, err := p.store.LoadTask(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, plan.NotFoundError("task for project " + projectID)
	}
	if err := fn(task); err != nil {
		return nil, err
	}
	task.UpdatedAt = p.now()
	if err := p.store.SaveTask(ctx, projectID, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (p *Pipeline) transition(task *plan.Task, event plan.Event, force bool) error {
	next, err := plan.Transition(task.State, event, force)
	if err != nil {
		return err
	}
	task.State = next
	return nil
}

var dontKnowPhrases = []string{
	"i don't know", "i dont know", "idk", "not sure", "no idea", "unknown", "unsure",
}

func isDontKnow(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	for _, phrase := range dontKnowPhrases {
		if a == phrase {
			return true
		}
	}
	return false
}

func countDontKnow(answers []plan.ContextAnswer) int {
	n := 0
	for _, a := range answers {
		if a.Answer != "" && isDontKnow(a.Answer) {
			n++
		}
	}
	return n
}

// AnswerContextQuestions applies answers to the open (unanswered)
// questions recorded on the Task, then re-asks the façade whether context
// is now sufficient. The loop terminates early — even if the façade still
// wants more — once three distinct questions have been answered "I don't
// know", or when force is true.
func (p *Pipeline) AnswerContextQuestions(ctx context.Context, projectID string, answers map[string]string, force bool) (ContextQuestionsResult, error) {
	var result ContextQuestionsResult

	_, err := p.withTask(ctx, projectID, func(task *plan.Task) error {
		if task.State == plan.StatusNew {
			if err := p.transition(task, plan.EventFirstContextQuestion, false); err != nil {
				return err
			}
		}
		if task.State != plan.StatusContextGathering {
			return plan.InvalidStateError("context questions are only accepted while CONTEXT_GATHERING")
		}

		applyContextAnswers(task, answers)

		if force || countDontKnow(task.ContextAnswers) >= dontKnowThreshold {
			if err := p.transition(task, plan.EventContextSufficient, true); err != nil {
				return err
			}
			result = ContextQuestionsResult{Sufficient: true, ForcedStop: true}
			return nil
		}

		sufficiency, err := p.facade.AnalyzeContextSufficiency(ctx, task)
		if err != nil {
			return err
		}
		if sufficiency.Sufficient {
			if err := p.transition(task, plan.EventContextSufficient, false); err != nil {
				return err
			}
			result = ContextQuestionsResult{Sufficient: true}
			return nil
		}

		addOpenQuestions(task, sufficiency.Questions)
		result = ContextQuestionsResult{Sufficient: false, OpenQuestions: sufficiency.Questions}
		return nil
	})
	return result, err
}

func applyContextAnswers(task *plan.Task, answers map[string]string) {
	for i := range task.ContextAnswers {
		if task.ContextAnswers[i].Answer != "" {
			continue
		}
		if a, ok := answers[task.ContextAnswers[i].Question]; ok {
			task.ContextAnswers[i].Answer = a
		}
	}
}

func addOpenQuestions(task *plan.Task, questions []facade.Question) {
	existing := make(map[string]bool, len(task.ContextAnswers))
	for _, a := range task.ContextAnswers {
		existing[a.Question] = true
	}
	for _, q := range questions {
		if existing[q.Text] {
			continue
		}
		task.ContextAnswers = append(task.ContextAnswers, plan.ContextAnswer{Question: q.Text})
		existing[q.Text] = true
	}
}

// ContextQuestionsResult is AnswerContextQuestions's return value.
type ContextQuestionsResult struct {
	Sufficient    bool
	ForcedStop    bool
	OpenQuestions []facade.Question
}

// EditContext folds human feedback into the Task's context summary
// without changing state.
func (p *Pipeline) EditContext(ctx context.Context, projectID, feedback string) (*plan.Task, error) {
	return p.withTask(ctx, projectID, func(task *plan.Task) error {
		summary, err := p.facade.SummarizeContext(ctx, task, feedback)
		if err != nil {
			return err
		}
		task.TaskText = summary.Task
		task.Context = summary.Context
		return nil
	})
}

// FormulateDimension returns clarifying questions for one scope dimension.
// The first call on a Task in CONTEXT_GATHERED transitions it into
// TASK_FORMATION.
func (p *Pipeline) FormulateDimension(ctx context.Context, projectID string, dimension plan.ScopeDimension) ([]facade.ScopeQuestion, error) {
	var questions []facade.ScopeQuestion
	_, err := p.withTask(ctx, projectID, func(task *plan.Task) error {
		if task.State == plan.StatusContextGathered {
			if err := p.transition(task, plan.EventScopeQuestionAsked, false); err != nil {
				return err
			}
		}
		if task.State != plan.StatusTaskFormation {
			return plan.InvalidStateError("scope questions are only accepted while TASK_FORMATION")
		}
		var err error
		questions, err = p.facade.FormulateScopeQuestions(ctx, task, dimension)
		return err
	})
	return questions, err
}

// SubmitDimensionAnswers records the answer for one scope dimension and
// locks it, making it visible as context to subsequently formulated
// dimensions.
func (p *Pipeline) SubmitDimensionAnswers(ctx context.Context, projectID string, dimension plan.ScopeDimension, answer string) (*plan.Task, error) {
	return p.withTask(ctx, projectID, func(task *plan.Task) error {
		if task.State != plan.StatusTaskFormation {
			return plan.InvalidStateError("scope answers are only accepted while TASK_FORMATION")
		}
		setScopeDimension(&task.Scope, dimension, answer)
		if task.Scope.DimensionStatus == nil {
			task.Scope.DimensionStatus = map[plan.ScopeDimension]plan.ScopeDraftStatus{}
		}
		task.Scope.DimensionStatus[dimension] = plan.ScopeDimensionLocked
		return nil
	})
}

func setScopeDimension(scope *plan.Scope, dimension plan.ScopeDimension, value string) {
	switch dimension {
	case plan.DimensionWhat:
		scope.What = value
	case plan.DimensionWhy:
		scope.Why = value
	case plan.DimensionWho:
		scope.Who = value
	case plan.DimensionWhere:
		scope.Where = value
	case plan.DimensionWhen:
		scope.When = value
	case plan.DimensionHow:
		scope.How = value
	}
}

// GenerateDraftScope produces the full draft scope from whatever
// dimensions have been locked so far.
func (p *Pipeline) GenerateDraftScope(ctx context.Context, projectID string) (facade.DraftScope, error) {
	var draft facade.DraftScope
	_, err := p.withTask(ctx, projectID, func(task *plan.Task) error {
		if task.State != plan.StatusTaskFormation {
			return plan.InvalidStateError("draft scope can only be generated while TASK_FORMATION")
		}
		var err error
		draft, err = p.facade.GenerateDraftScope(ctx, task)
		if err != nil {
			return err
		}
		task.Scope.Draft = draft.Scope.Draft
		task.Scope.Status = "draft"
		return nil
	})
	return draft, err
}

// SubmitScopeValidation either approves the draft (transitioning back to
// CONTEXT_GATHERED, armed for IFR) or incorporates feedback and stays in
// TASK_FORMATION for another round.
func (p *Pipeline) SubmitScopeValidation(ctx context.Context, projectID string, isApproved bool, feedback string) (facade.ValidationScopeResult, error) {
	var result facade.ValidationScopeResult
	_, err := p.withTask(ctx, projectID, func(task *plan.Task) error {
		if task.State != plan.StatusTaskFormation {
			return plan.InvalidStateError("scope validation can only happen while TASK_FORMATION")
		}
		if isApproved {
			task.Scope.Status = "approved"
			result = facade.ValidationScopeResult{UpdatedScope: task.Scope}
			return p.transition(task, plan.EventScopeDraftApproved, false)
		}
		updated, err := p.facade.ValidateScope(ctx, task, feedback)
		if err != nil {
			return err
		}
		task.Scope = updated.UpdatedScope
		result = updated
		return nil
	})
	return result, err
}

// GenerateIFR produces the Task's Ideal Final Result and advances the
// state machine to IFR_GENERATED.
func (p *Pipeline) GenerateIFR(ctx context.Context, projectID string) (*plan.IFR, error) {
	var ifr *plan.IFR
	_, err := p.withTask(ctx, projectID, func(task *plan.Task) error {
		if task.State != plan.StatusContextGathered {
			return plan.InvalidStateError("IFR can only be generated from CONTEXT_GATHERED")
		}
		var err error
		ifr, err = p.facade.GenerateIFR(ctx, task)
		if err != nil {
			return err
		}
		task.IFR = ifr
		return p.transition(task, plan.EventIFRGenerated, false)
	})
	return ifr, err
}

// GenerateRequirements derives Requirements from scope+IFR and advances
// to REQUIREMENTS_DEFINED.
func (p *Pipeline) GenerateRequirements(ctx context.Context, projectID string) (*plan.Requirements, error) {
	var reqs *plan.Requirements
	_, err := p.withTask(ctx, projectID, func(task *plan.Task) error {
		if task.State != plan.StatusIFRGenerated {
			return plan.InvalidStateError("requirements can only be generated from IFR_GENERATED")
		}
		var err error
		reqs, err = p.facade.DefineRequirements(ctx, task)
		if err != nil {
			return err
		}
		task.Requirements = reqs
		return p.transition(task, plan.EventRequirementsGenerated, false)
	})
	return reqs, err
}

// GenerateNetworkPlan runs the Creator/Critic loop and advances to
// NETWORK_PLAN_GENERATED. force permits regenerating an existing plan.
func (p *Pipeline) GenerateNetworkPlan(ctx context.Context, projectID string, force bool) (*plan.NetworkPlan, error) {
	var np *plan.NetworkPlan
	_, err := p.withTask(ctx, projectID, func(task *plan.Task) error {
		if task.State != plan.StatusRequirementsDefined && !(force && task.State == plan.StatusNetworkPlanGenerated) {
			return plan.InvalidStateError("network plan can only be generated from REQUIREMENTS_DEFINED (or regenerated with force)")
		}
		var err error
		np, err = p.facade.GenerateNetworkPlan(ctx, task)
		if err != nil {
			return err
		}
		task.NetworkPlan = np
		return p.transition(task, plan.EventNetworkPlanGenerated, force)
	})
	return np, err
}

// ExpandStage generates the Work packages for one Stage of an already
// generated NetworkPlan. It does not change the Task's lifecycle state;
// progress is verified by descent into the hierarchy instead.
func (p *Pipeline) ExpandStage(ctx context.Context, projectID, stageID string) ([]*plan.Work, error) {
	var work []*plan.Work
	_, err := p.withTask(ctx, projectID, func(task *plan.Task) error {
		if task.NetworkPlan == nil {
			return plan.MissingComponentError("task has no network plan yet")
		}
		stage, err := plan.FindStage(task, stageID)
		if err != nil {
			return err
		}
		work, err = p.facade.GenerateWorkForStage(ctx, task, stage)
		if err != nil {
			return err
		}
		stage.WorkPackages = work
		return nil
	})
	return work, err
}

// ExpandWork generates the ExecutableTasks for one Work package.
func (p *Pipeline) ExpandWork(ctx context.Context, projectID, workID string) ([]*plan.ExecutableTask, error) {
	var tasks []*plan.ExecutableTask
	_, err := p.withTask(ctx, projectID, func(task *plan.Task) error {
		work, err := plan.FindWork(task, workID)
		if err != nil {
			return err
		}
		stage, err := stageOfWork(task, workID)
		if err != nil {
			return err
		}
		tasks, err = p.facade.GenerateTasksForWork(ctx, task, stage, work)
		if err != nil {
			return err
		}
		work.Tasks = tasks
		return nil
	})
	return tasks, err
}

// ExpandExecutableTask generates the Subtasks for one ExecutableTask.
func (p *Pipeline) ExpandExecutableTask(ctx context.Context, projectID, etID string) ([]*plan.Subtask, error) {
	var subtasks []*plan.Subtask
	_, err := p.withTask(ctx, projectID, func(task *plan.Task) error {
		et, err := plan.FindExecutableTask(task, etID)
		if err != nil {
			return err
		}
		stage, work, err := stageAndWorkOfExecutableTask(task, etID)
		if err != nil {
			return err
		}
		subtasks, err = p.facade.GenerateSubtasks(ctx, task, stage, work, et)
		if err != nil {
			return err
		}
		et.Subtasks = subtasks
		return nil
	})
	return subtasks, err
}

func stageOfWork(task *plan.Task, workID string) (*plan.Stage, error) {
	if task.NetworkPlan == nil {
		return nil, plan.MissingComponentError("task has no network plan")
	}
	for _, stage := range task.NetworkPlan.Stages {
		for _, w := range stage.WorkPackages {
			if w.ID == workID {
				return stage, nil
			}
		}
	}
	return nil, plan.NotFoundError(fmt.Sprintf("stage containing work %q", workID))
}

func stageAndWorkOfExecutableTask(task *plan.Task, etID string) (*plan.Stage, *plan.Work, error) {
	if task.NetworkPlan == nil {
		return nil, nil, plan.MissingComponentError("task has no network plan")
	}
	for _, stage := range task.NetworkPlan.Stages {
		for _, w := range stage.WorkPackages {
			for _, et := range w.Tasks {
				if et.ID == etID {
					return stage, w, nil
				}
			}
		}
	}
	return nil, nil, plan.NotFoundError(fmt.Sprintf("stage/work containing executable task %q", etID))
}
