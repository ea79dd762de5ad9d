package execution

import (
	"fmt"

	"taskctl/internal/domain/plan"
)

// ComputeProgressSummary walks the descendants of ref (a Stage, Work, or
// ExecutableTask reference) and summarizes Subtask status counts, percent
// complete, and whether a human validation pass is suggested.
func ComputeProgressSummary(task *plan.Task, ref string) (ProgressSummary, error) {
	subtasks, err := descendantSubtasks(task, ref)
	if err != nil {
		return ProgressSummary{}, err
	}

	summary := ProgressSummary{ByStatus: map[plan.SubtaskStatus]int{}}
	for _, st := range subtasks {
		summary.Total++
		summary.ByStatus[st.Status]++
	}
	if summary.Total > 0 {
		summary.PercentComplete = float64(summary.ByStatus[plan.SubtaskCompleted]) / float64(summary.Total) * 100
	}
	summary.NeedsValidation = summary.Total > 0 && summary.ByStatus[plan.SubtaskCompleted] == summary.Total

	blocked, blockers, err := CheckDependencies(task, ref)
	if err == nil && blocked {
		summary.BlockingDependencies = blockers
	}
	return summary, nil
}

func descendantSubtasks(task *plan.Task, ref string) ([]*plan.Subtask, error) {
	if et, err := plan.FindExecutableTask(task, ref); err == nil {
		return et.Subtasks, nil
	}
	if w, err := plan.FindWork(task, ref); err == nil {
		var out []*plan.Subtask
		for _, et := range w.Tasks {
			out = append(out, et.Subtasks...)
		}
		return out, nil
	}
	if s, err := plan.FindStage(task, ref); err == nil {
		var out []*plan.Subtask
		for _, w := range s.WorkPackages {
			for _, et := range w.Tasks {
				out = append(out, et.Subtasks...)
			}
		}
		return out, nil
	}
	if st, _, err := plan.FindSubtask(task, ref); err == nil {
		return []*plan.Subtask{st}, nil
	}
	return nil, plan.NotFoundError("reference " + ref)
}

// CheckDependencies reports whether ref is blocked: a Subtask is blocked
// iff any sibling with a lower sequence_order is not COMPLETED; higher
// levels are blocked iff any unresolved dependency in dependencies[] is
// unsatisfied.
func CheckDependencies(task *plan.Task, ref string) (bool, []string, error) {
	if st, et, err := plan.FindSubtask(task, ref); err == nil {
		var blockers []string
		for _, sibling := range et.Subtasks {
			if sibling.SequenceOrder < st.SequenceOrder && sibling.Status != plan.SubtaskCompleted {
				blockers = append(blockers, sibling.ID)
			}
		}
		return len(blockers) > 0, blockers, nil
	}
	if et, err := plan.FindExecutableTask(task, ref); err == nil {
		return dependenciesUnresolved(task, et.Dependencies, subtaskStatusesOfSiblingETs)
	}
	if w, err := plan.FindWork(task, ref); err == nil {
		return dependenciesUnresolved(task, w.Dependencies, func(task *plan.Task, id string) (bool, error) {
			other, err := plan.FindWork(task, id)
			if err != nil {
				return false, err
			}
			return workCompleted(other), nil
		})
	}
	if s, err := plan.FindStage(task, ref); err == nil {
		return dependenciesUnresolved(task, s.Dependencies, func(task *plan.Task, id string) (bool, error) {
			other, err := plan.FindStage(task, id)
			if err != nil {
				return false, err
			}
			return stageCompleted(other), nil
		})
	}
	return false, nil, plan.NotFoundError("reference " + ref)
}

func subtaskStatusesOfSiblingETs(task *plan.Task, id string) (bool, error) {
	other, err := plan.FindExecutableTask(task, id)
	if err != nil {
		return false, err
	}
	return executableTaskCompleted(other), nil
}

func dependenciesUnresolved(task *plan.Task, deps []string, completed func(*plan.Task, string) (bool, error)) (bool, []string, error) {
	var blockers []string
	for _, id := range deps {
		ok, err := completed(task, id)
		if err != nil {
			return false, nil, err
		}
		if !ok {
			blockers = append(blockers, id)
		}
	}
	return len(blockers) > 0, blockers, nil
}

func executableTaskCompleted(et *plan.ExecutableTask) bool {
	for _, st := range et.Subtasks {
		if st.Status != plan.SubtaskCompleted {
			return false
		}
	}
	return len(et.Subtasks) > 0
}

func workCompleted(w *plan.Work) bool {
	for _, et := range w.Tasks {
		if !executableTaskCompleted(et) {
			return false
		}
	}
	return len(w.Tasks) > 0
}

func stageCompleted(s *plan.Stage) bool {
	for _, w := range s.WorkPackages {
		if !workCompleted(w) {
			return false
		}
	}
	return len(s.WorkPackages) > 0
}

// SuggestValidationWorkflow emits a short ordered checklist for a human
// validator once every Subtask under an ExecutableTask is COMPLETED.
func SuggestValidationWorkflow(task *plan.Task, etID string) ([]string, error) {
	et, err := plan.FindExecutableTask(task, etID)
	if err != nil {
		return nil, err
	}
	if !executableTaskCompleted(et) {
		return nil, plan.InvalidStateError("executable task " + etID + " is not yet fully completed")
	}

	checklist := []string{fmt.Sprintf("Confirm %s's stated outcome was achieved.", et.Name)}
	for _, criterion := range et.ValidationCriteria {
		checklist = append(checklist, "Verify: "+criterion)
	}
	for _, artifact := range et.GeneratedArtifacts {
		checklist = append(checklist, fmt.Sprintf("Inspect artifact %q at %s.", artifact.Name, artifact.Location))
	}
	checklist = append(checklist, "Mark the executable task's subtasks READY_FOR_VALIDATION once reviewed.")
	return checklist, nil
}
