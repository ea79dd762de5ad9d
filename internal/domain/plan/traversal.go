package plan

// FindStage descends task.NetworkPlan looking for a Stage with the given
// id, returning MissingComponentError if the task has no network plan and
// NotFoundError("stage <id>") if no match exists.
func FindStage(task *Task, id string) (*Stage, error) {
	if task == nil || task.NetworkPlan == nil {
		return nil, MissingComponentError("task has no network plan")
	}
	for _, s := range task.NetworkPlan.Stages {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, NotFoundError("stage " + id)
}

// FindWork descends task.NetworkPlan -> Stage -> Work looking for workID.
func FindWork(task *Task, workID string) (*Work, error) {
	if task == nil || task.NetworkPlan == nil {
		return nil, MissingComponentError("task has no network plan")
	}
	for _, s := range task.NetworkPlan.Stages {
		for _, w := range s.WorkPackages {
			if w.ID == workID {
				return w, nil
			}
		}
	}
	return nil, NotFoundError("work " + workID)
}

// FindExecutableTask descends the full tree looking for etID.
func FindExecutableTask(task *Task, etID string) (*ExecutableTask, error) {
	if task == nil || task.NetworkPlan == nil {
		return nil, MissingComponentError("task has no network plan")
	}
	for _, s := range task.NetworkPlan.Stages {
		for _, w := range s.WorkPackages {
			for _, et := range w.Tasks {
				if et.ID == etID {
					return et, nil
				}
			}
		}
	}
	return nil, NotFoundError("executable task " + etID)
}

// FindSubtask descends the full tree looking for subtaskID. It also
// returns the owning ExecutableTask so callers can inspect siblings for
// dependency/sequence checks.
func FindSubtask(task *Task, subtaskID string) (*Subtask, *ExecutableTask, error) {
	if task == nil || task.NetworkPlan == nil {
		return nil, nil, MissingComponentError("task has no network plan")
	}
	for _, s := range task.NetworkPlan.Stages {
		for _, w := range s.WorkPackages {
			for _, et := range w.Tasks {
				for _, st := range et.Subtasks {
					if st.ID == subtaskID {
						return st, et, nil
					}
				}
			}
		}
	}
	return nil, nil, NotFoundError("subtask " + subtaskID)
}

// FindByRef resolves a hierarchical reference like "S1_W1_ET1_ST1" to
// whichever level it names, trying Subtask, ExecutableTask, Work and Stage
// in that order, one descent per level.
func FindByRef(task *Task, ref string) (any, error) {
	if st, _, err := FindSubtask(task, ref); err == nil {
		return st, nil
	}
	if et, err := FindExecutableTask(task, ref); err == nil {
		return et, nil
	}
	if w, err := FindWork(task, ref); err == nil {
		return w, nil
	}
	if s, err := FindStage(task, ref); err == nil {
		return s, nil
	}
	return nil, NotFoundError("reference " + ref)
}
