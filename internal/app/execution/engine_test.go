package execution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskctl/internal/app/tracker"
	"taskctl/internal/domain/plan"
	"taskctl/internal/infra/store"
)

func seedTask(t *testing.T, s *store.Store, projectID string) *plan.Task {
	t.Helper()
	ctx := context.Background()
	_, err := s.CreateProject(ctx, projectID, "q")
	require.NoError(t, err)

	now := time.Now()
	subtask := &plan.Subtask{Node: plan.Node{ID: "S1_W1_ET1_ST1", Name: "write readme", Description: "create the readme file", CreatedAt: now, UpdatedAt: now}, Status: plan.SubtaskPending}
	et := &plan.ExecutableTask{
		Node:               plan.Node{ID: "S1_W1_ET1", Name: "documentation", CreatedAt: now, UpdatedAt: now},
		ValidationCriteria: []string{"file exists"},
		GeneratedArtifacts: []plan.Artifact{{Name: "readme", Type: "document", Location: "README.md"}},
		Subtasks:           []*plan.Subtask{subtask},
	}
	work := &plan.Work{Node: plan.Node{ID: "S1_W1", Name: "docs work", CreatedAt: now, UpdatedAt: now}, Tasks: []*plan.ExecutableTask{et}}
	stage := &plan.Stage{Node: plan.Node{ID: "S1", Name: "stage one", CreatedAt: now, UpdatedAt: now}, WorkPackages: []*plan.Work{work}}

	task := plan.NewTask("T1", projectID, "q", now)
	task.NetworkPlan = &plan.NetworkPlan{Stages: []*plan.Stage{stage}}
	require.NoError(t, s.SaveTask(ctx, projectID, task))
	return task
}

func TestExecuteTask_FileOperationExecutorCreatesFileAndCompletes(t *testing.T) {
	s := store.New(t.TempDir())
	seedTask(t, s, "proj1")
	workspacePath := t.TempDir()

	e := New(s, nil)
	tr := tracker.New("T1", "sess1")
	go func() {
		fr, err := e.ExecuteTask(context.Background(), "proj1", "S1_W1_ET1_ST1", workspacePath, tr)
		require.NoError(t, err)
		assert.Equal(t, plan.SubtaskCompleted, fr.Status)
		assert.Equal(t, "file_operation", fr.ExecutorUsed)
		assert.True(t, fr.AllPassed)
		tr.Close()
	}()
	for range tr.Stream() {
	}

	task, err := s.LoadTask(context.Background(), "proj1")
	require.NoError(t, err)
	st, _, err := plan.FindSubtask(task, "S1_W1_ET1_ST1")
	require.NoError(t, err)
	assert.Equal(t, plan.SubtaskCompleted, st.Status)
}

func TestExecuteTask_SyntheticDetailsForUnknownRef(t *testing.T) {
	s := store.New(t.TempDir())
	seedTask(t, s, "proj1")
	e := New(s, nil)
	tr := tracker.New("T1", "sess1")
	go func() {
		fr, err := e.ExecuteTask(context.Background(), "proj1", "S9_W9_ET9_ST9", t.TempDir(), tr)
		require.NoError(t, err)
		assert.Equal(t, plan.SubtaskFailed, fr.Status)
		tr.Close()
	}()
	for range tr.Stream() {
	}
}

func TestCheckDependencies_SubtaskBlockedByEarlierSibling(t *testing.T) {
	now := time.Now()
	et := &plan.ExecutableTask{
		Node: plan.Node{ID: "S1_W1_ET1"},
		Subtasks: []*plan.Subtask{
			{Node: plan.Node{ID: "S1_W1_ET1_ST1"}, SequenceOrder: 0, Status: plan.SubtaskPending},
			{Node: plan.Node{ID: "S1_W1_ET1_ST2"}, SequenceOrder: 1, Status: plan.SubtaskPending},
		},
	}
	work := &plan.Work{Node: plan.Node{ID: "S1_W1"}, Tasks: []*plan.ExecutableTask{et}}
	stage := &plan.Stage{Node: plan.Node{ID: "S1"}, WorkPackages: []*plan.Work{work}}
	task := plan.NewTask("T1", "p1", "q", now)
	task.NetworkPlan = &plan.NetworkPlan{Stages: []*plan.Stage{stage}}

	blocked, blockers, err := CheckDependencies(task, "S1_W1_ET1_ST2")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, []string{"S1_W1_ET1_ST1"}, blockers)
}

func TestSuggestValidationWorkflow_RequiresAllSubtasksCompleted(t *testing.T) {
	now := time.Now()
	et := &plan.ExecutableTask{
		Node:               plan.Node{ID: "S1_W1_ET1", Name: "docs"},
		ValidationCriteria: []string{"file exists"},
		Subtasks: []*plan.Subtask{
			{Node: plan.Node{ID: "S1_W1_ET1_ST1"}, Status: plan.SubtaskPending},
		},
	}
	work := &plan.Work{Node: plan.Node{ID: "S1_W1"}, Tasks: []*plan.ExecutableTask{et}}
	stage := &plan.Stage{Node: plan.Node{ID: "S1"}, WorkPackages: []*plan.Work{work}}
	task := plan.NewTask("T1", "p1", "q", now)
	task.NetworkPlan = &plan.NetworkPlan{Stages: []*plan.Stage{stage}}

	_, err := SuggestValidationWorkflow(task, "S1_W1_ET1")
	require.Error(t, err, "not all subtasks are completed yet")

	et.Subtasks[0].Status = plan.SubtaskCompleted
	checklist, err := SuggestValidationWorkflow(task, "S1_W1_ET1")
	require.NoError(t, err)
	assert.NotEmpty(t, checklist)
}
