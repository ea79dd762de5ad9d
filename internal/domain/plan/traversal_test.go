package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTask() *Task {
	now := time.Now()
	task := NewTask("T1", "proj1", "build a dashboard", now)
	st := &Subtask{Node: Node{ID: "S1_W1_ET1_ST1"}, SequenceOrder: 0, Status: SubtaskPending}
	et := &ExecutableTask{Node: Node{ID: "S1_W1_ET1"}, SequenceOrder: 0, Subtasks: []*Subtask{st}}
	w := &Work{Node: Node{ID: "S1_W1"}, SequenceOrder: 0, Tasks: []*ExecutableTask{et}}
	s := &Stage{Node: Node{ID: "S1"}, SequenceOrder: 0, WorkPackages: []*Work{w}}
	task.NetworkPlan = &NetworkPlan{Stages: []*Stage{s}}
	return task
}

func TestFindStage(t *testing.T) {
	task := sampleTask()
	s, err := FindStage(task, "S1")
	require.NoError(t, err)
	assert.Equal(t, "S1", s.ID)

	_, err = FindStage(task, "S2")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestFindSubtask(t *testing.T) {
	task := sampleTask()
	st, et, err := FindSubtask(task, "S1_W1_ET1_ST1")
	require.NoError(t, err)
	assert.Equal(t, "S1_W1_ET1_ST1", st.ID)
	assert.Equal(t, "S1_W1_ET1", et.ID)
}

func TestFindByRef_AllLevels(t *testing.T) {
	task := sampleTask()

	found, err := FindByRef(task, "S1_W1_ET1_ST1")
	require.NoError(t, err)
	_, ok := found.(*Subtask)
	assert.True(t, ok)

	found, err = FindByRef(task, "S1_W1_ET1")
	require.NoError(t, err)
	_, ok = found.(*ExecutableTask)
	assert.True(t, ok)

	found, err = FindByRef(task, "S1")
	require.NoError(t, err)
	_, ok = found.(*Stage)
	assert.True(t, ok)
}

func TestFindByRef_Missing(t *testing.T) {
	task := sampleTask()
	_, err := FindByRef(task, "S9_W9_ET9_ST9")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpdaters_LifecycleClearsStaleFields(t *testing.T) {
	now := time.Now()
	st := &Subtask{Node: Node{ID: "S1_W1_ET1_ST1"}}

	StartSubtask(st, now)
	assert.Equal(t, SubtaskInProgress, st.Status)
	require.NotNil(t, st.StartedAt)
	assert.Nil(t, st.CompletedAt)

	FailSubtask(st, "boom", now.Add(time.Second))
	assert.Equal(t, SubtaskFailed, st.Status)
	assert.Equal(t, "boom", st.ErrorMessage)
	require.NotNil(t, st.CompletedAt)

	StartSubtask(st, now.Add(2*time.Second))
	assert.Empty(t, st.ErrorMessage, "restart clears prior failure")
	assert.Nil(t, st.CompletedAt, "restart clears prior completion")

	CompleteSubtask(st, "done", now.Add(3*time.Second))
	assert.Equal(t, SubtaskCompleted, st.Status)
	assert.Empty(t, st.ErrorMessage, "completion clears prior error")
	require.NotNil(t, st.StartedAt)
	require.NotNil(t, st.CompletedAt)
	assert.True(t, !st.CompletedAt.Before(*st.StartedAt))
}
