package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskctl/internal/domain/plan"
)

func TestCreateProject_FailsIfExists(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	_, err := s.CreateProject(ctx, "proj1", "build a dashboard")
	require.NoError(t, err)

	_, err = s.CreateProject(ctx, "proj1", "build a dashboard")
	require.Error(t, err)
	assert.Equal(t, plan.KindValidation, plan.KindOf(err))
}

func TestSaveLoadTask_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	_, err := s.CreateProject(ctx, "proj1", "build a dashboard")
	require.NoError(t, err)

	task := plan.NewTask("T1", "proj1", "build a dashboard", time.Now())
	task.State = plan.StatusContextGathering
	require.NoError(t, s.SaveTask(ctx, "proj1", task))

	loaded, err := s.LoadTask(ctx, "proj1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, task.ID, loaded.ID)
	assert.Equal(t, task.State, loaded.State)
	assert.Equal(t, task.ProjectID, loaded.ProjectID)
}

func TestLoadTask_MissingReturnsNilNoError(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	_, err := s.CreateProject(ctx, "proj1", "q")
	require.NoError(t, err)

	task, err := s.LoadTask(ctx, "proj1")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestListProjects_SortedByCreatedAtDescending(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	s.now = func() time.Time { return time.Unix(1000, 0) }
	_, err := s.CreateProject(ctx, "older", "q1")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Unix(2000, 0) }
	_, err = s.CreateProject(ctx, "newer", "q2")
	require.NoError(t, err)

	list, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ID)
	assert.Equal(t, "older", list[1].ID)
}

func TestDeleteProject(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	_, err := s.CreateProject(ctx, "proj1", "q")
	require.NoError(t, err)

	ok, err := s.DeleteProject(ctx, "proj1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteProject(ctx, "proj1")
	require.NoError(t, err)
	assert.False(t, ok, "deleting a non-existent project reports false, not an error")
}

func TestSaveStage(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	_, err := s.CreateProject(ctx, "proj1", "q")
	require.NoError(t, err)

	stage := &plan.Stage{Node: plan.Node{ID: "S1"}}
	require.NoError(t, s.SaveStage(ctx, "proj1", stage))
}
