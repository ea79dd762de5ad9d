package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskctl/internal/app/tracker"
	"taskctl/internal/app/workspace"
)

func testWorkspaces(t *testing.T) func(string) (*workspace.Workspace, error) {
	t.Helper()
	base := t.TempDir()
	return func(projectID string) (*workspace.Workspace, error) {
		return workspace.New(base, projectID)
	}
}

func TestDispatch_RoutesToMatchingSpecialist(t *testing.T) {
	var handled string
	code := SpecialistFunc(func(_ context.Context, _ *workspace.Workspace, message string, tr *tracker.Tracker) error {
		handled = message
		tr.EmitProse("fixed it")
		return nil
	})
	generalChat := SpecialistFunc(func(context.Context, *workspace.Workspace, string, *tracker.Tracker) error {
		t.Fatal("general chat should not be invoked")
		return nil
	})

	d := NewDispatcher(map[Category]Specialist{CategoryCodeDevelopment: code}, generalChat, testWorkspaces(t))
	tr := tracker.New("task1", "sess1")
	go func() {
		d.Dispatch(context.Background(), "proj1", "please fix this bug", tr)
		tr.Close()
	}()

	var events []tracker.StreamEvent
	for ev := range tr.Stream() {
		events = append(events, ev)
	}
	require.NotEmpty(t, events)
	assert.Contains(t, handled, "please fix this bug")
	assert.Equal(t, 1, len(tr.Transfers()))
	assert.Equal(t, "CODE_DEVELOPMENT", tr.Transfers()[0].To)
}

func TestDispatch_FallsBackToGeneralChatOnSpecialistError(t *testing.T) {
	code := SpecialistFunc(func(context.Context, *workspace.Workspace, string, *tracker.Tracker) error {
		return errors.New("boom")
	})
	var fellBack bool
	generalChat := SpecialistFunc(func(_ context.Context, _ *workspace.Workspace, _ string, tr *tracker.Tracker) error {
		fellBack = true
		tr.EmitProse("general chat reply")
		return nil
	})

	d := NewDispatcher(map[Category]Specialist{CategoryCodeDevelopment: code}, generalChat, testWorkspaces(t))
	tr := tracker.New("task1", "sess1")
	go func() {
		d.Dispatch(context.Background(), "proj1", "please fix this bug", tr)
		tr.Close()
	}()
	for range tr.Stream() {
	}

	assert.True(t, fellBack)
	transfers := tr.Transfers()
	require.Len(t, transfers, 2)
	assert.Equal(t, "fallback", transfers[1].Reason)
}
