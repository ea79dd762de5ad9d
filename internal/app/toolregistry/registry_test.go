package toolregistry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskctl/internal/app/workspace"
	"taskctl/internal/domain/plan"
)

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.New(t.TempDir(), "proj1")
	require.NoError(t, err)
	return ws
}

func TestRegistry_RegisteredStaticToolsCoverFilesystemOperations(t *testing.T) {
	r := New(newTestWorkspace(t), nil, nil, nil)
	names := map[string]bool{}
	for _, def := range r.List() {
		names[def.Name] = true
	}
	for _, want := range []string{
		"list_allowed_directory", "read_file", "read_multiple_files", "write_file",
		"edit_file", "create_directory", "list_directory", "directory_tree",
		"move_file", "search_files", "get_file_info",
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestRegistry_RegisterRejectsShadowingStaticTool(t *testing.T) {
	r := New(newTestWorkspace(t), nil, nil, nil)
	err := r.Register(fakeTool{name: "read_file"})
	require.Error(t, err)
}

func TestRegistry_WriteThenReadFileRoundTrips(t *testing.T) {
	ws := newTestWorkspace(t)
	r := New(ws, nil, nil, nil)
	ctx := context.Background()

	_, err := r.Invoke(ctx, Call{ID: "1", Name: "write_file", Arguments: map[string]any{"path": "notes.txt", "content": "hello"}})
	require.NoError(t, err)

	res, err := r.Invoke(ctx, Call{ID: "2", Name: "read_file", Arguments: map[string]any{"path": "notes.txt"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Content)
}

func TestRegistry_SandboxViolationIsReportedNotPanicked(t *testing.T) {
	ws := newTestWorkspace(t)
	r := New(ws, nil, nil, nil)
	res, err := r.Invoke(context.Background(), Call{ID: "1", Name: "read_file", Arguments: map[string]any{"path": "../../etc/passwd"}})
	require.NoError(t, err)
	require.Error(t, res.Error)
	var perr *plan.Error
	require.ErrorAs(t, res.Error, &perr)
	assert.Equal(t, plan.KindSandboxViolation, perr.Kind)
}

func TestRegistry_DangerousToolRequiresApproval(t *testing.T) {
	ws := newTestWorkspace(t)
	r := New(ws, rejectingApprover{}, nil, nil)
	res, err := r.Invoke(context.Background(), Call{ID: "1", Name: "write_file", Arguments: map[string]any{"path": "a.txt", "content": "x"}})
	require.NoError(t, err)
	require.Error(t, res.Error)
	_, statErr := os.Stat(filepath.Join(ws.Root(), "a.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

type fakeTool struct{ name string }

func (f fakeTool) Definition() Definition { return Definition{Name: f.name} }
func (f fakeTool) Metadata() Metadata     { return Metadata{Name: f.name} }
func (f fakeTool) Execute(context.Context, Call) (*Result, error) {
	return &Result{Content: "ok"}, nil
}

type rejectingApprover struct{}

func (rejectingApprover) Approve(context.Context, Call, Metadata) (bool, error) { return false, nil }
