package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDirectoryTree(t *testing.T) {
	base := t.TempDir()
	w, err := New(base, "proj1")
	require.NoError(t, err)

	for _, dir := range []string{"", "generated_files", "temp"} {
		_, err := os.Stat(filepath.Join(w.Root(), dir))
		require.NoError(t, err)
	}
}

func TestResolve_StaysWithinSandbox(t *testing.T) {
	base := t.TempDir()
	w, err := New(base, "proj1")
	require.NoError(t, err)

	resolved, err := w.Resolve("notes/a.txt")
	require.NoError(t, err)
	rel, err := filepath.Rel(w.Root(), resolved)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(rel))
	assert.NotContains(t, rel, "..")
}

func TestResolve_RejectsTraversal(t *testing.T) {
	base := t.TempDir()
	w, err := New(base, "proj1")
	require.NoError(t, err)

	_, err = w.Resolve("../../etc/passwd")
	require.Error(t, err, "escaping the sandbox must fail")
}

func TestResolve_RejectsSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	w, err := New(base, "proj1")
	require.NoError(t, err)

	outside := t.TempDir()
	link := filepath.Join(w.Root(), "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	_, err = w.Resolve(filepath.Join("escape", "secret.txt"))
	require.Error(t, err, "a symlink pointing outside the sandbox must be rejected")
}

func TestAppendSessionHistoryAndNotes(t *testing.T) {
	w, err := New(t.TempDir(), "proj1")
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, w.AppendSessionHistory("sess1", "hello", "hi there", now))
	require.NoError(t, w.AppendNote("kickoff", "started planning", now))

	data, err := os.ReadFile(filepath.Join(w.Root(), sessionHistoryFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")

	data, err = os.ReadFile(filepath.Join(w.Root(), projectNotesFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "started planning")
}

func TestWriteReadStatus_RoundTrip(t *testing.T) {
	w, err := New(t.TempDir(), "proj1")
	require.NoError(t, err)

	status := CurrentStatus{
		LastUpdated:  time.Now(),
		CurrentFocus: "network plan",
		NextActions:  []string{"generate work packages"},
	}
	require.NoError(t, w.WriteStatus(status))

	loaded, err := w.ReadStatus()
	require.NoError(t, err)
	assert.Equal(t, status.CurrentFocus, loaded.CurrentFocus)
	assert.Equal(t, status.NextActions, loaded.NextActions)
}

func TestReadStatus_MissingReturnsZeroValue(t *testing.T) {
	w, err := New(t.TempDir(), "proj1")
	require.NoError(t, err)
	status, err := w.ReadStatus()
	require.NoError(t, err)
	assert.Empty(t, status.CurrentFocus)
}
