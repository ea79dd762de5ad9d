// Package workspace implements a per-task sandboxed directory tree plus
// the path-resolution contract every filesystem tool relies on.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taskctl/internal/domain/plan"
)

// CurrentStatus is the structured contents of current_status.json.
type CurrentStatus struct {
	LastUpdated      time.Time         `json:"last_updated"`
	CurrentFocus     string            `json:"current_focus"`
	CompletedTasks   []string          `json:"completed_tasks"`
	NextActions      []string          `json:"next_actions"`
	FilesCreated     []string          `json:"files_created"`
	UserPreferences  map[string]string `json:"user_preferences"`
}

// Workspace wraps a single Task's sandboxed root directory. Every
// filesystem call a tool makes goes through Resolve, which performs the
// sandbox escape check below.
type Workspace struct {
	root string // absolute, symlink-resolved base directory for this task
}

// New creates (if missing) and returns the Workspace for taskProjectID
// rooted at allowedBaseDir/projects/task_<project_id>/.
func New(allowedBaseDir, projectID string) (*Workspace, error) {
	base, err := filepath.Abs(allowedBaseDir)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve allowed base dir: %w", err)
	}
	root := filepath.Join(base, "projects", "task_"+projectID)
	for _, dir := range []string{root, filepath.Join(root, "generated_files"), filepath.Join(root, "temp")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("workspace: create %s: %w", dir, err)
		}
	}
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root: %w", err)
	}
	return &Workspace{root: resolvedRoot}, nil
}

// Root returns the workspace's absolute root directory.
func (w *Workspace) Root() string { return w.root }

// Resolve implements the sandbox contract:
//
//	expanded = expand_user(requested)
//	absolute = allowed_base_dir / expanded
//	resolved = normalize_symlinks(absolute)
//	fail if resolved is not a descendant of allowed_base_dir
//
// A violation is reported as plan.SandboxViolationError, which callers
// must treat as fatal for the individual tool call.
func (w *Workspace) Resolve(requested string) (string, error) {
	expanded, err := expandUser(requested)
	if err != nil {
		return "", plan.SandboxViolationError("cannot expand path " + requested + ": " + err.Error())
	}

	var absolute string
	if filepath.IsAbs(expanded) {
		absolute = filepath.Clean(expanded)
	} else {
		absolute = filepath.Join(w.root, expanded)
	}

	resolved, err := resolveSymlinksBestEffort(absolute)
	if err != nil {
		return "", plan.SandboxViolationError("cannot resolve path " + requested + ": " + err.Error())
	}

	if !isDescendant(w.root, resolved) {
		return "", plan.SandboxViolationError(
			fmt.Sprintf("path %q escapes the workspace sandbox %q", requested, w.root))
	}
	return resolved, nil
}

func expandUser(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// resolveSymlinksBestEffort normalizes symlinks in path. Unlike
// filepath.EvalSymlinks it tolerates a path whose final component doesn't
// exist yet (the common case for write_file / create_directory), by
// resolving the deepest existing ancestor and re-joining the remainder.
func resolveSymlinksBestEffort(path string) (string, error) {
	clean := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(clean); err == nil {
		return resolved, nil
	}
	dir, base := filepath.Split(clean)
	dir = filepath.Clean(dir)
	if dir == clean {
		return clean, nil
	}
	resolvedDir, err := resolveSymlinksBestEffort(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}

func isDescendant(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}
