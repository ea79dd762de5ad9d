package toolregistry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"taskctl/internal/app/workspace"
	jsonx "taskctl/internal/shared/json"
	"taskctl/internal/shared/logging"
)

// filesystemTools builds the sandboxed filesystem operation set, every
// one of which resolves its path arguments through ws.Resolve before
// touching the filesystem.
func filesystemTools(ws *workspace.Workspace, logger logging.Logger) []Executor {
	return []Executor{
		listAllowedDirectoryTool{ws: ws},
		readFileTool{ws: ws},
		readMultipleFilesTool{ws: ws},
		writeFileTool{ws: ws},
		editFileTool{ws: ws, logger: logger},
		createDirectoryTool{ws: ws},
		listDirectoryTool{ws: ws},
		directoryTreeTool{ws: ws},
		moveFileTool{ws: ws},
		searchFilesTool{ws: ws},
		getFileInfoTool{ws: ws},
	}
}

func stringArg(call Call, name string) (string, bool) {
	v, ok := call.Arguments[name].(string)
	return v, ok
}

func boolArg(call Call, name string) bool {
	v, _ := call.Arguments[name].(bool)
	return v
}

func errResult(callID string, err error) *Result {
	return &Result{CallID: callID, Content: "Error: " + err.Error(), Error: err}
}

// --- list_allowed_directory ---

type listAllowedDirectoryTool struct{ ws *workspace.Workspace }

func (t listAllowedDirectoryTool) Definition() Definition {
	return Definition{Name: "list_allowed_directory", Description: "Returns the single directory this task's tools may read and write."}
}
func (t listAllowedDirectoryTool) Metadata() Metadata {
	return Metadata{Name: "list_allowed_directory", Category: "filesystem"}
}
func (t listAllowedDirectoryTool) Execute(_ context.Context, call Call) (*Result, error) {
	return &Result{CallID: call.ID, Content: t.ws.Root()}, nil
}

// --- read_file ---

type readFileTool struct{ ws *workspace.Workspace }

func (t readFileTool) Definition() Definition {
	return Definition{Name: "read_file", Description: "Reads a file's full contents within the workspace sandbox."}
}
func (t readFileTool) Metadata() Metadata { return Metadata{Name: "read_file", Category: "filesystem"} }
func (t readFileTool) Execute(_ context.Context, call Call) (*Result, error) {
	path, ok := stringArg(call, "path")
	if !ok {
		return errResult(call.ID, fmt.Errorf("read_file: missing path argument")), nil
	}
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return errResult(call.ID, err), nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return errResult(call.ID, fmt.Errorf("read_file: %w", err)), nil
	}
	return &Result{CallID: call.ID, Content: string(data)}, nil
}

// --- read_multiple_files ---

type readMultipleFilesTool struct{ ws *workspace.Workspace }

func (t readMultipleFilesTool) Definition() Definition {
	return Definition{Name: "read_multiple_files", Description: "Reads several files at once; a single unreadable path does not fail the others."}
}
func (t readMultipleFilesTool) Metadata() Metadata {
	return Metadata{Name: "read_multiple_files", Category: "filesystem"}
}
func (t readMultipleFilesTool) Execute(_ context.Context, call Call) (*Result, error) {
	raw, _ := call.Arguments["paths"].([]any)
	var out strings.Builder
	for _, p := range raw {
		path, _ := p.(string)
		resolved, err := t.ws.Resolve(path)
		if err != nil {
			fmt.Fprintf(&out, "%s: Error: %v\n---\n", path, err)
			continue
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			fmt.Fprintf(&out, "%s: Error: %v\n---\n", path, err)
			continue
		}
		fmt.Fprintf(&out, "%s:\n%s\n---\n", path, string(data))
	}
	return &Result{CallID: call.ID, Content: out.String()}, nil
}

// --- write_file ---

type writeFileTool struct{ ws *workspace.Workspace }

func (t writeFileTool) Definition() Definition {
	return Definition{Name: "write_file", Description: "Writes (creating or overwriting) a file within the workspace sandbox."}
}
func (t writeFileTool) Metadata() Metadata {
	return Metadata{Name: "write_file", Category: "filesystem", Dangerous: true}
}
func (t writeFileTool) Execute(_ context.Context, call Call) (*Result, error) {
	path, _ := stringArg(call, "path")
	content, _ := stringArg(call, "content")
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return errResult(call.ID, err), nil
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return errResult(call.ID, fmt.Errorf("write_file: %w", err)), nil
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return errResult(call.ID, fmt.Errorf("write_file: %w", err)), nil
	}
	return &Result{CallID: call.ID, Content: "wrote " + path, Metadata: map[string]any{"bytes": len(content)}}, nil
}

// --- create_directory ---

type createDirectoryTool struct{ ws *workspace.Workspace }

func (t createDirectoryTool) Definition() Definition {
	return Definition{Name: "create_directory", Description: "Creates a directory (and parents) within the workspace sandbox."}
}
func (t createDirectoryTool) Metadata() Metadata {
	return Metadata{Name: "create_directory", Category: "filesystem"}
}
func (t createDirectoryTool) Execute(_ context.Context, call Call) (*Result, error) {
	path, _ := stringArg(call, "path")
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return errResult(call.ID, err), nil
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return errResult(call.ID, fmt.Errorf("create_directory: %w", err)), nil
	}
	return &Result{CallID: call.ID, Content: "created " + path}, nil
}

// --- list_directory ---

type listDirectoryTool struct{ ws *workspace.Workspace }

func (t listDirectoryTool) Definition() Definition {
	return Definition{Name: "list_directory", Description: "Lists one directory's immediate entries, [FILE]/[DIR] prefixed."}
}
func (t listDirectoryTool) Metadata() Metadata {
	return Metadata{Name: "list_directory", Category: "filesystem"}
}
func (t listDirectoryTool) Execute(_ context.Context, call Call) (*Result, error) {
	path, _ := stringArg(call, "path")
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return errResult(call.ID, err), nil
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return errResult(call.ID, fmt.Errorf("list_directory: %w", err)), nil
	}
	var out strings.Builder
	for _, e := range entries {
		if e.IsDir() {
			fmt.Fprintf(&out, "[DIR]  %s\n", e.Name())
		} else {
			fmt.Fprintf(&out, "[FILE] %s\n", e.Name())
		}
	}
	return &Result{CallID: call.ID, Content: out.String()}, nil
}

// --- directory_tree ---

type directoryTreeTool struct{ ws *workspace.Workspace }

func (t directoryTreeTool) Definition() Definition {
	return Definition{Name: "directory_tree", Description: "Returns a recursive JSON tree of a directory's contents."}
}
func (t directoryTreeTool) Metadata() Metadata {
	return Metadata{Name: "directory_tree", Category: "filesystem"}
}

type treeNode struct {
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Children []treeNode `json:"children,omitempty"`
}

func (t directoryTreeTool) Execute(_ context.Context, call Call) (*Result, error) {
	path, _ := stringArg(call, "path")
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return errResult(call.ID, err), nil
	}
	node, err := buildTree(resolved)
	if err != nil {
		return errResult(call.ID, fmt.Errorf("directory_tree: %w", err)), nil
	}
	data, err := jsonx.MarshalIndent(node.Children, "", "  ")
	if err != nil {
		return errResult(call.ID, err), nil
	}
	return &Result{CallID: call.ID, Content: string(data)}, nil
}

func buildTree(path string) (treeNode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return treeNode{}, err
	}
	node := treeNode{Name: info.Name()}
	if !info.IsDir() {
		node.Type = "file"
		return node, nil
	}
	node.Type = "directory"
	entries, err := os.ReadDir(path)
	if err != nil {
		return treeNode{}, err
	}
	for _, e := range entries {
		child, err := buildTree(filepath.Join(path, e.Name()))
		if err != nil {
			continue
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// --- move_file ---

type moveFileTool struct{ ws *workspace.Workspace }

func (t moveFileTool) Definition() Definition {
	return Definition{Name: "move_file", Description: "Moves or renames a file within the workspace sandbox; fails if the destination exists."}
}
func (t moveFileTool) Metadata() Metadata {
	return Metadata{Name: "move_file", Category: "filesystem", Dangerous: true}
}
func (t moveFileTool) Execute(_ context.Context, call Call) (*Result, error) {
	source, _ := stringArg(call, "source")
	destination, _ := stringArg(call, "destination")
	resolvedSrc, err := t.ws.Resolve(source)
	if err != nil {
		return errResult(call.ID, err), nil
	}
	resolvedDst, err := t.ws.Resolve(destination)
	if err != nil {
		return errResult(call.ID, err), nil
	}
	if _, err := os.Stat(resolvedDst); err == nil {
		return errResult(call.ID, fmt.Errorf("move_file: destination %s already exists", destination)), nil
	}
	if err := os.MkdirAll(filepath.Dir(resolvedDst), 0o755); err != nil {
		return errResult(call.ID, fmt.Errorf("move_file: %w", err)), nil
	}
	if err := os.Rename(resolvedSrc, resolvedDst); err != nil {
		return errResult(call.ID, fmt.Errorf("move_file: %w", err)), nil
	}
	return &Result{CallID: call.ID, Content: fmt.Sprintf("moved %s to %s", source, destination)}, nil
}

// --- search_files ---

type searchFilesTool struct{ ws *workspace.Workspace }

func (t searchFilesTool) Definition() Definition {
	return Definition{Name: "search_files", Description: "Recursively finds files under path whose name matches a glob pattern."}
}
func (t searchFilesTool) Metadata() Metadata {
	return Metadata{Name: "search_files", Category: "filesystem"}
}
func (t searchFilesTool) Execute(_ context.Context, call Call) (*Result, error) {
	path, _ := stringArg(call, "path")
	pattern, _ := stringArg(call, "glob")
	caseSensitive := boolArg(call, "case_sensitive")
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return errResult(call.ID, err), nil
	}
	matchPattern := pattern
	if !caseSensitive {
		matchPattern = strings.ToLower(pattern)
	}
	var matches []string
	err = filepath.Walk(resolved, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		name := info.Name()
		if !caseSensitive {
			name = strings.ToLower(name)
		}
		if ok, _ := filepath.Match(matchPattern, name); ok {
			rel, relErr := filepath.Rel(resolved, p)
			if relErr == nil {
				matches = append(matches, rel)
			}
		}
		return nil
	})
	if err != nil {
		return errResult(call.ID, fmt.Errorf("search_files: %w", err)), nil
	}
	sort.Strings(matches)
	return &Result{CallID: call.ID, Content: strings.Join(matches, "\n")}, nil
}

// --- get_file_info ---

type getFileInfoTool struct{ ws *workspace.Workspace }

func (t getFileInfoTool) Definition() Definition {
	return Definition{Name: "get_file_info", Description: "Returns size, type, and modification time for a path."}
}
func (t getFileInfoTool) Metadata() Metadata {
	return Metadata{Name: "get_file_info", Category: "filesystem"}
}
func (t getFileInfoTool) Execute(_ context.Context, call Call) (*Result, error) {
	path, _ := stringArg(call, "path")
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return errResult(call.ID, err), nil
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return errResult(call.ID, fmt.Errorf("get_file_info: %w", err)), nil
	}
	kind := "file"
	if info.IsDir() {
		kind = "directory"
	}
	data, _ := jsonx.MarshalIndent(map[string]any{
		"type":     kind,
		"size":     info.Size(),
		"modified": info.ModTime().UTC().Format(time.RFC3339),
	}, "", "  ")
	return &Result{CallID: call.ID, Content: string(data)}, nil
}
