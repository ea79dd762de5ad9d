package toolregistry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"taskctl/internal/app/workspace"
	"taskctl/internal/shared/logging"
)

// editPair is one {old_text, new_text} replacement.
type editPair struct {
	OldText string `json:"old_text"`
	NewText string `json:"new_text"`
}

// editFileTool applies an ordered list of exact-match replacements
// against a file's live buffer and always returns a unified diff.
type editFileTool struct {
	ws     *workspace.Workspace
	logger logging.Logger
}

func (t editFileTool) Definition() Definition {
	return Definition{Name: "edit_file", Description: "Applies an ordered list of exact old_text→new_text replacements to a file and returns a unified diff."}
}
func (t editFileTool) Metadata() Metadata {
	return Metadata{Name: "edit_file", Category: "filesystem", Dangerous: true}
}

func (t editFileTool) Execute(_ context.Context, call Call) (*Result, error) {
	path, _ := stringArg(call, "path")
	dryRun := boolArg(call, "dry_run")
	edits := parseEditPairs(call.Arguments["edits"])

	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return errResult(call.ID, err), nil
	}
	original, err := os.ReadFile(resolved)
	if err != nil {
		return errResult(call.ID, fmt.Errorf("edit_file: %w", err)), nil
	}

	buffer := string(original)
	var skipped []string
	for _, edit := range edits {
		if edit.OldText == "" {
			continue
		}
		idx := strings.Index(buffer, edit.OldText)
		if idx < 0 {
			skipped = append(skipped, edit.OldText)
			t.logger.Warn("edit_file: old_text not found, skipping edit: %q", truncateForLog(edit.OldText))
			continue
		}
		buffer = buffer[:idx] + edit.NewText + buffer[idx+len(edit.OldText):]
	}

	diff := unifiedDiff(string(original), buffer, path)

	if !dryRun && buffer != string(original) {
		if err := os.WriteFile(resolved, []byte(buffer), 0o644); err != nil {
			return errResult(call.ID, fmt.Errorf("edit_file: write: %w", err)), nil
		}
	}

	meta := map[string]any{"dry_run": dryRun, "skipped_edits": len(skipped)}
	return &Result{CallID: call.ID, Content: diff, Metadata: meta}, nil
}

func parseEditPairs(raw any) []editPair {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]editPair, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		old, _ := m["old_text"].(string)
		new, _ := m["new_text"].(string)
		out = append(out, editPair{OldText: old, NewText: new})
	}
	return out
}

func truncateForLog(s string) string {
	if len(s) <= 60 {
		return s
	}
	return s[:60] + "..."
}

// unifiedDiff diffs oldContent against newContent, cleans the diff up
// semantically, then renders it as unified-diff text.
func unifiedDiff(oldContent, newContent, filename string) string {
	if oldContent == newContent {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldContent, newContent, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	patches := dmp.PatchMake(oldContent, diffs)
	patchText := dmp.PatchToText(patches)
	return fmt.Sprintf("--- a/%s\n+++ b/%s\n%s", filename, filename, patchText)
}
