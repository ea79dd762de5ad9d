package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsonx "taskctl/internal/shared/json"
)

const (
	sessionHistoryFile = "session_history.txt"
	projectNotesFile   = "project_notes.md"
	currentStatusFile  = "current_status.json"
)

// AppendSessionHistory appends one (timestamp, session, user msg, agent
// reply) line to session_history.txt.
func (w *Workspace) AppendSessionHistory(sessionID, userMsg, agentReply string, now time.Time) error {
	line := fmt.Sprintf("[%s] session=%s\nuser: %s\nagent: %s\n\n",
		now.UTC().Format(time.RFC3339), sessionID, userMsg, agentReply)
	return w.appendFile(sessionHistoryFile, line)
}

// AppendNote appends a timestamped markdown section to project_notes.md.
func (w *Workspace) AppendNote(heading, body string, now time.Time) error {
	section := fmt.Sprintf("\n## %s — %s\n\n%s\n", now.UTC().Format(time.RFC3339), heading, body)
	return w.appendFile(projectNotesFile, section)
}

func (w *Workspace) appendFile(name, content string) error {
	path := filepath.Join(w.root, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("workspace: open %s: %w", name, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("workspace: append %s: %w", name, err)
	}
	return nil
}

// WriteStatus overwrites current_status.json.
func (w *Workspace) WriteStatus(status CurrentStatus) error {
	data, err := jsonx.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("workspace: encode status: %w", err)
	}
	data = append(data, '\n')
	if err := atomicWrite(filepath.Join(w.root, currentStatusFile), data, 0o644); err != nil {
		return fmt.Errorf("workspace: write status: %w", err)
	}
	return nil
}

// ReadStatus reads current_status.json, returning a zero value if it has
// never been written.
func (w *Workspace) ReadStatus() (CurrentStatus, error) {
	data, err := os.ReadFile(filepath.Join(w.root, currentStatusFile))
	if os.IsNotExist(err) {
		return CurrentStatus{}, nil
	}
	if err != nil {
		return CurrentStatus{}, fmt.Errorf("workspace: read status: %w", err)
	}
	var status CurrentStatus
	if err := jsonx.Unmarshal(data, &status); err != nil {
		return CurrentStatus{}, fmt.Errorf("workspace: decode status: %w", err)
	}
	return status, nil
}

// GeneratedFilesDir returns the agent-writable generated_files/ directory.
func (w *Workspace) GeneratedFilesDir() string {
	return filepath.Join(w.root, "generated_files")
}

// TempDir returns the scratch temp/ directory.
func (w *Workspace) TempDir() string {
	return filepath.Join(w.root, "temp")
}

func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
