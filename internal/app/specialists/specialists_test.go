package specialists

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskctl/internal/app/toolregistry"
	"taskctl/internal/app/tracker"
	"taskctl/internal/app/workspace"
	"taskctl/internal/domain/llm"
)

// stubClient returns a fixed response regardless of the messages sent.
type stubClient struct {
	content string
	err     error
}

func (c *stubClient) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &llm.CompletionResponse{Content: c.content}, nil
}

func (c *stubClient) Model() string { return "stub-model" }

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	base := t.TempDir()
	ws, err := workspace.New(base, "proj-specialists")
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	return ws
}

func TestGeneralChat_EmitsModelResponseAsProse(t *testing.T) {
	client := &stubClient{content: "hello there"}
	tr := tracker.New("task1", "sess1")

	err := GeneralChat(client, nil).Handle(context.Background(), newTestWorkspace(t), "hi", tr)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	ev := <-tr.Stream()
	if ev.Type != tracker.StreamProseChunk || ev.Text != "hello there" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestGeneralChat_PropagatesClientError(t *testing.T) {
	client := &stubClient{err: fmt.Errorf("boom")}
	tr := tracker.New("task1", "sess1")

	err := GeneralChat(client, nil).Handle(context.Background(), newTestWorkspace(t), "hi", tr)
	if err == nil {
		t.Fatal("expected error from failing client")
	}
}

func TestCodeDevelopment_InvokesNamedTool(t *testing.T) {
	ws := newTestWorkspace(t)
	if err := os.WriteFile(filepath.Join(ws.Root(), "notes.txt"), []byte("line one"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	client := &stubClient{content: `{"tool":"read_file","arguments":{"path":"notes.txt"}}`}
	registry := func(ws *workspace.Workspace) *toolregistry.Registry {
		return toolregistry.New(ws, nil, nil, nil)
	}
	tr := tracker.New("task1", "sess1")

	err := CodeDevelopment(client, registry, nil).Handle(context.Background(), ws, "read notes.txt", tr)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	ev := <-tr.Stream()
	if ev.Type != tracker.StreamProseChunk || !strings.Contains(ev.Text, "line one") {
		t.Fatalf("expected tool output in prose, got: %+v", ev)
	}
}

func TestCodeDevelopment_FallsBackToPlainAnswerWithoutToolDecision(t *testing.T) {
	client := &stubClient{content: "just a plain answer, no JSON here"}
	registry := func(ws *workspace.Workspace) *toolregistry.Registry {
		return toolregistry.New(ws, nil, nil, nil)
	}
	tr := tracker.New("task1", "sess1")

	err := CodeDevelopment(client, registry, nil).Handle(context.Background(), newTestWorkspace(t), "what is 2+2", tr)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	ev := <-tr.Stream()
	if ev.Type != tracker.StreamProseChunk || ev.Text != "just a plain answer, no JSON here" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
