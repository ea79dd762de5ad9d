package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskctl/internal/app/execution"
	"taskctl/internal/app/planning"
	"taskctl/internal/app/router"
	"taskctl/internal/app/tracker"
	"taskctl/internal/app/workspace"
	"taskctl/internal/infra/store"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	baseDir := t.TempDir()
	s := store.New(baseDir)

	specialists := map[router.Category]router.Specialist{}
	generalChat := router.SpecialistFunc(func(_ context.Context, _ *workspace.Workspace, message string, tr *tracker.Tracker) error {
		tr.EmitProse("echo: " + message)
		return nil
	})
	workspaces := func(projectID string) (*workspace.Workspace, error) {
		return workspace.New(baseDir, projectID)
	}

	deps := Deps{
		Store:      s,
		Pipeline:   planning.New(nil, s, nil),
		Engine:     execution.New(s, nil),
		Dispatcher: router.NewDispatcher(specialists, generalChat, workspaces),
		Trackers:   tracker.NewRegistry(64),
		Workspaces: workspaces,
	}
	return New(deps), baseDir
}

func TestServer_UserQueryLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/user-queries", strings.NewReader(`{"query":"build a thing"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["id"].(string)
	assert.Equal(t, "pending", created["status"])

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user-queries", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user-queries/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/user-queries/"+id, nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user-queries/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_GetUserQueryMissingReturns404(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user-queries/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestServer_Chat_RunsDispatcherAndReturnsAggregatedMessage(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/tasks/proj1/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "echo: hello")
	assert.NotEmpty(t, resp.SessionID)
}

func TestServer_SubtaskStatus_TaskWithoutPlanReturns400(t *testing.T) {
	srv, baseDir := newTestServer(t)
	h := srv.Handler()
	_ = baseDir

	req := httptest.NewRequest(http.MethodPost, "/user-queries", strings.NewReader(`{"query":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["id"].(string)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/"+id+"/subtasks/unknown-ref/status", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
