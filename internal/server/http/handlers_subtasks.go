package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskctl/internal/domain/plan"
)

type subtaskStatusRequest struct {
	Status       plan.SubtaskStatus `json:"status"`
	Result       string             `json:"result"`
	ErrorMessage string             `json:"error_message"`
	StartedAt    *time.Time         `json:"started_at"`
	CompletedAt  *time.Time         `json:"completed_at"`
}

func (s *Server) loadSubtask(c *gin.Context) (*plan.Task, *plan.Subtask, bool) {
	task, err := s.deps.Store.LoadTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	if task == nil {
		respondError(c, plan.NotFoundError("task for project "+c.Param("id")))
		return nil, nil, false
	}
	st, _, err := plan.FindSubtask(task, c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	return task, st, true
}

// putSubtaskStatus handles PUT /tasks/{id}/subtasks/{ref}/status: a
// direct field-level override, distinct from the complete/fail
// shorthands below.
func (s *Server) putSubtaskStatus(c *gin.Context) {
	var req subtaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	task, st, ok := s.loadSubtask(c)
	if !ok {
		return
	}
	if req.Status != "" {
		st.Status = req.Status
	}
	if req.Result != "" {
		st.Result = req.Result
	}
	if req.ErrorMessage != "" {
		st.ErrorMessage = req.ErrorMessage
	}
	if req.StartedAt != nil {
		st.StartedAt = req.StartedAt
	}
	if req.CompletedAt != nil {
		st.CompletedAt = req.CompletedAt
	}
	if st.StartedAt != nil && st.CompletedAt != nil && st.StartedAt.After(*st.CompletedAt) {
		respondError(c, plan.ValidationError("started_at must not be after completed_at"))
		return
	}
	st.UpdatedAt = time.Now()
	if err := s.deps.Store.SaveTask(c.Request.Context(), c.Param("id"), task); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// getSubtaskStatus handles GET /tasks/{id}/subtasks/{ref}/status.
func (s *Server) getSubtaskStatus(c *gin.Context) {
	_, st, ok := s.loadSubtask(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, st)
}

// postSubtaskComplete handles POST /tasks/{id}/subtasks/{ref}/complete.
func (s *Server) postSubtaskComplete(c *gin.Context) {
	var req struct {
		Result string `json:"result"`
	}
	_ = c.ShouldBindJSON(&req)
	task, st, ok := s.loadSubtask(c)
	if !ok {
		return
	}
	plan.CompleteSubtask(st, req.Result, time.Now())
	if err := s.deps.Store.SaveTask(c.Request.Context(), c.Param("id"), task); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// postSubtaskFail handles POST /tasks/{id}/subtasks/{ref}/fail.
func (s *Server) postSubtaskFail(c *gin.Context) {
	var req struct {
		ErrorMessage string `json:"error_message"`
	}
	_ = c.ShouldBindJSON(&req)
	task, st, ok := s.loadSubtask(c)
	if !ok {
		return
	}
	plan.FailSubtask(st, req.ErrorMessage, time.Now())
	if err := s.deps.Store.SaveTask(c.Request.Context(), c.Param("id"), task); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// postSubtaskExecute handles POST /tasks/{id}/subtasks/{ref}/execute: runs
// the Execution Engine's full select-executor/run/validate flow, as
// distinct from the manual complete/fail overrides above.
func (s *Server) postSubtaskExecute(c *gin.Context) {
	projectID := c.Param("id")
	ws, err := s.deps.Workspaces(projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = "execution"
	}
	tr := s.deps.Trackers.GetOrCreate(projectID, sessionID)

	result, err := s.deps.Engine.ExecuteTask(c.Request.Context(), projectID, c.Param("ref"), ws.Root(), tr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
