package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskctl/internal/domain/plan"
	"taskctl/internal/shared/idgen"
)

type createUserQueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// createUserQuery handles POST /user-queries: creates the project folder
// and a fresh Task in state NEW, then reports it as "pending".
func (s *Server) createUserQuery(c *gin.Context) {
	var req createUserQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	projectID := idgen.NewProjectID()
	if _, err := s.deps.Store.CreateProject(ctx, projectID, req.Query); err != nil {
		respondError(c, err)
		return
	}

	task := plan.NewTask(projectID, projectID, req.Query, time.Now())
	if err := s.deps.Store.SaveTask(ctx, projectID, task); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": projectID, "status": "pending", "task": task})
}

// listUserQueries handles GET /user-queries.
func (s *Server) listUserQueries(c *gin.Context) {
	metas, err := s.deps.Store.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metas)
}

// getUserQuery handles GET /user-queries/{id}.
func (s *Server) getUserQuery(c *gin.Context) {
	task, err := s.deps.Store.LoadTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if task == nil {
		respondError(c, plan.NotFoundError("project "+c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, task)
}

// deleteUserQuery handles DELETE /user-queries/{id}.
func (s *Server) deleteUserQuery(c *gin.Context) {
	existed, err := s.deps.Store.DeleteProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !existed {
		respondError(c, plan.NotFoundError("project "+c.Param("id")))
		return
	}
	c.Status(http.StatusNoContent)
}
