package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskctl/internal/domain/plan"
)

type contextQuestionsRequest struct {
	Answers map[string]string `json:"answers"`
	Force   bool              `json:"force"`
}

// postContextQuestions handles POST /tasks/{id}/context-questions.
func (s *Server) postContextQuestions(c *gin.Context) {
	var req contextQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	result, err := s.deps.Pipeline.AnswerContextQuestions(c.Request.Context(), c.Param("id"), req.Answers, req.Force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type editContextRequest struct {
	Feedback string `json:"feedback"`
}

// postEditContext handles POST /tasks/{id}/edit-context.
func (s *Server) postEditContext(c *gin.Context) {
	var req editContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	task, err := s.deps.Pipeline.EditContext(c.Request.Context(), c.Param("id"), req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// getFormulate handles GET /tasks/{id}/formulate/{dimension}.
func (s *Server) getFormulate(c *gin.Context) {
	dimension := plan.ScopeDimension(c.Param("dimension"))
	questions, err := s.deps.Pipeline.FormulateDimension(c.Request.Context(), c.Param("id"), dimension)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

type formulateAnswersRequest struct {
	Answers string `json:"answers"`
}

// postFormulate handles POST /tasks/{id}/formulate/{dimension}.
func (s *Server) postFormulate(c *gin.Context) {
	var req formulateAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	dimension := plan.ScopeDimension(c.Param("dimension"))
	task, err := s.deps.Pipeline.SubmitDimensionAnswers(c.Request.Context(), c.Param("id"), dimension, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": true, "task": task})
}

// getDraftScope handles GET /tasks/{id}/draft-scope.
func (s *Server) getDraftScope(c *gin.Context) {
	draft, err := s.deps.Pipeline.GenerateDraftScope(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

type validateScopeRequest struct {
	IsApproved bool   `json:"isApproved"`
	Feedback   string `json:"feedback"`
}

// postValidateScope handles POST /tasks/{id}/validate-scope.
func (s *Server) postValidateScope(c *gin.Context) {
	var req validateScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	result, err := s.deps.Pipeline.SubmitScopeValidation(c.Request.Context(), c.Param("id"), req.IsApproved, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// postIFR handles POST /tasks/{id}/ifr.
func (s *Server) postIFR(c *gin.Context) {
	ifr, err := s.deps.Pipeline.GenerateIFR(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ifr)
}

// postRequirements handles POST /tasks/{id}/requirements.
func (s *Server) postRequirements(c *gin.Context) {
	reqs, err := s.deps.Pipeline.GenerateRequirements(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// postNetworkPlan handles POST /tasks/{id}/network-plan?force=….
func (s *Server) postNetworkPlan(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("force"))
	np, err := s.deps.Pipeline.GenerateNetworkPlan(c.Request.Context(), c.Param("id"), force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, np)
}
