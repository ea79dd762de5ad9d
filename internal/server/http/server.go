// Package http implements the HTTP Façade: a gin router exposing the
// lifecycle, planning, chat, and subtask endpoints, delegating to the
// planning Pipeline, Execution Engine, Router Dispatcher, Tracker
// Registry, and Task Store assembled upstream.
package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"taskctl/internal/app/execution"
	"taskctl/internal/app/planning"
	"taskctl/internal/app/router"
	"taskctl/internal/app/tracker"
	"taskctl/internal/app/workspace"
	"taskctl/internal/infra/store"
	"taskctl/internal/shared/logging"
)

// Deps is the full set of components the façade delegates to. Every
// field is constructed upstream (by cmd/taskctl's DI wiring); this
// package only adds transport.
type Deps struct {
	Store      *store.Store
	Pipeline   *planning.Pipeline
	Engine     *execution.Engine
	Dispatcher *router.Dispatcher
	Trackers   *tracker.Registry
	Workspaces func(projectID string) (*workspace.Workspace, error)
	Logger     logging.Logger
}

// Server wires Deps into a *gin.Engine.
type Server struct {
	deps   Deps
	logger logging.Logger
}

// New constructs a Server. Call Handler to obtain the *gin.Engine to run.
func New(deps Deps) *Server {
	return &Server{deps: deps, logger: logging.OrNop(deps.Logger)}
}

// Handler builds the gin.Engine and registers every route.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.loggingMiddleware())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "X-Log-Id", "X-Request-Id", "X-Correlation-Id"},
		MaxAge:          12 * time.Hour,
	}))

	r.POST("/user-queries", s.createUserQuery)
	r.GET("/user-queries", s.listUserQueries)
	r.GET("/user-queries/:id", s.getUserQuery)
	r.DELETE("/user-queries/:id", s.deleteUserQuery)

	tasks := r.Group("/tasks/:id")
	{
		tasks.POST("/context-questions", s.postContextQuestions)
		tasks.POST("/edit-context", s.postEditContext)
		tasks.GET("/formulate/:dimension", s.getFormulate)
		tasks.POST("/formulate/:dimension", s.postFormulate)
		tasks.GET("/draft-scope", s.getDraftScope)
		tasks.POST("/validate-scope", s.postValidateScope)
		tasks.POST("/ifr", s.postIFR)
		tasks.POST("/requirements", s.postRequirements)
		tasks.POST("/network-plan", s.postNetworkPlan)

		tasks.POST("/chat", s.postChat)
		tasks.POST("/chat/stream", s.postChatStream)
		tasks.POST("/chat/reset", s.postChatReset)
		tasks.GET("/trace", s.getTrace)
		tasks.GET("/trace/ws", s.getTraceWS)

		tasks.PUT("/subtasks/:ref/status", s.putSubtaskStatus)
		tasks.GET("/subtasks/:ref/status", s.getSubtaskStatus)
		tasks.POST("/subtasks/:ref/complete", s.postSubtaskComplete)
		tasks.POST("/subtasks/:ref/fail", s.postSubtaskFail)
		tasks.POST("/subtasks/:ref/execute", s.postSubtaskExecute)
	}

	return r
}
