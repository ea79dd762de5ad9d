package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskctl/internal/app/tracker"
	"taskctl/internal/shared/idgen"
)

type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

// ChatResponse is postChat's typed body.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
}

func resolveSessionID(raw string) string {
	if raw == "" {
		return idgen.NewSessionID()
	}
	return raw
}

// postChat handles POST /tasks/{id}/chat: runs the Dispatcher
// synchronously, then drains the Tracker's buffered stream into a single
// aggregated response.
func (s *Server) postChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	taskID := c.Param("id")
	sessionID := resolveSessionID(req.SessionID)
	tr := s.deps.Trackers.GetOrCreate(taskID, sessionID)

	s.deps.Dispatcher.Dispatch(c.Request.Context(), taskID, req.Message, tr)

	var message strings.Builder
	errText := ""
drain:
	for {
		select {
		case ev, ok := <-tr.Stream():
			if !ok {
				break drain
			}
			switch ev.Type {
			case tracker.StreamProseChunk:
				message.WriteString(ev.Text)
			case tracker.StreamError:
				errText = ev.Text
			}
		default:
			break drain
		}
	}

	c.JSON(http.StatusOK, ChatResponse{SessionID: sessionID, Message: message.String(), Error: errText})
}

// postChatStream handles POST /tasks/{id}/chat/stream: runs the
// Dispatcher in a goroutine and relays its tracker's prose/error events
// as SSE, closing with a completion event once Dispatch returns.
func (s *Server) postChatStream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	taskID := c.Param("id")
	sessionID := resolveSessionID(req.SessionID)
	tr := s.deps.Trackers.GetOrCreate(taskID, sessionID)

	done := make(chan struct{})
	go func() {
		s.deps.Dispatcher.Dispatch(c.Request.Context(), taskID, req.Message, tr)
		close(done)
	}()

	finished := false
	c.Header("Content-Type", "text/event-stream")
	c.Stream(func(w io.Writer) bool {
		if finished {
			return false
		}
		select {
		case ev, ok := <-tr.Stream():
			if !ok {
				finished = true
				writeSSE(w, "completion", gin.H{"session_id": sessionID})
				return false
			}
			switch ev.Type {
			case tracker.StreamProseChunk:
				writeSSE(w, "message_chunk", gin.H{"text": ev.Text})
			case tracker.StreamError:
				writeSSE(w, "error", gin.H{"text": ev.Text})
			}
			return true
		case <-done:
			drainRemaining(tr, w)
			finished = true
			writeSSE(w, "completion", gin.H{"session_id": sessionID})
			return false
		}
	})
}

func drainRemaining(tr *tracker.Tracker, w io.Writer) {
	for {
		select {
		case ev, ok := <-tr.Stream():
			if !ok {
				return
			}
			switch ev.Type {
			case tracker.StreamProseChunk:
				writeSSE(w, "message_chunk", gin.H{"text": ev.Text})
			case tracker.StreamError:
				writeSSE(w, "error", gin.H{"text": ev.Text})
			}
		default:
			return
		}
	}
}

func writeSSE(w io.Writer, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

type chatResetRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// postChatReset handles POST /tasks/{id}/chat/reset.
func (s *Server) postChatReset(c *gin.Context) {
	var req chatResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	s.deps.Trackers.Remove(c.Param("id"), req.SessionID)
	c.Status(http.StatusNoContent)
}

// getTrace handles GET /tasks/{id}/trace?session_id=….
func (s *Server) getTrace(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "session_id is required"})
		return
	}
	tr := s.deps.Trackers.GetOrCreate(c.Param("id"), sessionID)
	c.JSON(http.StatusOK, gin.H{
		"activities": tr.Activities(),
		"tool_calls": tr.ToolCalls(),
		"transfers":  tr.Transfers(),
		"summary":    tr.Summary(),
	})
}
