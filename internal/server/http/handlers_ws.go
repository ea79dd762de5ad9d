package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// getTraceWS handles GET /tasks/{id}/trace/ws?session_id=…: an optional
// websocket transport for the same StreamEvent feed chat/stream exposes
// over SSE, for a UI that already holds a socket open rather than one
// per request.
func (s *Server) getTraceWS(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "session_id is required"})
		return
	}
	tr := s.deps.Trackers.GetOrCreate(c.Param("id"), sessionID)

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for ev := range tr.Stream() {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
