package handlers

import (
	"net/http"

	"perishable-scm-api-server/internal/auth"
	"perishable-scm-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	Hub *socket.Hub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser cannot set an Authorization header on a websocket
	// handshake; the token rides in the query string instead.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required"})
		return
	}
	claims, err := auth.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	h.Hub.Register(claims.Email, conn)

	// Drain the read side; when the client goes away the read fails and
	// the connection is cleaned up.
	go func() {
		defer func() {
			h.Hub.Unregister(claims.Email)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
