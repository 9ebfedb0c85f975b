package realtime

import (
	"collaborative-notes/internal/config"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		if config.AppConfig.Environment == "development" {
			return true
		}
		return r.Header.Get("Origin") == config.AppConfig.FrontendAddress
	},
}

// Handler upgrades authenticated HTTP requests to WebSocket connections.
type Handler struct {
	coordinator *Coordinator
}

func NewHandler(coordinator *Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

// Serve runs behind the auth middleware; the principal is resolved once,
// at connect time.
func (h *Handler) Serve(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := newClient(uuid.NewString(), userID.(uint64), conn, h.coordinator)
	h.coordinator.register(client)

	go client.writePump()
	go client.readPump()
}
