package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/storefront-backend/internal/middleware"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
)

// WSController upgrades authenticated sessions to the toast notification socket.
type WSController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWSController accepts upgrades from allowedOrigins; "*" allows any origin.
func NewWSController(hub *ws.Hub, allowedOrigins []string) *WSController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// HandleWebSocket
// GET /api/v1/ws?token=...
func (ctrl *WSController) HandleWebSocket(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade connection", err, map[string]interface{}{
			"session_id": session.ID,
		})
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, session.ID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
