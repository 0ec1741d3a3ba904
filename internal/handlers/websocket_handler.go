package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"emirates-studios/internal/services"
)

// WebSocketHandler upgrades browser connections for carousel events
type WebSocketHandler struct {
	wsService *services.WebSocketService
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

// NewWebSocketHandler creates a new WebSocket handler. An empty or "*"
// origin list accepts any origin.
func NewWebSocketHandler(wsService *services.WebSocketService, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return &WebSocketHandler{
		wsService: wsService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the request and hands the connection to the hub
// GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.wsService.ServeClient(conn)
}
