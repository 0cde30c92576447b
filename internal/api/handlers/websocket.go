package handlers

import (
	"net/http"

	ws "github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/api/middleware"
	"github.com/dom/squad-roster/internal/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     loopbackOrigin,
}

// loopbackOrigin accepts same-machine pages only. Requests without an Origin
// header come from non-browser clients and are allowed.
func loopbackOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return middleware.IsLoopbackOrigin(origin)
}

type WebSocketHandler struct {
	hub *websocket.Hub
}

func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Upgrade to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.Register(client)

	// Start goroutines
	go client.WritePump()
	go client.ReadPump()
}
