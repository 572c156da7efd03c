package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/alfagnish/itemsvc/internal/feed"
	"github.com/alfagnish/itemsvc/internal/items"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins (CORS is handled at the middleware level).
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler pushes newly created items to WebSocket clients.
type WSHandler struct {
	hub *feed.Hub
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *feed.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Routes registers the WebSocket endpoint.
func (h *WSHandler) Routes(r chi.Router) {
	r.Get("/items", h.WatchItems)
}

// wsEvent is the JSON frame sent to WebSocket clients.
type wsEvent struct {
	Type string      `json:"type"`
	Item *items.Item `json:"item,omitempty"`
}

// WatchItems upgrades the connection and writes one item_created frame per
// item appended while the socket is open. Client frames are read and
// discarded; a read error ends the session.
func (h *WSHandler) WatchItems(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	subID, ch, cancel := h.hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket read error (subscriber %s): %v", subID, err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case it, ok := <-ch:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(wsWriteWait))
				return
			}
			data, _ := json.Marshal(wsEvent{Type: "item_created", Item: &it})
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("websocket write error (subscriber %s): %v", subID, err)
				return
			}
		}
	}
}
