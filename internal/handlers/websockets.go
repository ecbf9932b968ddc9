package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"trafficsignal/internal/logger"
	hub "trafficsignal/internal/services/websocket"
)

const viewerReadTimeout = 60 * time.Second

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler streams every published snapshot to the viewer.
// Messages from the viewer are read only to detect disconnects.
func ViewWebsocketHandler(h *hub.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(viewerReadTimeout))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(viewerReadTimeout))
			return nil
		})

		h.Register(connection)
		defer h.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				return
			}
			connection.SetReadDeadline(time.Now().Add(viewerReadTimeout))
		}
	}
}
