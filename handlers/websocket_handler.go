package handlers

import (
	"net/http"
	"time"

	"video-research-backend/logger"
	"video-research-backend/state"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The HTTP surface is unauthenticated and CORS-open; so is this.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler streams pipeline stage events to the client as JSON
// messages until the client disconnects.
func WebSocketHandler(hub *state.EventHub) http.HandlerFunc {
	log := logger.New().WithField("component", "websocket")

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Error("websocket upgrade failed")
			return
		}

		events, unsubscribe := hub.Subscribe()
		log.Info("websocket client connected")

		// Reader goroutine: we never expect messages, but reading drains
		// control frames and detects the close.
		done := make(chan struct{})
		go func() {
			defer close(done)
			conn.SetReadLimit(512)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		go func() {
			defer func() {
				unsubscribe()
				conn.Close()
				log.Info("websocket client disconnected")
			}()

			ping := time.NewTicker(30 * time.Second)
			defer ping.Stop()

			for {
				select {
				case <-done:
					return
				case event, ok := <-events:
					if !ok {
						return
					}
					conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
					if err := conn.WriteJSON(event); err != nil {
						return
					}
				case <-ping.C:
					conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()
	}
}
