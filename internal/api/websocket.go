package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds each WebSocket write.
const writeWait = 10 * time.Second

// upgrader builds the WebSocket upgrader for this server.
//
// CORS headers do not stop a cross-site WebSocket handshake, so the
// upgrade enforces the same origin allowlist itself. Requests without
// an Origin header (non-browser clients) pass.
func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return s.isAllowedOrigin(origin)
		},
	}
}

// handleLogsWebSocket serves the activity feed over WebSocket, for
// dashboard clients that prefer it to SSE. Each new entry goes out as one
// JSON text message.
//
// The read pump exists only to notice disconnects; inbound messages are
// discarded.
func (s *Server) handleLogsWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(int64(s.wsCfg.MaxMessageSize))
	pongTimeout := time.Duration(s.wsCfg.PongTimeout) * time.Second
	//nolint:errcheck // Deadline errors surface on the next read
	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sub := s.activity.Subscribe()
	defer s.activity.Unsubscribe(sub)

	ping := time.NewTicker(time.Duration(s.wsCfg.PingInterval) * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return

		case <-r.Context().Done():
			return

		case entry, ok := <-sub:
			if !ok {
				return
			}
			//nolint:errcheck // Deadline errors surface on the write below
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(entry); err != nil {
				return
			}

		case <-ping.C:
			//nolint:errcheck // Deadline errors surface on the write below
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
