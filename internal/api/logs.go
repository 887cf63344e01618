package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Pagination defaults for the log history.
const (
	defaultLogLimit = 50
	maxLogLimit     = 1000
)

// keepAliveInterval is how often the SSE stream emits a comment frame so
// intermediate proxies keep the connection open.
const keepAliveInterval = 30 * time.Second

// handleGetLogs returns paginated activity history, newest first.
func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", defaultLogLimit)
	offset := intQuery(r, "offset", 0)
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	writeJSON(w, http.StatusOK, s.activity.Query(limit, offset))
}

// intQuery parses an integer query parameter with a fallback.
func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// handleStreamLogs serves the activity feed as Server-Sent Events.
//
// The stream opens with a ": connected" comment, emits each new entry as
// a data frame, and sends a keep-alive comment every 30 seconds. It ends
// when the client disconnects or the server shuts down.
func (s *Server) handleStreamLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeInternalError(w, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	sub := s.activity.Subscribe()
	defer s.activity.Unsubscribe(sub)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case entry, ok := <-sub:
			if !ok {
				return
			}
			payload, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
