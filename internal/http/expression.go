package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	maxExpressionBody = 1 << 20
	streamKeepAlive   = 30 * time.Second
)

// Publish stamps state with ts, saves it as the snapshot and pushes it to
// subscribers of target (all subscribers when empty). A failed snapshot
// write is logged and does not stop delivery.
func (s *Server) Publish(ctx context.Context, target string, state map[string]any) (ts int64, sent int) {
	ts = s.now().UnixMilli()
	state["ts"] = ts
	if err := s.snap.Save(ctx, state); err != nil {
		slog.Warn("http: snapshot save failed", "error", err)
	}
	sent, err := s.hub.PublishJSON(target, state)
	if err != nil {
		slog.Warn("http: publish failed", "error", err)
	}
	return ts, sent
}

// handleExpression accepts an arbitrary JSON object. Its sessionKey field
// selects the target subscribers and is not forwarded.
func (s *Server) handleExpression(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxExpressionBody)
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if data == nil {
		writeError(w, http.StatusBadRequest, "expected a JSON object")
		return
	}

	target, _ := data["sessionKey"].(string)
	delete(data, "sessionKey")

	ts, sent := s.Publish(r.Context(), target, data)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "ts": ts, "sent": sent})
}

// handleStream is the SSE endpoint. It subscribes before writing the
// opening comment, so anything published after the client sees ":" is
// delivered.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sub := s.hub.Subscribe(r.URL.Query().Get("sessionKey"))
	defer s.hub.Unsubscribe(sub)
	slog.Info("sse: client connected", "session", sub.SessionKey, "clients", s.hub.Count())
	defer func() {
		slog.Info("sse: client disconnected", "session", sub.SessionKey, "clients", s.hub.Count()-1)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ":\n\n"); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ":\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case data, ok := <-sub.C:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.snap.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleClearPlayed(w http.ResponseWriter, r *http.Request) {
	if err := s.snap.ClearPlayed(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
