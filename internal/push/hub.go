// Package push fans published face states out to stream subscribers.
package push

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DefaultSessionKey is used by subscribers that do not name a session.
const DefaultSessionKey = "__default__"

const defaultBuffer = 32

// Subscriber receives published payloads on C until it is unsubscribed or
// dropped for falling behind, at which point C is closed.
type Subscriber struct {
	ID         string
	SessionKey string
	C          <-chan []byte

	ch chan []byte
}

// Hub routes payloads to subscribers by session key. Delivery is best
// effort: a subscriber whose buffer is full is dropped.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]*Subscriber
	buffer int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscriber), buffer: defaultBuffer}
}

// Subscribe registers a subscriber for sessionKey.
func (h *Hub) Subscribe(sessionKey string) *Subscriber {
	if sessionKey == "" {
		sessionKey = DefaultSessionKey
	}
	ch := make(chan []byte, h.buffer)
	s := &Subscriber{ID: uuid.NewString(), SessionKey: sessionKey, C: ch, ch: ch}

	h.mu.Lock()
	h.subs[s.ID] = s
	n := len(h.subs)
	h.mu.Unlock()

	slog.Debug("push: subscribed", "session", sessionKey, "clients", n)
	return s
}

// Unsubscribe removes s. Safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	h.removeLocked(s.ID)
	n := len(h.subs)
	h.mu.Unlock()
	slog.Debug("push: unsubscribed", "session", s.SessionKey, "clients", n)
}

func (h *Hub) removeLocked(id string) {
	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.ch)
	}
}

// Publish delivers data to every subscriber of target, or to all
// subscribers when target is empty. It returns the number of deliveries.
func (h *Hub) Publish(target string, data []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for id, s := range h.subs {
		if target != "" && s.SessionKey != target {
			continue
		}
		select {
		case s.ch <- data:
			sent++
		default:
			slog.Warn("push: dropping slow subscriber", "session", s.SessionKey)
			h.removeLocked(id)
		}
	}
	return sent
}

// PublishJSON marshals v and publishes it.
func (h *Hub) PublishJSON(target string, v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return h.Publish(target, data), nil
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.subs {
		h.removeLocked(id)
	}
}
