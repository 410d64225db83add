package normalize

import "encoding/json"

// ChatEvent is a chat event that passed the session filter.
type ChatEvent struct {
	SessionKey   string
	RunID        string
	State        string // one of protocol.ChatState*; unknown states pass through
	Text         string // extracted message text, "" when absent
	ErrorMessage string
}

// Chat decodes a chat event payload and applies the session filter: an event
// that names a session different from the client's own is dropped (ok=false).
// Events without a session key are accepted.
func Chat(payload json.RawMessage, session string) (ChatEvent, bool) {
	var f Fields
	if err := json.Unmarshal(payload, &f); err != nil || f == nil {
		return ChatEvent{}, false
	}
	key := f.Str("sessionKey")
	if key != "" && key != session {
		return ChatEvent{}, false
	}
	return ChatEvent{
		SessionKey:   key,
		RunID:        f.Str("runId"),
		State:        f.Str("state"),
		Text:         ExtractText(f["message"]),
		ErrorMessage: f.Str("errorMessage"),
	}, true
}
