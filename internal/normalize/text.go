// Package normalize turns raw gateway event payloads into the small set of
// signals the face reacts to: chat state with display text, and tool usage.
package normalize

import (
	"encoding/json"
	"strings"
)

// ExtractText returns the displayable text of a chat message.
//
// Accepted shapes: a bare string; an object with a string "text"; an object
// whose "content" is a string; an object whose "content" is an array of blocks,
// in which case the string "text" of every block with type "text" is joined
// with "\n". Blocks of any other shape are skipped.
// Anything else yields "".
func ExtractText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}

	if t, ok := obj["text"]; ok {
		if err := json.Unmarshal(t, &s); err == nil {
			return s
		}
	}

	content, ok := obj["content"]
	if !ok {
		return ""
	}
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(content, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, raw := range blocks {
		var b Fields
		if err := json.Unmarshal(raw, &b); err != nil || b.Str("type") != "text" {
			continue
		}
		var text string
		if err := json.Unmarshal(b["text"], &text); err != nil {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}
