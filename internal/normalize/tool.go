package normalize

import (
	"encoding/json"
	"strings"

	"github.com/nextlevelbuilder/clawface/pkg/protocol"
)

// AgentEvent is a decoded agent event. Tool is empty when no extractor
// recognised a tool invocation; such events still reach generic callbacks.
type AgentEvent struct {
	SessionKey string
	RunID      string
	Tool       string
	Raw        json.RawMessage
}

// HasTool reports whether the event carried a tool invocation.
func (e AgentEvent) HasTool() bool { return e.Tool != "" }

// Fields is an agent payload split into its top-level members. Extractors
// decode only the members they care about, so a malformed field elsewhere
// never hides a tool.
type Fields map[string]json.RawMessage

// Str returns the member as a string, or "" when it is missing or not one.
func (f Fields) Str(key string) string {
	var s string
	if raw, ok := f[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// Object returns the member as a nested Fields, or nil.
func (f Fields) Object(key string) Fields {
	var obj Fields
	if raw, ok := f[key]; ok {
		_ = json.Unmarshal(raw, &obj)
	}
	return obj
}

// ToolExtractor pulls a tool name out of an agent payload.
type ToolExtractor func(f Fields) (string, bool)

// ToolExtractors are tried in order; the first that matches wins.
var ToolExtractors = []ToolExtractor{
	streamTool,
	toolCallsTool,
	toolUseStateTool,
}

// stream == "tool" with data.name
func streamTool(f Fields) (string, bool) {
	if f.Str("stream") != protocol.AgentStreamTool {
		return "", false
	}
	name := f.Object("data").Str("name")
	return name, name != ""
}

// non-empty toolCalls array; names joined with ",", "unknown" if none named
func toolCallsTool(f Fields) (string, bool) {
	var calls []json.RawMessage
	if raw, ok := f["toolCalls"]; !ok || json.Unmarshal(raw, &calls) != nil || len(calls) == 0 {
		return "", false
	}
	names := make([]string, len(calls))
	named := false
	for i, c := range calls {
		var call Fields
		_ = json.Unmarshal(c, &call)
		names[i] = call.Str("name")
		named = named || names[i] != ""
	}
	if !named {
		return "unknown", true
	}
	return strings.Join(names, ","), true
}

// state == "toolUse": toolName, then name, then "unknown"
func toolUseStateTool(f Fields) (string, bool) {
	if f.Str("state") != protocol.AgentStateToolUse {
		return "", false
	}
	if name := f.Str("toolName"); name != "" {
		return name, true
	}
	if name := f.Str("name"); name != "" {
		return name, true
	}
	return "unknown", true
}

// ExtractTool runs ToolExtractors in order over a split payload.
func ExtractTool(f Fields) (string, bool) {
	for _, ex := range ToolExtractors {
		if name, ok := ex(f); ok {
			return name, true
		}
	}
	return "", false
}

// Agent decodes an agent event payload and extracts the tool name if any.
// Agent events are not session-filtered. Any JSON object is accepted;
// anything else is dropped.
func Agent(payload json.RawMessage) (AgentEvent, bool) {
	var f Fields
	if err := json.Unmarshal(payload, &f); err != nil || f == nil {
		return AgentEvent{}, false
	}
	ev := AgentEvent{
		SessionKey: f.Str("sessionKey"),
		RunID:      f.Str("runId"),
		Raw:        payload,
	}
	ev.Tool, _ = ExtractTool(f)
	return ev, true
}
