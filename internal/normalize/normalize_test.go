package normalize

import (
	"encoding/json"
	"testing"

	"github.com/nextlevelbuilder/clawface/pkg/protocol"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", ``, ""},
		{"null", `null`, ""},
		{"string", `"hello"`, "hello"},
		{"text field", `{"text":"hi there"}`, "hi there"},
		{"content string", `{"content":"plain"}`, "plain"},
		{"content blocks", `{"content":[{"type":"text","text":"a"},{"type":"image","url":"x"},{"type":"text","text":"b"}]}`, "a\nb"},
		{"stray block skipped", `{"content":["stray",{"type":"text","text":"a"},{"type":"text","text":"b"}]}`, "a\nb"},
		{"non-string block text skipped", `{"content":[{"type":"text","text":"a"},{"type":"text","text":7},{"type":"text","text":"b"}]}`, "a\nb"},
		{"text block without text", `{"content":[{"type":"text"},{"type":"text","text":"c"}]}`, "c"},
		{"no text blocks", `{"content":[{"type":"tool_use","name":"x"}]}`, ""},
		{"text not string", `{"text":42}`, ""},
		{"number", `17`, ""},
		{"object without text", `{"role":"assistant"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText(json.RawMessage(tt.in)); got != tt.want {
				t.Errorf("ExtractText(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestChat_SessionFilter(t *testing.T) {
	payload := json.RawMessage(`{"sessionKey":"other","state":"final","message":"hi"}`)
	if _, ok := Chat(payload, "face"); ok {
		t.Fatal("event for another session must be dropped")
	}

	ev, ok := Chat(json.RawMessage(`{"sessionKey":"face","state":"final","message":{"text":"hi"}}`), "face")
	if !ok || ev.State != protocol.ChatStateFinal || ev.Text != "hi" {
		t.Fatalf("matching session: ok=%v ev=%+v", ok, ev)
	}

	ev, ok = Chat(json.RawMessage(`{"state":"error","errorMessage":"boom"}`), "face")
	if !ok || ev.ErrorMessage != "boom" {
		t.Fatalf("no session key should pass: ok=%v ev=%+v", ok, ev)
	}

	ev, ok = Chat(json.RawMessage(`{"state":"final","runId":7,"message":{"content":[{"type":"text","text":"ok"}]}}`), "face")
	if !ok || ev.State != protocol.ChatStateFinal || ev.Text != "ok" {
		t.Fatalf("mistyped runId must not drop the event: ok=%v ev=%+v", ok, ev)
	}

	if _, ok := Chat(json.RawMessage(`[1,2]`), "face"); ok {
		t.Fatal("non-object payload must be dropped")
	}
}

func TestAgent_ToolExtractionOrder(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"stream tool", `{"stream":"tool","data":{"name":"web_search"}}`, "web_search"},
		{"stream wins over toolCalls", `{"stream":"tool","data":{"name":"exec"},"toolCalls":[{"name":"read"}]}`, "exec"},
		{"toolCalls joined", `{"toolCalls":[{"name":"read"},{"name":"write"}]}`, "read,write"},
		{"toolCalls wins over state", `{"toolCalls":[{"name":"grep"}],"state":"toolUse","toolName":"bash"}`, "grep"},
		{"toolUse toolName", `{"state":"toolUse","toolName":"bash","name":"x"}`, "bash"},
		{"toolUse name", `{"state":"toolUse","name":"edit"}`, "edit"},
		{"toolUse unknown", `{"state":"toolUse"}`, "unknown"},
		{"stream without name falls through", `{"stream":"tool","data":{}}`, ""},
		{"empty toolCalls", `{"toolCalls":[]}`, ""},
		{"unnamed toolCalls", `{"toolCalls":[{}]}`, "unknown"},
		{"partly named toolCalls", `{"toolCalls":[{"name":"read"},{"name":3}]}`, "read,"},
		{"unrelated state shape", `{"stream":"tool","data":{"name":"web_search"},"state":{"phase":"start"}}`, "web_search"},
		{"data not an object", `{"stream":"assistant","data":"partial text"}`, ""},
		{"toolCalls not an array", `{"toolCalls":"read","state":"toolUse","name":"edit"}`, "edit"},
		{"lifecycle only", `{"stream":"lifecycle","data":{"phase":"start"}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Agent(json.RawMessage(tt.in))
			if !ok {
				t.Fatalf("Agent(%s) dropped", tt.in)
			}
			if ev.Tool != tt.want {
				t.Errorf("tool = %q, want %q", ev.Tool, tt.want)
			}
			if ev.HasTool() != (tt.want != "") {
				t.Errorf("HasTool = %v", ev.HasTool())
			}
		})
	}
}

func TestAgent_NonObjectDropped(t *testing.T) {
	for _, in := range []string{``, `null`, `"text"`, `[1]`} {
		if _, ok := Agent(json.RawMessage(in)); ok {
			t.Errorf("Agent(%s) accepted", in)
		}
	}
	ev, ok := Agent(json.RawMessage(`{"sessionKey":"s","runId":"r","stream":"assistant","data":"x"}`))
	if !ok || ev.SessionKey != "s" || ev.RunID != "r" || ev.HasTool() {
		t.Fatalf("ok=%v ev=%+v", ok, ev)
	}
}
