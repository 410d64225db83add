package protocol

import (
	"encoding/json"
	"testing"
)

func TestParseFrameType(t *testing.T) {
	cases := map[string]string{
		`{"type":"event","event":"chat"}`:   FrameTypeEvent,
		`{"type":"res","id":"1","ok":true}`: FrameTypeResponse,
		`{"id":"1"}`:                        "",
	}
	for in, want := range cases {
		got, err := ParseFrameType([]byte(in))
		if err != nil {
			t.Fatalf("ParseFrameType(%s): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseFrameType(%s) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseFrameType([]byte("not json")); err == nil {
		t.Error("expected error for malformed frame")
	}
}

func TestNewRequest_Encoding(t *testing.T) {
	data, err := json.Marshal(NewRequest("cf-1-1", MethodChatSend, ChatSendParams{
		SessionKey: "s", Message: "hi", IdempotencyKey: "k",
	}))
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]interface{}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back["type"] != "req" || back["method"] != "chat.send" || back["id"] != "cf-1-1" {
		t.Errorf("unexpected frame: %s", data)
	}
	params := back["params"].(map[string]interface{})
	if params["idempotencyKey"] != "k" || params["sessionKey"] != "s" {
		t.Errorf("unexpected params: %v", params)
	}
}

func TestParseResponseMeta(t *testing.T) {
	if m := ParseResponseMeta(json.RawMessage(`{"type":"hello-ok"}`)); m.Type != ResponseTypeHelloOK {
		t.Errorf("type = %q", m.Type)
	}
	if m := ParseResponseMeta(json.RawMessage(`{"status":"accepted","runId":"r"}`)); m.Status != ResponseStatusAccepted {
		t.Errorf("status = %q", m.Status)
	}
	if m := ParseResponseMeta(json.RawMessage(`"plain"`)); m != (ResponseMeta{}) {
		t.Errorf("non-object payload should give zero meta, got %+v", m)
	}
	if m := ParseResponseMeta(nil); m != (ResponseMeta{}) {
		t.Errorf("nil payload should give zero meta, got %+v", m)
	}
}
