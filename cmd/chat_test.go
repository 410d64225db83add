package cmd

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/nextlevelbuilder/clawface/internal/gatewayclient"
	"github.com/nextlevelbuilder/clawface/internal/normalize"
)

func TestChatAsk_DisconnectEndsWait(t *testing.T) {
	sess := newChatSession(time.Minute)
	cb := sess.callbacks()
	sess.send = func(context.Context, string) (json.RawMessage, error) {
		go cb.OnDisconnect(io.ErrUnexpectedEOF)
		return json.RawMessage(`{"runId":"r1","status":"started"}`), nil
	}

	start := time.Now()
	_, err := sess.ask(context.Background(), "hi")
	if err == nil || err.Error() != msgDisconnected {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("ask waited for the full timeout")
	}
}

func TestChatAsk_Reply(t *testing.T) {
	sess := newChatSession(time.Minute)
	cb := sess.callbacks()
	cb.OnError("stale failure from an earlier run")
	sess.send = func(context.Context, string) (json.RawMessage, error) {
		go cb.OnMessage("hello back", normalize.ChatEvent{})
		return nil, nil
	}
	reply, err := sess.ask(context.Background(), "hi")
	if err != nil || reply != "hello back" {
		t.Fatalf("reply = %q, err = %v", reply, err)
	}
}

func TestChatAsk_InlineReplyAndSendError(t *testing.T) {
	sess := newChatSession(time.Minute)
	sess.send = func(context.Context, string) (json.RawMessage, error) {
		return json.RawMessage(`{"text":"inline"}`), nil
	}
	if reply, err := sess.ask(context.Background(), "hi"); err != nil || reply != "inline" {
		t.Fatalf("reply = %q, err = %v", reply, err)
	}

	sess.send = func(context.Context, string) (json.RawMessage, error) {
		return nil, gatewayclient.ErrNotConnected
	}
	if _, err := sess.ask(context.Background(), "hi"); err == nil || err.Error() != "Not connected to the gateway yet." {
		t.Fatalf("err = %v", err)
	}
}

func TestChatAsk_Timeout(t *testing.T) {
	sess := newChatSession(20 * time.Millisecond)
	sess.send = func(context.Context, string) (json.RawMessage, error) { return nil, nil }
	_, err := sess.ask(context.Background(), "hi")
	if err == nil || err.Error() != "Request timed out. Please try again." {
		t.Fatalf("err = %v", err)
	}
}
