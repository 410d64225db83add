package gatewayclient

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/clawface/pkg/protocol"
)

type sendResult struct {
	payload json.RawMessage
	err     error
}

func sendAsync(c *Client, text string) chan sendResult {
	ch := make(chan sendResult, 1)
	go func() {
		p, err := c.Send(context.Background(), text)
		ch <- sendResult{p, err}
	}()
	return ch
}

func TestHandshake(t *testing.T) {
	h := newHarness()
	h.client.Connect(context.Background())
	if s := h.client.State(); s != StateAwaitingChallenge {
		t.Fatalf("state after dial = %s", s)
	}
	c := receive(t, h.transport.conns, "dial")
	pushEvent(t, c, protocol.EventConnectChallenge, map[string]string{"nonce": "n"})

	req := readRequest(t, c)
	if req.Method != protocol.MethodConnect || !strings.HasPrefix(req.ID, "cf-") {
		t.Fatalf("connect request = %+v", req)
	}
	var params protocol.ConnectParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		t.Fatal(err)
	}
	if params.MinProtocol != 3 || params.MaxProtocol != 3 {
		t.Errorf("protocol bounds = %d..%d", params.MinProtocol, params.MaxProtocol)
	}
	if params.Auth.Token != "secret" || params.Client.ID != "webchat" || params.Role != "operator" {
		t.Errorf("params = %+v", params)
	}
	if len(params.Scopes) != 2 || params.Scopes[0] != "operator.read" || params.Locale != "en" {
		t.Errorf("scopes/locale = %v %q", params.Scopes, params.Locale)
	}

	if h.client.Connected() {
		t.Fatal("connected before hello-ok")
	}
	pushOK(t, c, req.ID, map[string]string{"type": "hello-ok"})
	receive(t, h.rec.connects, "OnConnect")
	if !h.client.Connected() {
		t.Fatalf("state = %s", h.client.State())
	}
}

func TestHandshake_HelloBeforeChallengeIgnored(t *testing.T) {
	h := newHarness()
	h.client.Connect(context.Background())
	c := receive(t, h.transport.conns, "dial")

	pushOK(t, c, "cf-99-0", map[string]string{"type": "hello-ok"})
	flush(t, c, h.rec)
	if s := h.client.State(); s != StateAwaitingChallenge {
		t.Fatalf("unsolicited hello-ok changed state to %s", s)
	}
	expectNone(t, h.rec.connects, "OnConnect")
}

func TestHandshake_Rejected(t *testing.T) {
	h := newHarness()
	h.client.Connect(context.Background())
	c := receive(t, h.transport.conns, "dial")
	pushEvent(t, c, protocol.EventConnectChallenge, nil)
	req := readRequest(t, c)
	push(t, c, protocol.NewErrorResponse(req.ID, protocol.ErrUnauthorized, "bad token"))

	err := receive(t, h.rec.disconnects, "OnDisconnect")
	var rerr *RemoteError
	if !errors.As(err, &rerr) || rerr.Message != "bad token" || rerr.Code != protocol.ErrUnauthorized {
		t.Fatalf("disconnect error = %v", err)
	}
	if !c.isClosed() {
		t.Fatal("connection should be closed after rejection")
	}
	if p := h.clock.Pending(); len(p) != 1 || p[0] != time.Second {
		t.Fatalf("reconnect timers = %v", p)
	}
}

func TestSend_NotConnected(t *testing.T) {
	h := newHarness()
	if _, err := h.client.Send(context.Background(), "hi"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v", err)
	}
	h.client.Connect(context.Background())
	receive(t, h.transport.conns, "dial")
	if _, err := h.client.Send(context.Background(), "hi"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err while awaiting challenge = %v", err)
	}
}

func TestSend_AcceptedThenFinal(t *testing.T) {
	h := newHarness()
	c := h.connect(t)

	done := sendAsync(h.client, "hello there")
	req := readRequest(t, c)
	if req.Method != protocol.MethodChatSend {
		t.Fatalf("method = %q", req.Method)
	}
	var params protocol.ChatSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		t.Fatal(err)
	}
	if params.SessionKey != "face" || params.Message != "hello there" {
		t.Fatalf("params = %+v", params)
	}
	key, err := uuid.Parse(params.IdempotencyKey)
	if err != nil || key.Version() != 4 {
		t.Fatalf("idempotency key %q is not a v4 uuid", params.IdempotencyKey)
	}

	pushOK(t, c, req.ID, map[string]string{"status": "accepted", "runId": "r1"})
	flush(t, c, h.rec)
	if n := h.client.PendingCount(); n != 1 {
		t.Fatalf("accepted removed the pending entry (pending=%d)", n)
	}
	expectNone(t, done, "result after accepted")

	pushOK(t, c, req.ID, map[string]string{"status": "ok", "runId": "r1"})
	res := receive(t, done, "send result")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(string(res.payload), `"status":"ok"`) {
		t.Fatalf("payload = %s", res.payload)
	}
	if n := h.client.PendingCount(); n != 0 {
		t.Fatalf("pending = %d after terminal response", n)
	}
}

func TestSend_RemoteError(t *testing.T) {
	h := newHarness()
	c := h.connect(t)

	done := sendAsync(h.client, "x")
	req := readRequest(t, c)
	push(t, c, protocol.NewErrorResponse(req.ID, "", "quota exceeded"))
	res := receive(t, done, "send result")
	var rerr *RemoteError
	if !errors.As(res.err, &rerr) || rerr.Message != "quota exceeded" {
		t.Fatalf("err = %v", res.err)
	}

	done = sendAsync(h.client, "y")
	req = readRequest(t, c)
	push(t, c, map[string]interface{}{"type": "res", "id": req.ID, "ok": false})
	res = receive(t, done, "send result")
	if !errors.As(res.err, &rerr) || rerr.Message != "error" {
		t.Fatalf("err without message = %v", res.err)
	}
}

func TestRequest_TimeoutNotResetByAccepted(t *testing.T) {
	h := newHarness()
	c := h.connect(t)

	done := sendAsync(h.client, "slow")
	req := readRequest(t, c)

	h.clock.Advance(30 * time.Second)
	pushOK(t, c, req.ID, map[string]string{"status": "accepted"})
	flush(t, c, h.rec)
	pushOK(t, c, req.ID, map[string]string{"status": "accepted"})
	flush(t, c, h.rec)

	h.clock.Advance(30*time.Second - time.Millisecond)
	expectNone(t, done, "result before timeout")

	h.clock.Advance(time.Millisecond)
	res := receive(t, done, "timeout")
	if !errors.Is(res.err, ErrRequestTimeout) {
		t.Fatalf("err = %v", res.err)
	}

	// late response is a no-op
	pushOK(t, c, req.ID, map[string]string{"status": "ok"})
	flush(t, c, h.rec)
	if n := h.client.PendingCount(); n != 0 {
		t.Fatalf("pending = %d", n)
	}
	if !h.client.Connected() {
		t.Fatal("late response disturbed the connection")
	}
}

func TestRequest_ContextCancel(t *testing.T) {
	h := newHarness()
	c := h.connect(t)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := h.client.Send(ctx, "bye")
		errc <- err
	}()
	readRequest(t, c)
	cancel()
	if err := receive(t, errc, "cancelled send"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	waitFor(t, "pending cleared", func() bool { return h.client.PendingCount() == 0 })
}

func TestRequestIDs_Unique(t *testing.T) {
	h := newHarness()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := h.client.ids.next()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestChatEvents_SessionFilter(t *testing.T) {
	h := newHarness()
	c := h.connect(t)

	pushEvent(t, c, protocol.EventChat, map[string]interface{}{
		"sessionKey": "someone-else", "state": "final", "message": "not mine",
	})
	pushEvent(t, c, protocol.EventChat, map[string]interface{}{
		"sessionKey": "face", "state": "final",
		"message": map[string]interface{}{"content": []map[string]string{{"type": "text", "text": "mine"}}},
	})
	ev := receive(t, h.rec.chats, "chat event")
	if ev.Text != "mine" || ev.State != protocol.ChatStateFinal {
		t.Fatalf("first delivered event = %+v", ev)
	}
}

func TestAgentEvents(t *testing.T) {
	h := newHarness()
	c := h.connect(t)

	pushEvent(t, c, protocol.EventAgent, map[string]interface{}{
		"stream": "tool", "data": map[string]string{"name": "web_search"},
	})
	pushEvent(t, c, protocol.EventAgent, map[string]interface{}{"stream": "lifecycle"})

	if ev := receive(t, h.rec.agents, "tool event"); ev.Tool != "web_search" {
		t.Fatalf("tool = %q", ev.Tool)
	}
	if ev := receive(t, h.rec.agents, "plain agent event"); ev.HasTool() {
		t.Fatalf("unexpected tool %q", ev.Tool)
	}
}

func TestMalformedFramesDropped(t *testing.T) {
	h := newHarness()
	c := h.connect(t)

	c.in <- []byte("not json")
	c.in <- []byte(`{"type":"res","id":`)
	c.in <- []byte(`{"type":"event","event":"chat","payload":"weird"}`)
	c.in <- []byte(`{"type":"mystery"}`)
	flush(t, c, h.rec)

	if !h.client.Connected() {
		t.Fatal("malformed frames broke the connection")
	}
	expectNone(t, h.rec.disconnects, "disconnect")
}

func TestReconnect_BackoffSequence(t *testing.T) {
	h := newHarness()
	h.transport.setFail(errors.New("connection refused"))

	h.client.Connect(context.Background())
	err := receive(t, h.rec.disconnects, "dial failure")
	var ierr *TransportInitError
	if !errors.As(err, &ierr) {
		t.Fatalf("err = %v, want TransportInitError", err)
	}

	want := []time.Duration{
		1000 * time.Millisecond,
		1500 * time.Millisecond,
		2250 * time.Millisecond,
		3375 * time.Millisecond,
		5062500 * time.Microsecond,
		7593750 * time.Microsecond,
		11390625 * time.Microsecond,
		15 * time.Second,
		15 * time.Second,
	}
	for i, d := range want {
		p := h.clock.Pending()
		if len(p) != 1 || p[0] != d {
			t.Fatalf("attempt %d: reconnect timers = %v, want [%v]", i, p, d)
		}
		h.clock.Advance(d)
		receive(t, h.rec.disconnects, "dial failure")
	}

	// a successful handshake resets the schedule
	h.transport.setFail(nil)
	h.clock.Advance(15 * time.Second)
	c := receive(t, h.transport.conns, "dial")
	pushEvent(t, c, protocol.EventConnectChallenge, nil)
	req := readRequest(t, c)
	pushOK(t, c, req.ID, map[string]string{"type": "hello-ok"})
	receive(t, h.rec.connects, "OnConnect")

	c.Close() // server drops the connection
	receive(t, h.rec.disconnects, "connection loss")
	if p := h.clock.Pending(); len(p) != 1 || p[0] != time.Second {
		t.Fatalf("after reset reconnect timers = %v", p)
	}
}

func TestReconnect_SingleTimer(t *testing.T) {
	h := newHarness()
	h.transport.setFail(errors.New("refused"))
	h.client.Connect(context.Background())
	h.client.Connect(context.Background())
	h.client.Connect(context.Background())
	if p := h.clock.Pending(); len(p) != 1 {
		t.Fatalf("reconnect timers = %v, want exactly one", p)
	}
}

func TestDisconnect(t *testing.T) {
	h := newHarness()
	c := h.connect(t)

	done := sendAsync(h.client, "in flight")
	readRequest(t, c)

	h.client.Disconnect()
	if err := receive(t, h.rec.disconnects, "OnDisconnect"); err != nil {
		t.Fatalf("explicit disconnect reported %v", err)
	}
	if !c.isClosed() {
		t.Fatal("transport not closed")
	}
	if h.client.State() != StateDisconnected {
		t.Fatalf("state = %s", h.client.State())
	}
	expectNone(t, h.rec.disconnects, "second OnDisconnect")

	// abandoned, not rejected
	expectNone(t, done, "result on disconnect")
	if p := h.clock.Pending(); len(p) != 1 || p[0] != 60*time.Second {
		t.Fatalf("timers after disconnect = %v, want only the request timeout", p)
	}
	h.clock.Advance(60 * time.Second)
	if res := receive(t, done, "timeout"); !errors.Is(res.err, ErrRequestTimeout) {
		t.Fatalf("err = %v", res.err)
	}

	// reconnecting later works
	c2 := h.connect(t)
	if c2 == c {
		t.Fatal("expected a fresh connection")
	}
}

func TestDisconnect_CancelsReconnect(t *testing.T) {
	h := newHarness()
	h.transport.setFail(errors.New("refused"))
	h.client.Connect(context.Background())
	receive(t, h.rec.disconnects, "dial failure")

	h.client.Disconnect()
	if p := h.clock.Pending(); len(p) != 0 {
		t.Fatalf("timers = %v after Disconnect", p)
	}
	h.clock.Advance(time.Minute)
	h.transport.mu.Lock()
	dials := h.transport.dials
	h.transport.mu.Unlock()
	if dials != 1 {
		t.Fatalf("dials = %d, want 1", dials)
	}
}

func TestBackoff(t *testing.T) {
	b := DefaultBackoff()
	got := []time.Duration{b.Next(), b.Next(), b.Next()}
	want := []time.Duration{time.Second, 1500 * time.Millisecond, 2250 * time.Millisecond}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Next #%d = %v, want %v", i, got[i], want[i])
		}
	}
	for i := 0; i < 20; i++ {
		if d := b.Next(); d > 15*time.Second {
			t.Fatalf("delay %v exceeds cap", d)
		}
	}
	b.Reset()
	if d := b.Next(); d != time.Second {
		t.Fatalf("after reset Next = %v", d)
	}
}
