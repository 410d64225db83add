package gatewayclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nextlevelbuilder/clawface/internal/clock"
	"github.com/nextlevelbuilder/clawface/internal/normalize"
	"github.com/nextlevelbuilder/clawface/pkg/protocol"
)

type fakeConn struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 64),
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case d := <-c.in:
		return d, nil
	case <-c.closed:
		return nil, errors.New("connection closed")
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	c.out <- data
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeTransport struct {
	mu    sync.Mutex
	fail  error
	dials int
	conns chan *fakeConn
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{conns: make(chan *fakeConn, 16)}
}

func (t *fakeTransport) setFail(err error) {
	t.mu.Lock()
	t.fail = err
	t.mu.Unlock()
}

func (t *fakeTransport) Dial(ctx context.Context, url string) (Conn, error) {
	t.mu.Lock()
	t.dials++
	fail := t.fail
	t.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	c := newFakeConn()
	t.conns <- c
	return c, nil
}

// recorder collects handler callbacks on channels.
type recorder struct {
	connects    chan struct{}
	disconnects chan error
	chats       chan normalize.ChatEvent
	agents      chan normalize.AgentEvent
}

func newRecorder() *recorder {
	return &recorder{
		connects:    make(chan struct{}, 16),
		disconnects: make(chan error, 16),
		chats:       make(chan normalize.ChatEvent, 16),
		agents:      make(chan normalize.AgentEvent, 16),
	}
}

func (r *recorder) OnConnect()                      { r.connects <- struct{}{} }
func (r *recorder) OnDisconnect(err error)          { r.disconnects <- err }
func (r *recorder) OnChat(ev normalize.ChatEvent)   { r.chats <- ev }
func (r *recorder) OnAgent(ev normalize.AgentEvent) { r.agents <- ev }

const waitTimeout = 2 * time.Second

func receive[T any](t *testing.T, ch chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
		var zero T
		return zero
	}
}

func expectNone[T any](t *testing.T, ch chan T, what string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected %s: %+v", what, v)
	case <-time.After(20 * time.Millisecond):
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

type sentRequest struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func readRequest(t *testing.T, c *fakeConn) sentRequest {
	t.Helper()
	data := receive(t, c.out, "outbound frame")
	var req sentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("decode outbound frame: %v", err)
	}
	return req
}

func push(t *testing.T, c *fakeConn, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	c.in <- data
}

func pushEvent(t *testing.T, c *fakeConn, event string, payload interface{}) {
	t.Helper()
	ev, err := protocol.NewEvent(event, payload)
	if err != nil {
		t.Fatal(err)
	}
	push(t, c, ev)
}

func pushOK(t *testing.T, c *fakeConn, id string, payload interface{}) {
	t.Helper()
	res, err := protocol.NewOKResponse(id, payload)
	if err != nil {
		t.Fatal(err)
	}
	push(t, c, res)
}

// flush pushes a marker chat event and waits for it, proving every earlier
// frame on the connection has been processed.
func flush(t *testing.T, c *fakeConn, rec *recorder) {
	t.Helper()
	pushEvent(t, c, protocol.EventChat, map[string]string{"state": "marker"})
	for {
		ev := receive(t, rec.chats, "marker event")
		if ev.State == "marker" {
			return
		}
	}
}

type harness struct {
	client    *Client
	clock     *clock.Fake
	transport *fakeTransport
	rec       *recorder
}

func newHarness() *harness {
	h := &harness{
		clock:     clock.NewFake(),
		transport: newFakeTransport(),
		rec:       newRecorder(),
	}
	h.client = New(Config{
		URL:        "ws://gateway.test/ws",
		Token:      "secret",
		SessionKey: "face",
		Clock:      h.clock,
		Transport:  h.transport,
	}, h.rec)
	return h
}

// connect dials and completes the handshake, returning the live connection.
func (h *harness) connect(t *testing.T) *fakeConn {
	t.Helper()
	h.client.Connect(context.Background())
	c := receive(t, h.transport.conns, "dial")
	pushEvent(t, c, protocol.EventConnectChallenge, map[string]string{"nonce": "n"})
	req := readRequest(t, c)
	if req.Method != protocol.MethodConnect {
		t.Fatalf("first request = %q, want connect", req.Method)
	}
	pushOK(t, c, req.ID, map[string]interface{}{"type": "hello-ok", "protocol": 3})
	receive(t, h.rec.connects, "OnConnect")
	return c
}
