// Package gatewayclient is a reconnecting client for the chat gateway's
// WebSocket protocol: challenge/connect handshake, correlated requests with
// timeouts, chat.send, and dispatch of chat and agent events.
package gatewayclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/clawface/internal/clock"
	"github.com/nextlevelbuilder/clawface/internal/normalize"
	"github.com/nextlevelbuilder/clawface/pkg/protocol"
)

// Version is reported in connect params.
const Version = "1.0.0"

// DefaultRequestTimeout bounds the wait for a terminal response.
const DefaultRequestTimeout = 60 * time.Second

// State is the connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingChallenge
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingChallenge:
		return "awaiting-challenge"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config configures a Client. Zero fields take the documented defaults.
type Config struct {
	URL        string
	Token      string
	SessionKey string   // default "face"
	ClientID   string   // default "webchat"
	Platform   string   // default "cli"
	Mode       string   // default "webchat"
	Locale     string   // default "en"
	UserAgent  string   // default "clawface/<Version>"
	Scopes     []string // default operator.read, operator.write

	RequestTimeout time.Duration
	Backoff        *Backoff

	Clock     clock.Clock
	Transport Transport
}

func (c *Config) applyDefaults() {
	if c.SessionKey == "" {
		c.SessionKey = "face"
	}
	if c.ClientID == "" {
		c.ClientID = "webchat"
	}
	if c.Platform == "" {
		c.Platform = "cli"
	}
	if c.Mode == "" {
		c.Mode = "webchat"
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
	if c.UserAgent == "" {
		c.UserAgent = "clawface/" + Version
	}
	if len(c.Scopes) == 0 {
		c.Scopes = []string{"operator.read", "operator.write"}
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.Backoff == nil {
		c.Backoff = DefaultBackoff()
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.Transport == nil {
		c.Transport = NewWSTransport()
	}
}

// Client is a reconnecting gateway connection. Safe for concurrent use.
type Client struct {
	cfg     Config
	handler Handler
	ids     idGenerator
	tracer  trace.Tracer

	mu        sync.Mutex
	state     State
	conn      Conn
	gen       uint64 // bumped per connection attempt and on Disconnect
	connectID string // outstanding handshake request
	closeErr  error  // reported instead of the read error when we closed the conn
	pending   pendingMap
	reconnect clock.Timer
	reconnGen uint64
}

// New creates a client. A nil handler discards callbacks.
func New(cfg Config, h Handler) *Client {
	cfg.applyDefaults()
	if h == nil {
		h = HandlerFuncs{}
	}
	c := &Client{
		cfg:     cfg,
		handler: h,
		tracer:  otel.Tracer("github.com/nextlevelbuilder/clawface/gatewayclient"),
		pending: make(pendingMap),
	}
	c.ids.clock = cfg.Clock
	return c
}

// SessionKey is the session this client sends to and listens on.
func (c *Client) SessionKey() string { return c.cfg.SessionKey }

// State returns the connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the handshake has completed.
func (c *Client) Connected() bool { return c.State() == StateConnected }

// Connect opens the transport if no connection or attempt exists. It blocks
// only for the dial; the handshake completes in the background and is
// reported through OnConnect. Dial failures are reported through
// OnDisconnect and retried with backoff.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.cancelReconnect()
	c.state = StateConnecting
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	conn, err := c.cfg.Transport.Dial(ctx, c.cfg.URL)

	c.mu.Lock()
	if c.gen != gen {
		// Disconnect raced the dial.
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.state = StateDisconnected
		c.scheduleReconnect()
		c.mu.Unlock()
		initErr := &TransportInitError{URL: c.cfg.URL, Err: err}
		slog.Warn("gateway client: connect failed", "error", initErr)
		c.handler.OnDisconnect(initErr)
		return
	}
	c.conn = conn
	c.state = StateAwaitingChallenge
	c.closeErr = nil
	c.mu.Unlock()

	slog.Info("gateway client: transport open, awaiting challenge", "url", c.cfg.URL)
	go c.readLoop(gen, conn)
}

// Disconnect cancels any pending reconnect and closes the connection.
// In-flight requests are abandoned, not rejected; they still time out.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.cancelReconnect()
	c.gen++
	conn := c.conn
	was := c.state
	c.conn = nil
	c.state = StateDisconnected
	c.connectID = ""
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if was != StateDisconnected {
		slog.Info("gateway client: disconnected by caller")
		c.handler.OnDisconnect(nil)
	}
}

// Send issues chat.send for the client's session with a fresh idempotency key
// and waits for the terminal response.
func (c *Client) Send(ctx context.Context, text string) (json.RawMessage, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}
	return c.Request(ctx, protocol.MethodChatSend, protocol.ChatSendParams{
		SessionKey:     c.cfg.SessionKey,
		Message:        text,
		IdempotencyKey: uuid.NewString(),
	})
}

// Request sends one RPC and waits for its terminal response. "accepted"
// acknowledgements keep waiting without extending the timeout.
func (c *Client) Request(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "gateway.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rpc.method", method)))
	defer span.End()

	payload, err := c.request(ctx, span, method, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return payload, err
}

func (c *Client) request(ctx context.Context, span trace.Span, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	if c.state != StateConnected || c.conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	id := c.ids.next()
	span.SetAttributes(attribute.String("gateway.request_id", id))

	p := &pendingRequest{method: method, done: make(chan result, 1)}
	c.pending[id] = p
	p.timer = c.cfg.Clock.AfterFunc(c.cfg.RequestTimeout, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.pending.settle(id, result{err: ErrRequestTimeout}) {
			slog.Warn("gateway client: request timed out", "id", id, "method", method)
		}
	})
	conn := c.conn
	c.mu.Unlock()

	data, err := json.Marshal(protocol.NewRequest(id, method, params))
	if err == nil {
		err = conn.WriteMessage(data)
	}
	if err != nil {
		c.mu.Lock()
		c.pending.drop(id)
		c.mu.Unlock()
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case r := <-p.done:
		return r.payload, r.err
	case <-ctx.Done():
		c.mu.Lock()
		c.pending.drop(id)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// PendingCount returns the number of requests awaiting a terminal response.
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// scheduleReconnect arms the single reconnect timer. Caller holds c.mu.
func (c *Client) scheduleReconnect() {
	if c.reconnect != nil {
		return
	}
	d := c.cfg.Backoff.Next()
	gen := c.reconnGen
	slog.Info("gateway client: reconnect scheduled", "delay", d)
	c.reconnect = c.cfg.Clock.AfterFunc(d, func() {
		c.mu.Lock()
		if c.reconnGen != gen {
			c.mu.Unlock()
			return
		}
		c.reconnect = nil
		c.mu.Unlock()
		c.Connect(context.Background())
	})
}

// cancelReconnect stops the reconnect timer. Caller holds c.mu.
func (c *Client) cancelReconnect() {
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	c.reconnGen++
}

func (c *Client) readLoop(gen uint64, conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, conn, err)
			return
		}
		c.handleFrame(gen, conn, data)
	}
}

func (c *Client) handleClose(gen uint64, conn Conn, err error) {
	conn.Close()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	if c.closeErr != nil {
		err = c.closeErr
		c.closeErr = nil
	}
	c.conn = nil
	c.state = StateDisconnected
	c.connectID = ""
	c.scheduleReconnect()
	c.mu.Unlock()

	slog.Info("gateway client: connection closed", "error", err)
	c.handler.OnDisconnect(err)
}

func (c *Client) handleFrame(gen uint64, conn Conn, data []byte) {
	frameType, err := protocol.ParseFrameType(data)
	if err != nil {
		slog.Debug("gateway client: dropping frame", "error", &MalformedFrameError{Err: err})
		return
	}

	switch frameType {
	case protocol.FrameTypeEvent:
		var ev protocol.EventFrame
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Debug("gateway client: dropping frame", "error", &MalformedFrameError{Err: err})
			return
		}
		c.handleEvent(gen, conn, &ev)

	case protocol.FrameTypeResponse:
		var res protocol.ResponseFrame
		if err := json.Unmarshal(data, &res); err != nil {
			slog.Debug("gateway client: dropping frame", "error", &MalformedFrameError{Err: err})
			return
		}
		c.handleResponse(gen, conn, &res)

	default:
		slog.Debug("gateway client: ignoring frame", "type", frameType)
	}
}

func (c *Client) handleEvent(gen uint64, conn Conn, ev *protocol.EventFrame) {
	switch ev.Event {
	case protocol.EventConnectChallenge:
		c.sendConnect(gen, conn)

	case protocol.EventChat:
		if chat, ok := normalize.Chat(ev.Payload, c.cfg.SessionKey); ok {
			c.handler.OnChat(chat)
		}

	case protocol.EventAgent:
		if agent, ok := normalize.Agent(ev.Payload); ok {
			c.handler.OnAgent(agent)
		}
	}
}

func (c *Client) connectParams() protocol.ConnectParams {
	return protocol.ConnectParams{
		MinProtocol: protocol.ProtocolVersion,
		MaxProtocol: protocol.ProtocolVersion,
		Client: protocol.ConnectClient{
			ID:       c.cfg.ClientID,
			Version:  Version,
			Platform: c.cfg.Platform,
			Mode:     c.cfg.Mode,
		},
		Role:        "operator",
		Scopes:      c.cfg.Scopes,
		Caps:        []string{},
		Commands:    []string{},
		Permissions: map[string]interface{}{},
		Auth:        protocol.ConnectAuth{Token: c.cfg.Token},
		Locale:      c.cfg.Locale,
		UserAgent:   c.cfg.UserAgent,
	}
}

func (c *Client) sendConnect(gen uint64, conn Conn) {
	c.mu.Lock()
	if c.gen != gen || c.state != StateAwaitingChallenge || c.connectID != "" {
		state := c.state
		c.mu.Unlock()
		slog.Debug("gateway client: ignoring challenge", "state", state)
		return
	}
	id := c.ids.next()
	c.connectID = id
	c.mu.Unlock()

	data, err := json.Marshal(protocol.NewRequest(id, protocol.MethodConnect, c.connectParams()))
	if err == nil {
		err = conn.WriteMessage(data)
	}
	if err != nil {
		slog.Warn("gateway client: send connect failed", "error", err)
		conn.Close()
	}
}

func (c *Client) handleResponse(gen uint64, conn Conn, res *protocol.ResponseFrame) {
	meta := protocol.ParseResponseMeta(res.Payload)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}

	if res.OK && meta.Type == protocol.ResponseTypeHelloOK {
		if c.state != StateAwaitingChallenge || c.connectID == "" {
			state := c.state
			c.mu.Unlock()
			slog.Debug("gateway client: unexpected hello-ok", "state", state)
			return
		}
		c.state = StateConnected
		c.connectID = ""
		c.cfg.Backoff.Reset()
		c.mu.Unlock()
		slog.Info("gateway client: connected", "session", c.cfg.SessionKey)
		c.handler.OnConnect()
		return
	}

	if c.connectID != "" && res.ID == c.connectID {
		if res.OK {
			c.mu.Unlock()
			slog.Debug("gateway client: connect response without hello-ok")
			return
		}
		rerr := remoteError(res)
		c.connectID = ""
		c.closeErr = rerr
		c.mu.Unlock()
		slog.Warn("gateway client: handshake rejected", "error", rerr)
		conn.Close()
		return
	}

	p, ok := c.pending[res.ID]
	if !ok {
		c.mu.Unlock()
		slog.Debug("gateway client: response for unknown request", "id", res.ID)
		return
	}
	if res.OK && meta.Status == protocol.ResponseStatusAccepted {
		p.accepted = true
		c.mu.Unlock()
		return
	}
	r := result{payload: res.Payload}
	if !res.OK {
		r.err = remoteError(res)
	}
	c.pending.settle(res.ID, r)
	c.mu.Unlock()
}

func remoteError(res *protocol.ResponseFrame) *RemoteError {
	e := &RemoteError{Message: "error"}
	if res.Error != nil {
		e.Code = res.Error.Code
		if res.Error.Message != "" {
			e.Message = res.Error.Message
		}
	}
	return e
}
