// Package bridge turns gateway traffic into face reactions: thinking while a
// message is in flight, focus while tokens stream, an inferred mood and a
// subtitle for the final reply, and tool-specific expressions while the agent
// works.
package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/clawface/internal/face"
	"github.com/nextlevelbuilder/clawface/internal/gatewayclient"
	"github.com/nextlevelbuilder/clawface/internal/inference"
	"github.com/nextlevelbuilder/clawface/internal/normalize"
	"github.com/nextlevelbuilder/clawface/internal/textproc"
	"github.com/nextlevelbuilder/clawface/pkg/protocol"
)

const (
	sendingHold   = 30 * time.Second
	streamingHold = 15 * time.Second
	errorHold     = 5 * time.Second
	abortedHold   = 3 * time.Second
	speakTimeout  = 60 * time.Second
)

// Face is the part of the expression engine the bridge drives.
type Face interface {
	Set(name string, d time.Duration)
	Current() string
	Subtitle(text string, d time.Duration)
	Talk(d time.Duration)
}

// Sender sends chat messages.
type Sender interface {
	Connected() bool
	Send(ctx context.Context, text string) (json.RawMessage, error)
}

// Speaker voices a reply and reports how long playback will take.
type Speaker interface {
	Speak(ctx context.Context, text string) (time.Duration, error)
}

// Callbacks are optional hooks fired after the face has reacted.
type Callbacks struct {
	OnConnect    func()
	OnDisconnect func(err error)
	OnMessage    func(text string, ev normalize.ChatEvent)
	OnDelta      func(text string, ev normalize.ChatEvent)
	OnToolUse    func(tool string, ev normalize.AgentEvent)
	OnError      func(msg string)
}

// Options configures a Bridge.
type Options struct {
	// AutoExpressions lets chat and tool events change the expression.
	AutoExpressions bool
	Speaker         Speaker
	Callbacks       Callbacks
}

// Bridge implements gatewayclient.Handler. The face may be nil, in which
// case only callbacks fire.
type Bridge struct {
	face    Face
	auto    bool
	speaker Speaker
	cb      Callbacks
	sender  Sender
}

var _ gatewayclient.Handler = (*Bridge)(nil)

// New creates a bridge for f.
func New(f Face, opts Options) *Bridge {
	return &Bridge{
		face:    f,
		auto:    opts.AutoExpressions,
		speaker: opts.Speaker,
		cb:      opts.Callbacks,
	}
}

// Attach sets the sender used by Send. Call before connecting.
func (b *Bridge) Attach(s Sender) { b.sender = s }

func (b *Bridge) animate() bool { return b.auto && b.face != nil }

// Send shows "thinking" and sends text. It fails fast when not connected,
// without touching the face.
func (b *Bridge) Send(ctx context.Context, text string) (json.RawMessage, error) {
	if b.sender == nil || !b.sender.Connected() {
		return nil, gatewayclient.ErrNotConnected
	}
	if b.animate() {
		b.face.Set(face.Thinking, sendingHold)
	}
	return b.sender.Send(ctx, text)
}

func (b *Bridge) OnConnect() {
	if b.cb.OnConnect != nil {
		b.cb.OnConnect()
	}
}

func (b *Bridge) OnDisconnect(err error) {
	if b.cb.OnDisconnect != nil {
		b.cb.OnDisconnect(err)
	}
}

func (b *Bridge) OnChat(ev normalize.ChatEvent) {
	switch ev.State {
	case protocol.ChatStateDelta:
		if b.animate() && b.face.Current() == face.Thinking {
			b.face.Set(face.Focused, streamingHold)
		}
		if b.cb.OnDelta != nil {
			b.cb.OnDelta(ev.Text, ev)
		}

	case protocol.ChatStateFinal:
		if ev.Text != "" {
			b.react(ev.Text)
		}
		if b.cb.OnMessage != nil {
			b.cb.OnMessage(ev.Text, ev)
		}

	case protocol.ChatStateError:
		if b.animate() {
			b.face.Set(face.Confused, errorHold)
		}
		msg := ev.ErrorMessage
		if msg == "" {
			msg = "Unknown error"
		}
		if b.cb.OnError != nil {
			b.cb.OnError(msg)
		}

	case protocol.ChatStateAborted:
		if b.animate() {
			b.face.Set(face.Surprised, abortedHold)
		}
	}
}

// react sets the inferred expression, the subtitle and optionally speech for
// a final reply.
func (b *Bridge) react(text string) {
	clean := textproc.StripMedia(text)
	if b.animate() {
		b.face.Set(inference.Expression(clean), inference.ReplyDuration(clean))
	}
	if b.face != nil {
		if sub := textproc.Subtitle(text); sub != "" {
			b.face.Subtitle(sub, inference.SubtitleDuration(sub))
		}
	}
	if b.speaker != nil {
		if spoken := textproc.Speech.Apply(clean); spoken != "" {
			go b.speak(spoken)
		}
	}
}

func (b *Bridge) speak(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
	defer cancel()
	d, err := b.speaker.Speak(ctx, text)
	if err != nil {
		slog.Warn("bridge: speech failed", "error", err)
		return
	}
	if b.face != nil {
		b.face.Talk(d)
	}
}

func (b *Bridge) OnAgent(ev normalize.AgentEvent) {
	if !ev.HasTool() {
		return
	}
	if b.animate() {
		r := inference.ForTool(ev.Tool)
		b.face.Set(r.Expression, r.Duration)
	}
	if b.cb.OnToolUse != nil {
		b.cb.OnToolUse(ev.Tool, ev)
	}
}
