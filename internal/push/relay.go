package push

import (
	"context"
	"sync"

	"github.com/nextlevelbuilder/clawface/internal/face"
)

// Message is the compact face state sent to browser faces. It changes only
// when something a viewer would notice changes, not on every animation
// frame.
type Message struct {
	Expression string `json:"expression"`
	Label      string `json:"label"`
	Glow       string `json:"glow"`
	Idle       bool   `json:"idle"`
	Ambient    bool   `json:"ambient"`
	Talking    bool   `json:"talking"`
	Thought    string `json:"thought,omitempty"`
	Subtitle   string `json:"subtitle,omitempty"`
}

// MessageFromState reduces an engine state to a Message.
func MessageFromState(st face.State) Message {
	m := Message{
		Expression: st.Target,
		Idle:       st.Idle,
		Ambient:    st.Ambient,
		Talking:    st.Speaking,
	}
	if def, ok := face.Lookup(st.Target); ok {
		m.Label = def.BaseLabel()
		m.Glow = def.Glow
	}
	if st.ThoughtVisible {
		m.Thought = st.Thought
	}
	if st.SubtitleVisible {
		m.Subtitle = st.SubtitleText
	}
	return m
}

// Map returns m as a JSON-ready map, adding audioFile when set.
func (m Message) Map(audioFile string) map[string]any {
	out := map[string]any{
		"expression": m.Expression,
		"label":      m.Label,
		"glow":       m.Glow,
		"idle":       m.Idle,
		"ambient":    m.Ambient,
		"talking":    m.Talking,
	}
	if m.Thought != "" {
		out["thought"] = m.Thought
	}
	if m.Subtitle != "" {
		out["subtitle"] = m.Subtitle
	}
	if audioFile != "" {
		out["audioFile"] = audioFile
	}
	return out
}

// PublishFunc delivers one state to subscribers of target.
type PublishFunc func(ctx context.Context, target string, state map[string]any)

// Relay is a face.Renderer that forwards state changes to a PublishFunc
// from its own goroutine, so rendering never waits on subscribers or
// snapshot writes. Bursts collapse to the latest state.
type Relay struct {
	target  string
	publish PublishFunc

	mu      sync.Mutex
	last    Message
	pending bool
	audio   string
	wake    chan struct{}
}

func NewRelay(target string, publish PublishFunc) *Relay {
	return &Relay{target: target, publish: publish, wake: make(chan struct{}, 1)}
}

func (r *Relay) Render(st face.State) {
	m := MessageFromState(st)
	r.mu.Lock()
	if m == r.last {
		r.mu.Unlock()
		return
	}
	r.last = m
	r.pending = true
	r.mu.Unlock()
	r.signal()
}

// SetAudio attaches an audio URL to the next published message only.
func (r *Relay) SetAudio(url string) {
	r.mu.Lock()
	r.audio = url
	r.pending = true
	r.mu.Unlock()
	r.signal()
}

func (r *Relay) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run publishes until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.wake:
		}
		r.mu.Lock()
		if !r.pending {
			r.mu.Unlock()
			continue
		}
		msg, audio := r.last, r.audio
		r.pending = false
		r.audio = ""
		r.mu.Unlock()

		r.publish(ctx, r.target, msg.Map(audio))
	}
}
