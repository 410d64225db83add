package face

// State is a snapshot of everything a renderer needs to draw the face.
type State struct {
	Seq uint64 `json:"seq"`

	Expression string `json:"expression"` // currently drawn expression
	Target     string `json:"target"`     // expression being faded to (== Expression when not fading)
	Def        Def    `json:"def"`        // geometry of Expression
	Fading     bool   `json:"fading"`
	Idle       bool   `json:"idle"`
	Ambient    bool   `json:"ambient"` // working-mode background
	Label      string `json:"label"`

	PupilX   float64 `json:"pupilX"`
	PupilY   float64 `json:"pupilY"`
	Blinking bool    `json:"blinking"`

	Speaking  bool   `json:"speaking"`
	Mouth     string `json:"mouth"`
	MouthOpen bool   `json:"mouthOpen"`

	Thought        string `json:"thought,omitempty"`
	ThoughtVisible bool   `json:"thoughtVisible"`

	Subtitle        string `json:"subtitle,omitempty"`     // revealed part
	SubtitleText    string `json:"subtitleText,omitempty"` // full text being revealed
	SubtitleVisible bool   `json:"subtitleVisible"`
}

// Renderer draws engine state. Render is called with the engine lock held,
// in mutation order; implementations must not call back into the Engine and
// should return quickly.
type Renderer interface {
	Render(State)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(State)

func (f RendererFunc) Render(s State) { f(s) }

// Renderers fans out to several renderers in order.
type Renderers []Renderer

func (rs Renderers) Render(s State) {
	for _, r := range rs {
		r.Render(s)
	}
}

// ThoughtSource supplies idle thoughts.
type ThoughtSource interface {
	// Refresh starts a background refresh if the dynamic cache is stale.
	// It must not block.
	Refresh()
	// Pick returns one thought.
	Pick(r Rand) string
}

// Rand is the randomness the engine consumes. *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
}
