package face

import "strings"

// Expression names.
const (
	Idle          = "idle"
	Happy         = "happy"
	Thinking      = "thinking"
	Investigating = "investigating"
	Sleepy        = "sleepy"
	Bored         = "bored"
	Amused        = "amused"
	Surprised     = "surprised"
	Focused       = "focused"
	Cool          = "cool"
	Confused      = "confused"
	Excited       = "excited"
	Sad           = "sad"
	Love          = "love"
	Alert         = "alert"
	Working       = "working"
)

// Eye styles.
const (
	EyeNormal   = "normal"
	EyeHappy    = "happy"
	EyeSleepy   = "sleepy"
	EyeHalfOpen = "halfopen"
	EyeCool     = "cool"
	EyeHeart    = "heart"
	EyeStar     = "star"
	EyeWorking  = "working"
	EyeFocused  = "focused"
	EyeConfused = "confused"
)

// Def is the geometry of one expression. Mouth is an SVG path in the
// 400x300 face viewbox.
type Def struct {
	Name      string  `json:"name"`
	EyeRx     float64 `json:"eyeRx"`
	EyeRy     float64 `json:"eyeRy"`
	PupilR    float64 `json:"pupilR"`
	PupilOffX float64 `json:"pupilOffX"`
	PupilOffY float64 `json:"pupilOffY"`
	EyeStyle  string  `json:"eyeStyle"`
	Mouth     string  `json:"mouth"`
	MouthOpen bool    `json:"mouthOpen,omitempty"`
	Label     string  `json:"label"`
	Glow      string  `json:"glow"`
	NoBlink   bool    `json:"noBlink,omitempty"`
}

// CanBlink reports whether blinking is allowed. Arc eyes (happy, sleepy)
// are already closed-looking and never blink.
func (d Def) CanBlink() bool {
	return !d.NoBlink && d.EyeStyle != EyeHappy && d.EyeStyle != EyeSleepy
}

// AnimatesLabel reports whether the label shows an ongoing action and gets
// the animated ellipsis.
func (d Def) AnimatesLabel() bool {
	return strings.Contains(strings.ToLower(d.Label), "working")
}

// BaseLabel is the label with trailing dots removed.
func (d Def) BaseLabel() string {
	return strings.TrimRight(d.Label, ".")
}

var catalog = []Def{
	{Name: Idle, EyeRx: 18, EyeRy: 20, PupilR: 7, PupilOffY: 2, EyeStyle: EyeNormal,
		Mouth: "M 170,180 Q 200,198 230,180", Label: "idle", Glow: "#4a9eff"},
	{Name: Happy, EyeRx: 18, EyeRy: 12, PupilR: 6, EyeStyle: EyeHappy,
		Mouth: "M 165,175 Q 200,212 235,175", Label: "happy", Glow: "#ffda6b"},
	{Name: Thinking, EyeRx: 16, EyeRy: 20, PupilR: 7, PupilOffX: 6, EyeStyle: EyeNormal,
		Mouth: "M 175,185 Q 200,185 225,180", Label: "thinking", Glow: "#a78bfa"},
	{Name: Investigating, EyeRx: 22, EyeRy: 24, PupilR: 5, EyeStyle: EyeNormal,
		Mouth: "M 180,185 L 220,185", Label: "investigating", Glow: "#f97316"},
	{Name: Sleepy, EyeRx: 16, EyeRy: 5, PupilR: 4, EyeStyle: EyeSleepy,
		Mouth: "M 175,183 Q 200,190 225,183", Label: "zzz...", Glow: "#3b4f7a", NoBlink: true},
	{Name: Bored, EyeRx: 18, EyeRy: 10, PupilR: 6, PupilOffY: 2, EyeStyle: EyeHalfOpen,
		Mouth: "M 180,185 L 220,185", Label: "bored", Glow: "#6b7280"},
	{Name: Amused, EyeRx: 16, EyeRy: 11, PupilR: 5, EyeStyle: EyeHappy,
		Mouth: "M 160,172 Q 200,218 240,172", Label: "haha", Glow: "#34d399"},
	{Name: Surprised, EyeRx: 24, EyeRy: 26, PupilR: 5, EyeStyle: EyeNormal,
		Mouth: "M 185,180 Q 200,200 215,180 Q 200,200 185,180", MouthOpen: true, Label: "!?", Glow: "#f43f5e"},
	{Name: Focused, EyeRx: 16, EyeRy: 14, PupilR: 6, PupilOffY: 2, EyeStyle: EyeFocused,
		Mouth: "M 180,185 L 220,183", Label: "working", Glow: "#06b6d4"},
	{Name: Cool, EyeRx: 20, EyeRy: 8, PupilR: 0, EyeStyle: EyeCool,
		Mouth: "M 172,180 Q 200,195 228,180", Label: "cool", Glow: "#8b5cf6", NoBlink: true},
	{Name: Confused, EyeRx: 18, EyeRy: 20, PupilR: 7, PupilOffX: -3, EyeStyle: EyeConfused,
		Mouth: "M 175,183 Q 200,183 220,190", Label: "huh?", Glow: "#fbbf24"},
	{Name: Excited, EyeRx: 20, EyeRy: 20, PupilR: 4, PupilOffY: -2, EyeStyle: EyeStar,
		Mouth: "M 160,170 Q 200,218 240,170", Label: "!!", Glow: "#ec4899"},
	{Name: Sad, EyeRx: 16, EyeRy: 18, PupilR: 7, PupilOffY: 5, EyeStyle: EyeNormal,
		Mouth: "M 172,195 Q 200,178 228,195", Label: "...", Glow: "#475569"},
	{Name: Love, EyeRx: 18, EyeRy: 18, PupilR: 0, EyeStyle: EyeHeart,
		Mouth: "M 165,175 Q 200,212 235,175", Label: "♥", Glow: "#f43f5e", NoBlink: true},
	{Name: Alert, EyeRx: 22, EyeRy: 22, PupilR: 4, EyeStyle: EyeNormal,
		Mouth: "M 185,170 L 215,170", Label: "alert", Glow: "#ef4444"},
	{Name: Working, EyeRx: 15, EyeRy: 12, PupilR: 5, PupilOffY: 2, EyeStyle: EyeWorking,
		Mouth: "M 182,186 L 218,186", Label: "working hard...", Glow: "#3b82f6"},
}

var byName = func() map[string]Def {
	m := make(map[string]Def, len(catalog))
	for _, d := range catalog {
		m[d.Name] = d
	}
	return m
}()

// IdlePool is what idle cycling picks from.
var IdlePool = []string{Idle, Happy, Sleepy, Bored, Thinking, Cool, Amused}

// ambient "working-mode" expressions
var workingSet = map[string]bool{Working: true, Focused: true, Investigating: true}

// expressions during which thoughts may show even when not idle
var thoughtfulSet = map[string]bool{Idle: true, Bored: true, Thinking: true, Sleepy: true, Confused: true}

// Lookup returns the definition of name.
func Lookup(name string) (Def, bool) {
	d, ok := byName[name]
	return d, ok
}

// Names lists the catalog in declaration order.
func Names() []string {
	out := make([]string, len(catalog))
	for i, d := range catalog {
		out[i] = d.Name
	}
	return out
}

// IsWorking reports whether name switches on the ambient working mode.
func IsWorking(name string) bool { return workingSet[name] }

// IsThoughtful reports whether thoughts may appear while name is displayed.
func IsThoughtful(name string) bool { return thoughtfulSet[name] }
