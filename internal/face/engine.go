// Package face implements the expression engine: a state machine over a
// fixed catalog of expressions with cross-fades, idle cycling, blinking,
// pupil drift, talking, typewriter subtitles and idle thoughts.
//
// All state lives behind one mutex. Every timer belongs to a slot so a newer
// transition always invalidates a stale callback.
package face

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nextlevelbuilder/clawface/internal/clock"
)

const (
	fadeDuration = 400 * time.Millisecond

	idleMin = 15 * time.Second
	idleMax = 45 * time.Second

	labelDotsPeriod = 400 * time.Millisecond
)

// Options configures an Engine. Zero values select real time, a random
// source seeded from the runtime and no thoughts.
type Options struct {
	Clock    clock.Clock
	Rand     Rand
	Renderer Renderer
	Thoughts ThoughtSource
	IdlePool []string // defaults to IdlePool
}

// Engine is one face. Safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	clock    clock.Clock
	rand     Rand
	renderer Renderer
	thoughts ThoughtSource
	idlePool []string

	started bool
	closed  bool
	seq     uint64
	last    State

	current string // drawn
	target  string
	def     Def
	fading  bool
	idle    bool
	ambient bool
	label   string
	dots    int

	pupilX, pupilY float64
	blinking       bool

	speaking bool
	mouth    string

	thought        string
	thoughtVisible bool

	subtitle        string
	subtitleText    string
	subtitleVisible bool

	fade, labelDots           slot
	idleCycle, manualExpiry   slot
	blinkNext, blinkAgain     slot
	blinkOpen                 slot
	drift, driftReturn        slot
	talkFrame, talkStop       slot
	typing, subtitleHide      slot
	thoughtCycle, thoughtHide slot
}

// New creates an engine showing the idle expression. Timers start with Start.
func New(opts Options) *Engine {
	e := &Engine{
		clock:    opts.Clock,
		rand:     opts.Rand,
		renderer: opts.Renderer,
		thoughts: opts.Thoughts,
		idlePool: opts.IdlePool,
		idle:     true,
	}
	if e.clock == nil {
		e.clock = clock.Real()
	}
	if e.rand == nil {
		e.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if len(e.idlePool) == 0 {
		e.idlePool = IdlePool
	}
	e.target = Idle
	e.draw(Idle)
	return e
}

// Start begins idle cycling, blinking, pupil drift and thought cycling.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.closed {
		return
	}
	e.started = true
	e.startIdleCycle()
	e.scheduleBlink()
	e.startDrift()
	e.startThoughtCycle()
	e.render()
}

// Close cancels every timer. The engine ignores all calls afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, s := range []*slot{
		&e.fade, &e.labelDots, &e.idleCycle, &e.manualExpiry,
		&e.blinkNext, &e.blinkAgain, &e.blinkOpen, &e.drift, &e.driftReturn,
		&e.talkFrame, &e.talkStop, &e.typing, &e.subtitleHide,
		&e.thoughtCycle, &e.thoughtHide,
	} {
		s.cancel()
	}
}

// Set shows name as a manual override. Unknown names are ignored. With d > 0
// the engine returns to idle mode after d; with d <= 0 it stays until the
// next Set or Idle.
func (e *Engine) Set(name string, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if _, ok := Lookup(name); !ok {
		slog.Debug("face: unknown expression", "name", name)
		return
	}
	e.setExpression(name)
	e.idle = false
	e.idleCycle.cancel()
	e.manualExpiry.cancel()
	e.hideThought()
	if d > 0 {
		e.after(&e.manualExpiry, d, e.resumeIdle)
	}
	e.render()
}

// Idle returns to idle cycling immediately, cancelling any manual override.
func (e *Engine) Idle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.manualExpiry.cancel()
	e.resumeIdle()
	e.render()
}

// Current returns the expression most recently requested, including one
// still cross-fading in.
func (e *Engine) Current() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

// IsIdle reports whether the engine is in idle mode.
func (e *Engine) IsIdle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idle
}

// State returns the latest snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.snapshot()
	s.Seq = e.seq
	return s
}

func (e *Engine) resumeIdle() {
	e.idle = true
	e.startIdleCycle()
	e.startDrift()
	e.startThoughtCycle()
}

// setExpression starts a cross-fade to name. The ambient flag flips at once;
// geometry swaps when the fade completes. A newer call replaces a pending swap.
func (e *Engine) setExpression(name string) {
	e.target = name
	e.ambient = IsWorking(name)
	e.fading = true
	e.after(&e.fade, fadeDuration, func() {
		e.draw(name)
		e.fading = false
	})
}

func (e *Engine) draw(name string) {
	def, ok := Lookup(name)
	if !ok {
		return
	}
	e.current = name
	e.def = def
	e.pupilX, e.pupilY = def.PupilOffX, def.PupilOffY
	if !e.speaking {
		e.mouth = def.Mouth
	}

	e.labelDots.cancel()
	if def.AnimatesLabel() {
		base := def.BaseLabel()
		e.dots = 1
		e.label = base + "."
		var tick func()
		tick = func() {
			e.dots = e.dots%3 + 1
			e.label = base + dotString[:e.dots]
			e.after(&e.labelDots, labelDotsPeriod, tick)
		}
		e.after(&e.labelDots, labelDotsPeriod, tick)
	} else {
		e.label = def.Label
	}
}

const dotString = "..."

func (e *Engine) snapshot() State {
	return State{
		Expression:      e.current,
		Target:          e.target,
		Def:             e.def,
		Fading:          e.fading,
		Idle:            e.idle,
		Ambient:         e.ambient,
		Label:           e.label,
		PupilX:          e.pupilX,
		PupilY:          e.pupilY,
		Blinking:        e.blinking,
		Speaking:        e.speaking,
		Mouth:           e.mouth,
		MouthOpen:       e.def.MouthOpen && !e.speaking,
		Thought:         e.thought,
		ThoughtVisible:  e.thoughtVisible,
		Subtitle:        e.subtitle,
		SubtitleText:    e.subtitleText,
		SubtitleVisible: e.subtitleVisible,
	}
}

// render pushes a snapshot if anything changed since the last one.
func (e *Engine) render() {
	s := e.snapshot()
	if s == e.last {
		return
	}
	e.last = s
	e.seq++
	s.Seq = e.seq
	if e.renderer != nil {
		e.renderer.Render(s)
	}
}
