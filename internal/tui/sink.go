package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nextlevelbuilder/clawface/internal/face"
)

// Sink connects the engine and the client callbacks to the bubbletea loop.
// Render never blocks: states collapse to the latest one and events are
// dropped when the program falls far behind.
type Sink struct {
	mu     sync.Mutex
	latest face.State
	wake   chan struct{}
	events chan tea.Msg
}

func NewSink() *Sink {
	return &Sink{wake: make(chan struct{}, 1), events: make(chan tea.Msg, 64)}
}

func (s *Sink) Render(st face.State) {
	s.mu.Lock()
	s.latest = st
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Post queues an event message for the model.
func (s *Sink) Post(msg tea.Msg) {
	select {
	case s.events <- msg:
	default:
	}
}

// Status posts a status-bar update.
func (s *Sink) Status(text string) { s.Post(StatusMsg(text)) }

// Line posts a transcript line.
func (s *Sink) Line(who, text string) { s.Post(LineMsg{Who: who, Text: text}) }

type stateMsg face.State

func (s *Sink) waitState() tea.Cmd {
	return func() tea.Msg {
		<-s.wake
		s.mu.Lock()
		st := s.latest
		s.mu.Unlock()
		return stateMsg(st)
	}
}

func (s *Sink) waitEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg{<-s.events}
	}
}

// eventMsg wraps posted messages so the model knows to wait for the next.
type eventMsg struct{ msg tea.Msg }
