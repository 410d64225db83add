package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/nextlevelbuilder/clawface/internal/face"
)

const maxLines = 6

// SendFunc delivers a typed message to the agent.
type SendFunc func(ctx context.Context, text string) error

// Idler returns the face to idle cycling.
type Idler interface {
	Idle()
}

// StatusMsg replaces the status bar text.
type StatusMsg string

// LineMsg appends a transcript line.
type LineMsg struct {
	Who  string
	Text string
}

type sendDoneMsg struct{ err error }

var (
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	thoughtStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	agentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	ambientTint   = lipgloss.Color("#0b1a2a")
)

// Model is the terminal face.
type Model struct {
	sink    *Sink
	idler   Idler
	send    SendFunc
	timeout time.Duration

	input  textinput.Model
	state  face.State
	lines  []LineMsg
	status string
	width  int
}

func NewModel(sink *Sink, idler Idler, send SendFunc, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Placeholder = "Say something..."
	ti.Prompt = "> "
	ti.CharLimit = 4000
	ti.Focus()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	st := face.State{Expression: face.Idle, Target: face.Idle}
	st.Def, _ = face.Lookup(face.Idle)
	st.Label = st.Def.Label
	st.Mouth = st.Def.Mouth
	return Model{
		sink:    sink,
		idler:   idler,
		send:    send,
		timeout: timeout,
		input:   ti,
		state:   st,
		status:  "connecting...",
		width:   60,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.sink.waitState(), m.sink.waitEvent())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(20, msg.Width-4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.idler != nil {
				m.idler.Idle()
			}
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.lines = appendLine(m.lines, LineMsg{Who: "you", Text: text})
			return m, m.sendCmd(text)
		}

	case stateMsg:
		m.state = face.State(msg)
		return m, m.sink.waitState()

	case eventMsg:
		m = m.apply(msg.msg)
		return m, m.sink.waitEvent()

	case sendDoneMsg:
		if msg.err != nil {
			m.lines = appendLine(m.lines, LineMsg{Who: "error", Text: msg.err.Error()})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) apply(msg tea.Msg) Model {
	switch msg := msg.(type) {
	case StatusMsg:
		m.status = string(msg)
	case LineMsg:
		m.lines = appendLine(m.lines, msg)
	}
	return m
}

func (m Model) sendCmd(text string) tea.Cmd {
	send, timeout := m.send, m.timeout
	if send == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sendDoneMsg{err: send(ctx, text)}
	}
}

func appendLine(lines []LineMsg, l LineMsg) []LineMsg {
	lines = append(lines, l)
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}

func (m Model) View() string {
	st := m.state
	var b strings.Builder

	if st.ThoughtVisible && st.Thought != "" {
		b.WriteString(thoughtStyle.Render(truncate("( "+st.Thought+" )", m.width)))
	}
	b.WriteString("\n")
	b.WriteString(m.faceBox())
	b.WriteString("\n")
	if st.SubtitleVisible {
		b.WriteString(subtitleStyle.Render(truncate(st.Subtitle, m.width)))
	}
	b.WriteString("\n\n")

	for _, l := range m.lines {
		b.WriteString(renderLine(l, m.width))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(truncate(m.status+"  esc: idle  ctrl+c: quit", m.width)))
	return b.String()
}

func (m Model) faceBox() string {
	st := m.state
	glow := lipgloss.Color(st.Def.Glow)

	rows := eyes(st)
	rows = append(rows, "", mouthGlyph(st.Mouth, st.MouthOpen))
	label := st.Label
	if label == "" {
		label = st.Def.Label
	}
	body := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, rows...),
		"",
		lipgloss.NewStyle().Foreground(glow).Bold(true).Render(label),
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(glow).
		Padding(1, 4)
	if st.Ambient {
		box = box.Background(ambientTint)
	}
	return box.Render(body)
}

func renderLine(l LineMsg, width int) string {
	style := agentStyle
	switch l.Who {
	case "you":
		style = userStyle
	case "error":
		style = errorStyle
	}
	prefix := fmt.Sprintf("%s: ", l.Who)
	return style.Render(prefix) + truncate(l.Text, width-runewidth.StringWidth(prefix))
}

// truncate shortens s to width display cells and flattens newlines.
func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Run starts the program and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
