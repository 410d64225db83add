package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxChars is the longest input accepted by providers; longer text is cut.
const MaxChars = 4096

// ErrEmptyText is returned for blank input.
var ErrEmptyText = errors.New("tts: missing text")

// ErrNoProvider is returned when no provider is registered.
var ErrNoProvider = errors.New("tts: no provider configured")

// Manager picks a provider and normalizes input.
type Manager struct {
	providers map[string]Provider
	order     []string
	primary   string
	maxChars  int
}

// ManagerConfig configures the TTS manager.
type ManagerConfig struct {
	Primary  string // primary provider name; first registered when empty
	MaxChars int    // default MaxChars
}

func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		providers: make(map[string]Provider),
		primary:   cfg.Primary,
		maxChars:  cfg.MaxChars,
	}
	if m.maxChars <= 0 {
		m.maxChars = MaxChars
	}
	return m
}

// RegisterProvider adds a TTS provider.
func (m *Manager) RegisterProvider(p Provider) {
	if _, ok := m.providers[p.Name()]; !ok {
		m.order = append(m.order, p.Name())
	}
	m.providers[p.Name()] = p
	if m.primary == "" {
		m.primary = p.Name()
	}
}

// PrimaryProvider returns the primary provider name.
func (m *Manager) PrimaryProvider() string { return m.primary }

// HasProviders returns true if at least one provider is registered.
func (m *Manager) HasProviders() bool { return len(m.providers) > 0 }

// Prepare trims text and caps it at the configured number of characters.
func (m *Manager) Prepare(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= m.maxChars {
		return text
	}
	return string([]rune(text)[:m.maxChars])
}

// Synthesize converts text with the primary provider, then the others in
// registration order. The error of the primary provider is returned when
// every provider fails.
func (m *Manager) Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error) {
	text = m.Prepare(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if len(m.providers) == 0 {
		return nil, ErrNoProvider
	}

	var firstErr error
	for _, name := range m.candidates() {
		p, ok := m.providers[name]
		if !ok {
			continue
		}
		result, err := p.Synthesize(ctx, text, opts)
		if err == nil {
			if name != m.primary {
				slog.Info("tts fallback succeeded", "provider", name)
			}
			return result, nil
		}
		slog.Warn("tts provider failed", "provider", name, "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("all tts providers failed: %w", firstErr)
}

func (m *Manager) candidates() []string {
	out := []string{m.primary}
	for _, name := range m.order {
		if name != m.primary {
			out = append(out, name)
		}
	}
	return out
}

// Spoken-duration estimate for a reply, used to drive the talking mouth
// while the client plays the audio.
const (
	perRune     = 65 * time.Millisecond
	minDuration = 1 * time.Second
)

// EstimateDuration guesses how long text takes to speak.
func EstimateDuration(text string) time.Duration {
	return max(time.Duration(utf8.RuneCountInString(text))*perRune, minDuration)
}
