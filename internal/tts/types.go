// Package tts turns reply text into speech audio.
//
// Providers: OpenAI (audio/speech) and Edge (the edge-tts CLI, no API key).
package tts

import (
	"context"
	"fmt"
)

// Provider synthesizes text into audio bytes.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error)
}

// Options controls synthesis parameters.
type Options struct {
	Voice  string // provider-specific voice ID
	Model  string // provider-specific model ID
	Format string // "mp3" (default) or "opus"
}

// SynthResult is the output of a TTS synthesis.
type SynthResult struct {
	Audio     []byte
	Extension string // without dot: "mp3", "ogg"
	MimeType  string
}

// ProviderError carries the diagnostic text a provider returned with a
// failed synthesis.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s tts error %d: %s", e.Provider, e.Status, e.Body)
	}
	return fmt.Sprintf("%s tts error: %s", e.Provider, e.Body)
}
