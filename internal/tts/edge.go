package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// EdgeProvider implements TTS via Microsoft Edge TTS (free, no API key).
// Requires the `edge-tts` CLI:
//
//	pip install edge-tts
type EdgeProvider struct {
	binary  string // default "edge-tts"
	voice   string // default "en-US-GuyNeural"
	rate    string // e.g. "+0%"
	timeout time.Duration
}

// EdgeConfig configures the Edge TTS provider.
type EdgeConfig struct {
	Binary    string
	Voice     string
	Rate      string
	TimeoutMs int
}

func NewEdgeProvider(cfg EdgeConfig) *EdgeProvider {
	p := &EdgeProvider{
		binary:  cfg.Binary,
		voice:   cfg.Voice,
		rate:    cfg.Rate,
		timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
	}
	if p.binary == "" {
		p.binary = "edge-tts"
	}
	if p.voice == "" {
		p.voice = "en-US-GuyNeural"
	}
	if p.timeout <= 0 {
		p.timeout = 30 * time.Second
	}
	return p
}

func (p *EdgeProvider) Name() string { return "edge" }

// Available reports whether the edge-tts binary is on PATH.
func (p *EdgeProvider) Available() bool {
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// Synthesize runs the CLI; output is always MP3.
func (p *EdgeProvider) Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error) {
	out, err := os.CreateTemp("", "clawface-tts-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("edge-tts temp file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	voice := opts.Voice
	if voice == "" {
		voice = p.voice
	}
	args := []string{"--voice", voice, "--text", text, "--write-media", outPath}
	if p.rate != "" {
		args = append(args, "--rate", p.rate)
	}

	cmdCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, p.binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Body: fmt.Sprintf("%v: %s", err, output)}
	}

	audio, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read edge-tts output: %w", err)
	}
	return &SynthResult{Audio: audio, Extension: "mp3", MimeType: "audio/mpeg"}, nil
}
