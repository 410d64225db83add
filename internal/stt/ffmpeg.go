package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mattn/go-shellwords"
)

// Transcoder converts recorded audio into what the transcription API wants.
type Transcoder interface {
	Transcode(ctx context.Context, audio []byte) ([]byte, error)
}

// FFmpeg resamples input to 16 kHz mono MP3.
type FFmpeg struct {
	argv []string
}

// NewFFmpeg parses command, which may carry extra flags
// (e.g. "ffmpeg -loglevel error"). Empty means "ffmpeg".
func NewFFmpeg(command string) (*FFmpeg, error) {
	if command == "" {
		command = "ffmpeg"
	}
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse ffmpeg command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty ffmpeg command")
	}
	return &FFmpeg{argv: argv}, nil
}

// Binary is the executable name or path.
func (f *FFmpeg) Binary() string { return f.argv[0] }

// Available reports whether the binary can be found.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.argv[0])
	return err == nil
}

func (f *FFmpeg) Transcode(ctx context.Context, audio []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "clawface-stt-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "rec.webm")
	out := filepath.Join(dir, "rec.mp3")
	if err := os.WriteFile(in, audio, 0o600); err != nil {
		return nil, err
	}

	args := append(append([]string{}, f.argv[1:]...), "-y", "-i", in, "-ar", "16000", "-ac", "1", out)
	cmd := exec.CommandContext(ctx, f.argv[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return os.ReadFile(out)
}
