// Package stt transcribes recorded speech with the OpenAI transcription API.
package stt

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// Config configures a Transcriber.
type Config struct {
	APIKey  string
	APIBase string // default https://api.openai.com/v1
	Model   string // default whisper-1
}

// Transcriber sends audio to the transcription endpoint, transcoding it
// first when a Transcoder is set.
type Transcriber struct {
	client     *openai.Client
	model      string
	transcoder Transcoder
}

func New(cfg Config, tc Transcoder) *Transcriber {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		oc.BaseURL = cfg.APIBase
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &Transcriber{
		client:     openai.NewClientWithConfig(oc),
		model:      model,
		transcoder: tc,
	}
}

// Transcribe returns the recognised text. A transcoding failure falls back
// to uploading the original bytes.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("stt: empty audio")
	}

	name := "audio.mp3"
	if t.transcoder != nil {
		mp3, err := t.transcoder.Transcode(ctx, audio)
		if err != nil || len(mp3) == 0 {
			slog.Warn("stt: transcode failed, sending original audio", "error", err)
			name = "audio.webm"
		} else {
			audio = mp3
		}
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: name,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("stt: transcription: %w", err)
	}
	return resp.Text, nil
}
