package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nextlevelbuilder/clawface/internal/config"
	"github.com/nextlevelbuilder/clawface/internal/media"
	"github.com/nextlevelbuilder/clawface/internal/push"
	"github.com/nextlevelbuilder/clawface/internal/snapshot"
	"github.com/nextlevelbuilder/clawface/internal/tts"
)

type stubVoice struct{}

func (stubVoice) Name() string { return "stub" }

func (stubVoice) Synthesize(_ context.Context, text string, _ tts.Options) (*tts.SynthResult, error) {
	return &tts.SynthResult{Audio: []byte("mp3:" + text), Extension: "mp3", MimeType: "audio/mpeg"}, nil
}

func TestReplySpeaker(t *testing.T) {
	m := tts.NewManager(tts.ManagerConfig{})
	m.RegisterProvider(stubVoice{})
	cache := media.NewCache(0, 0)

	published := make(chan map[string]any, 4)
	relay := push.NewRelay("", func(_ context.Context, _ string, msg map[string]any) {
		published <- msg
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Run(ctx)

	s := &replySpeaker{tts: m, audio: cache, relay: relay}
	d, err := s.Speak(ctx, "  hello there  ")
	if err != nil {
		t.Fatal(err)
	}
	if want := tts.EstimateDuration("hello there"); d != want {
		t.Errorf("duration = %v, want %v", d, want)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache holds %d clips", cache.Len())
	}

	select {
	case msg := <-published:
		url, _ := msg["audioFile"].(string)
		id := strings.TrimPrefix(url, "/audio/")
		clip, ok := cache.Get(id)
		if !ok || string(clip.Data) != "mp3:hello there" {
			t.Fatalf("audioFile %q does not point at the clip", url)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no publish after synthesis")
	}
}

func TestOpenSnapshot_File(t *testing.T) {
	cfg := config.Default()
	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "state.json")

	store, closeFn, err := openSnapshot(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := store.(*snapshot.FileStore); !ok {
		t.Fatalf("store = %T, want *snapshot.FileStore", store)
	}
}

func TestCommandBinary(t *testing.T) {
	tests := map[string]string{
		"ffmpeg":                          "ffmpeg",
		"/opt/bin/ffmpeg -loglevel 0":     "/opt/bin/ffmpeg",
		`"/my tools/ffmpeg" -hide_banner`: "/my tools/ffmpeg",
		"":                                "fallback",
	}
	for in, want := range tests {
		if got := commandBinary(in, "fallback"); got != want {
			t.Errorf("commandBinary(%q) = %q, want %q", in, got, want)
		}
	}
}
