package stt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeTranscoder struct {
	out []byte
	err error
}

func (f fakeTranscoder) Transcode(context.Context, []byte) ([]byte, error) { return f.out, f.err }

type upload struct {
	model    string
	filename string
	data     string
}

func whisperServer(t *testing.T, uploads chan<- upload) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		uploads <- upload{model: r.FormValue("model"), filename: hdr.Filename, data: string(data)}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hello there"}`))
	}))
}

func TestTranscribe(t *testing.T) {
	uploads := make(chan upload, 1)
	srv := whisperServer(t, uploads)
	defer srv.Close()

	tr := New(Config{APIKey: "sk-test", APIBase: srv.URL}, fakeTranscoder{out: []byte("mp3")})
	text, err := tr.Transcribe(context.Background(), []byte("webm"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello there" {
		t.Fatalf("text = %q", text)
	}
	up := <-uploads
	if up.model != "whisper-1" || up.data != "mp3" || up.filename != "audio.mp3" {
		t.Fatalf("upload = %+v", up)
	}
}

func TestTranscribe_TranscodeFallback(t *testing.T) {
	uploads := make(chan upload, 1)
	srv := whisperServer(t, uploads)
	defer srv.Close()

	tr := New(Config{APIKey: "sk-test", APIBase: srv.URL}, fakeTranscoder{err: errors.New("no ffmpeg")})
	if _, err := tr.Transcribe(context.Background(), []byte("raw-webm")); err != nil {
		t.Fatal(err)
	}
	if up := <-uploads; up.data != "raw-webm" {
		t.Fatalf("fallback uploaded %q", up.data)
	}
}

func TestTranscribe_Empty(t *testing.T) {
	tr := New(Config{APIKey: "x"}, nil)
	if _, err := tr.Transcribe(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestNewFFmpeg(t *testing.T) {
	f, err := NewFFmpeg(`"/opt/my ffmpeg/bin/ffmpeg" -loglevel error`)
	if err != nil {
		t.Fatal(err)
	}
	if f.Binary() != "/opt/my ffmpeg/bin/ffmpeg" || len(f.argv) != 3 {
		t.Fatalf("argv = %q", f.argv)
	}
	if f, _ := NewFFmpeg(""); f.Binary() != "ffmpeg" {
		t.Fatalf("default binary = %q", f.Binary())
	}
	if _, err := NewFFmpeg(`"unterminated`); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFFmpeg_MissingBinaryFails(t *testing.T) {
	f, _ := NewFFmpeg("clawface-no-such-ffmpeg")
	if f.Available() {
		t.Skip("binary unexpectedly present")
	}
	if _, err := f.Transcode(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error")
	}
}
