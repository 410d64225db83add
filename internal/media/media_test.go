package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache(t *testing.T) {
	c := NewCache(2, time.Minute)
	a := c.Put([]byte("a"), "audio/mpeg")
	b := c.Put([]byte("b"), "audio/ogg")
	if a == b {
		t.Fatal("ids collide")
	}
	clip, ok := c.Get(b)
	if !ok || string(clip.Data) != "b" || clip.MimeType != "audio/ogg" {
		t.Fatalf("get = %+v %v", clip, ok)
	}

	c.Put([]byte("c"), "audio/mpeg")
	if _, ok := c.Get(a); ok {
		t.Fatal("oldest clip not evicted")
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestLocal(t *testing.T) {
	dir := t.TempDir()
	song := filepath.Join(dir, "reply.MP3")
	if err := os.WriteFile(song, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	other := t.TempDir()
	outside := filepath.Join(other, "x.wav")
	os.WriteFile(outside, []byte("RIFF"), 0o644)

	open := NewLocal(nil)
	data, mimeType, err := open.Read(song)
	if err != nil || string(data) != "ID3" || mimeType != "audio/mpeg" {
		t.Fatalf("read = %q %q %v", data, mimeType, err)
	}
	if _, _, err := open.Read(filepath.Join(dir, "secret.txt")); !errors.Is(err, ErrForbiddenType) {
		t.Fatalf("txt err = %v", err)
	}
	if _, _, err := open.Read(filepath.Join(dir, "missing.ogg")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}

	rooted := NewLocal([]string{dir})
	if _, _, err := rooted.Read(song); err != nil {
		t.Fatalf("inside root: %v", err)
	}
	if _, _, err := rooted.Read(outside); !errors.Is(err, ErrOutsideRoots) {
		t.Fatalf("outside root err = %v", err)
	}
	if _, _, err := rooted.Read(filepath.Join(dir, "..", filepath.Base(other), "x.wav")); !errors.Is(err, ErrOutsideRoots) {
		t.Fatalf("traversal err = %v", err)
	}
}
