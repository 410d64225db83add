package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/clawface/internal/face"
	"github.com/nextlevelbuilder/clawface/internal/tui"
)

func TestFaceListPrintsCatalog(t *testing.T) {
	var out bytes.Buffer
	c := faceCmd()
	c.SetOut(&out)
	c.SetArgs([]string{"--list"})
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(face.Names()) {
		t.Fatalf("printed %d lines, catalog has %d", len(lines), len(face.Names()))
	}
	if !strings.HasPrefix(lines[0], face.Names()[0]+" ") || !strings.Contains(out.String(), "working hard...") {
		t.Fatalf("unexpected listing:\n%s", out.String())
	}
}

func TestReplyLines(t *testing.T) {
	got := replyLines("Here is **the** chart MEDIA:/tmp/chart.png and MEDIA:https://h/a.mp3")
	want := []tui.LineMsg{
		{Who: "agent", Text: "Here is the chart  and"},
		{Who: "media", Text: "/tmp/chart.png"},
		{Who: "media", Text: "https://h/a.mp3"},
	}
	if len(got) != len(want) {
		t.Fatalf("lines = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if got := replyLines("MEDIA:/tmp/only.wav"); len(got) != 1 || got[0].Who != "media" {
		t.Fatalf("media-only reply = %+v", got)
	}
}
