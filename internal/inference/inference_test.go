package inference

import (
	"strings"
	"testing"
	"time"

	"github.com/nextlevelbuilder/clawface/internal/face"
)

func TestExpression(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", face.Happy},
		{"plain answer", face.Happy},
		{"that was funny lol", face.Amused},
		{"LOL", face.Amused},
		{"哈哈 好啊", face.Amused},
		{"I love it ❤", face.Love},
		{"wow!!", face.Surprised},
		{"hmm, let me see", face.Thinking},
		{"sorry about that", face.Sad},
		{"⚠ disk almost full", face.Alert},
		{"done 🎉", face.Excited},
		{"完成了！", face.Excited},
		{"that's cool", face.Cool},
		// priority: amused beats love, love beats surprised, sad beats excited
		{"haha I love this", face.Amused},
		{"love it, wow", face.Love},
		{"sorry 🎉", face.Sad},
		{"alert: excited", face.Alert},
	}
	for _, tt := range tests {
		if got := Expression(tt.in); got != tt.want {
			t.Errorf("Expression(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpression_AlwaysInCatalog(t *testing.T) {
	for _, in := range []string{"", "x", "lol", "🎉", "cool", "⚠"} {
		if _, ok := face.Lookup(Expression(in)); !ok {
			t.Errorf("Expression(%q) returned a name outside the catalog", in)
		}
	}
}

func TestForTool(t *testing.T) {
	tests := []struct {
		tool string
		want Reaction
	}{
		{"web_search", Reaction{face.Investigating, 10 * time.Second}},
		{"WebFetch", Reaction{face.Investigating, 10 * time.Second}},
		{"exec", Reaction{face.Working, 10 * time.Second}},
		{"Bash", Reaction{face.Working, 10 * time.Second}},
		{"tts", Reaction{face.Happy, 5 * time.Second}},
		{"read_file", Reaction{face.Thinking, 8 * time.Second}},
		{"Grep", Reaction{face.Thinking, 8 * time.Second}},
		{"write", Reaction{face.Focused, 10 * time.Second}},
		{"edit", Reaction{face.Focused, 10 * time.Second}},
		{"unknown", Reaction{face.Focused, 8 * time.Second}},
		{"", Reaction{face.Focused, 8 * time.Second}},
		// first family wins for joined names
		{"read,web_search", Reaction{face.Investigating, 10 * time.Second}},
	}
	for _, tt := range tests {
		if got := ForTool(tt.tool); got != tt.want {
			t.Errorf("ForTool(%q) = %+v, want %+v", tt.tool, got, tt.want)
		}
	}
}

func TestDurations(t *testing.T) {
	if d := ReplyDuration("hi"); d != 5*time.Second {
		t.Errorf("short reply hold = %v", d)
	}
	long := strings.Repeat("a", 100)
	if d := ReplyDuration(long); d != 8*time.Second {
		t.Errorf("100-rune reply hold = %v", d)
	}
	if d := SubtitleDuration("hi"); d != 8*time.Second {
		t.Errorf("short subtitle = %v", d)
	}
	if d := SubtitleDuration(long); d != 12*time.Second {
		t.Errorf("100-rune subtitle = %v", d)
	}
	// runes, not bytes
	if d := ReplyDuration(strings.Repeat("好", 100)); d != 8*time.Second {
		t.Errorf("CJK reply hold = %v", d)
	}
}
