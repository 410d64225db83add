package inference

import (
	"regexp"
	"time"

	"github.com/nextlevelbuilder/clawface/internal/face"
)

// Reaction is an expression held for a duration.
type Reaction struct {
	Expression string
	Duration   time.Duration
}

type toolRule struct {
	re       *regexp.Regexp
	reaction Reaction
}

var toolRules = []toolRule{
	{regexp.MustCompile(`(?i)web_search|web_fetch|search|fetch`), Reaction{face.Investigating, 10 * time.Second}},
	{regexp.MustCompile(`(?i)exec|bash|shell|command`), Reaction{face.Working, 10 * time.Second}},
	{regexp.MustCompile(`(?i)tts|speak|audio|voice`), Reaction{face.Happy, 5 * time.Second}},
	{regexp.MustCompile(`(?i)read|file|glob|grep`), Reaction{face.Thinking, 8 * time.Second}},
	{regexp.MustCompile(`(?i)write|edit|create`), Reaction{face.Focused, 10 * time.Second}},
}

var defaultToolReaction = Reaction{face.Focused, 8 * time.Second}

// ForTool maps a tool name (possibly a comma-joined list) to a reaction.
func ForTool(name string) Reaction {
	for _, r := range toolRules {
		if r.re.MatchString(name) {
			return r.reaction
		}
	}
	return defaultToolReaction
}
