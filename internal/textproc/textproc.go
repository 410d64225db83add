// Package textproc holds the text-transform pipelines applied to assistant
// replies before they are displayed as subtitles or spoken.
package textproc

import (
	"regexp"
	"strings"
)

// Rule is one pattern substitution.
type Rule struct {
	Pattern *regexp.Regexp
	Replace string
}

// Pipeline applies its rules in order.
type Pipeline []Rule

// Apply runs every rule in order and trims the result.
func (p Pipeline) Apply(text string) string {
	for _, r := range p {
		text = r.Pattern.ReplaceAllString(text, r.Replace)
	}
	return strings.TrimSpace(text)
}

var mediaRef = regexp.MustCompile(`MEDIA:\S+`)

// StripMedia removes MEDIA:<token> attachment references and trims.
func StripMedia(text string) string {
	return strings.TrimSpace(mediaRef.ReplaceAllString(text, ""))
}

// MediaRefs returns the tokens of all MEDIA:<token> references in text.
func MediaRefs(text string) []string {
	var out []string
	for _, m := range mediaRef.FindAllString(text, -1) {
		out = append(out, strings.TrimPrefix(m, "MEDIA:"))
	}
	return out
}

// Display flattens markdown into plain text for subtitles.
// Images are removed before links are rewritten so that "![a](u)" vanishes.
var Display = Pipeline{
	{regexp.MustCompile("(?s)```.*?```"), "[code]"},
	{regexp.MustCompile("`([^`]+)`"), "$1"},
	{regexp.MustCompile(`\*\*([^*]+)\*\*`), "$1"},
	{regexp.MustCompile(`__([^_]+)__`), "$1"},
	{regexp.MustCompile(`\*([^*]+)\*`), "$1"},
	{regexp.MustCompile(`_([^_]+)_`), "$1"},
	{regexp.MustCompile(`~~([^~]+)~~`), "$1"},
	{regexp.MustCompile(`(?m)^#{1,6}[ \t]+`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`), "• "},
	{regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*>`), ""},
	{regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`), ""},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`\|`), " "},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// Speech drops code entirely and keeps only the words, for TTS input.
var Speech = Pipeline{
	{regexp.MustCompile("(?s)```.*?```"), ""},
	{regexp.MustCompile("`([^`]+)`"), "$1"},
	{regexp.MustCompile(`\*\*([^*]+)\*\*`), "$1"},
	{regexp.MustCompile(`\*([^*]+)\*`), "$1"},
	{regexp.MustCompile(`__([^_]+)__`), "$1"},
	{regexp.MustCompile(`_([^_]+)_`), "$1"},
	{regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`), ""},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`(?m)^#+\s+`), ""},
	{mediaRef, ""},
}

// Subtitle prepares a raw reply for display: media references removed,
// markdown flattened.
func Subtitle(text string) string {
	return Display.Apply(StripMedia(text))
}
