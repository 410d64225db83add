// Package inference maps assistant text and tool names to face expressions.
package inference

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/nextlevelbuilder/clawface/internal/face"
)

type rule struct {
	re   *regexp.Regexp
	expr string
}

// Checked in order; first match wins.
var textRules = []rule{
	{regexp.MustCompile(`(?i)😂|🤣|哈哈|笑|haha|lol`), face.Amused},
	{regexp.MustCompile(`(?i)❤|♥|愛|喜歡|love`), face.Love},
	{regexp.MustCompile(`(?i)😮|!!|！！|wow|哇`), face.Surprised},
	{regexp.MustCompile(`(?i)🤔|嗯|想想|不確定|hmm`), face.Thinking},
	{regexp.MustCompile(`(?i)😢|😞|抱歉|sorry|難過|sad`), face.Sad},
	{regexp.MustCompile(`(?i)⚠|警告|注意|alert`), face.Alert},
	{regexp.MustCompile(`(?i)🎉|太好|成功|！|excited|棒`), face.Excited},
	{regexp.MustCompile(`(?i)😎|cool|酷`), face.Cool},
}

// DefaultExpression is returned when no pattern family matches.
const DefaultExpression = face.Happy

// Expression infers an expression from message text. It never fails.
func Expression(text string) string {
	if text == "" {
		return DefaultExpression
	}
	for _, r := range textRules {
		if r.re.MatchString(text) {
			return r.expr
		}
	}
	return DefaultExpression
}

// Minimum hold times for reactions to a final reply.
const (
	minReplyHold    = 5000 * time.Millisecond
	minSubtitleHold = 8000 * time.Millisecond
	replyPerRune    = 80 * time.Millisecond
	subtitlePerRune = 120 * time.Millisecond
)

// ReplyDuration is how long the inferred expression of a reply is held.
func ReplyDuration(text string) time.Duration {
	return max(time.Duration(utf8.RuneCountInString(text))*replyPerRune, minReplyHold)
}

// SubtitleDuration is the subtitle duration for a reply.
func SubtitleDuration(text string) time.Duration {
	return max(time.Duration(utf8.RuneCountInString(text))*subtitlePerRune, minSubtitleHold)
}
