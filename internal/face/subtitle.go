package face

import "time"

const (
	defaultSubtitleTime = 5 * time.Second
	minCharDelay        = 30 * time.Millisecond
	subtitleHold        = 2 * time.Second
)

// Subtitle reveals text one character at a time over 90% of d (5s when
// d <= 0), never faster than 30ms per character, then keeps it visible for
// two seconds. A new call cancels any reveal or hold in progress; empty text
// just clears the subtitle.
func (e *Engine) Subtitle(text string, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.cancelSubtitle()
	if text == "" {
		e.render()
		return
	}
	if d <= 0 {
		d = defaultSubtitleTime
	}
	chars := []rune(text)
	delay := max(time.Duration(float64(d)*0.9/float64(len(chars))), minCharDelay)

	e.subtitleVisible = true
	e.subtitleText = text
	i := 0
	var typeNext func()
	typeNext = func() {
		if i < len(chars) {
			e.subtitle += string(chars[i])
			i++
			e.after(&e.typing, delay, typeNext)
			return
		}
		e.after(&e.subtitleHide, subtitleHold, func() { e.subtitleVisible = false })
	}
	typeNext()
	e.render()
}

func (e *Engine) cancelSubtitle() {
	e.typing.cancel()
	e.subtitleHide.cancel()
	e.subtitleVisible = false
	e.subtitle = ""
	e.subtitleText = ""
}
