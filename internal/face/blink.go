package face

import "time"

const (
	blinkMin         = 2500 * time.Millisecond
	blinkMax         = 6500 * time.Millisecond
	blinkLength      = 120 * time.Millisecond
	doubleBlinkDelay = 250 * time.Millisecond
	doubleBlinkOdds  = 0.2
)

func (e *Engine) scheduleBlink() {
	e.after(&e.blinkNext, e.between(blinkMin, blinkMax), func() {
		e.blink()
		if e.rand.Float64() < doubleBlinkOdds {
			e.after(&e.blinkAgain, doubleBlinkDelay, e.blink)
		}
		e.scheduleBlink()
	})
}

func (e *Engine) blink() {
	if e.blinking || !e.def.CanBlink() {
		return
	}
	e.blinking = true
	e.after(&e.blinkOpen, blinkLength, func() { e.blinking = false })
}
