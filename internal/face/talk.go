package face

import "time"

const (
	talkFrameMin    = 80 * time.Millisecond
	talkFrameMax    = 180 * time.Millisecond
	defaultTalkTime = 3 * time.Second
)

// TalkMouths are the shapes cycled while speaking.
var TalkMouths = []string{
	"M 180,180 Q 200,196 220,180",
	"M 172,177 Q 200,208 228,177",
	"M 178,180 Q 200,192 222,180",
	"M 185,182 Q 200,194 215,182",
	"M 168,175 Q 200,212 232,175",
}

// Talk animates the mouth for d (3s when d <= 0). Talking again restarts
// the expiry.
func (e *Engine) Talk(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if d <= 0 {
		d = defaultTalkTime
	}
	e.speaking = true
	e.animateTalk()
	e.after(&e.talkStop, d, e.stopTalking)
	e.render()
}

// Stop ends talking and restores the expression's mouth.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.stopTalking()
	e.render()
}

func (e *Engine) animateTalk() {
	if !e.speaking {
		e.mouth = e.def.Mouth
		return
	}
	e.mouth = TalkMouths[e.pick(len(TalkMouths))]
	e.after(&e.talkFrame, e.between(talkFrameMin, talkFrameMax), e.animateTalk)
}

func (e *Engine) stopTalking() {
	e.speaking = false
	e.talkFrame.cancel()
	e.talkStop.cancel()
	e.mouth = e.def.Mouth
}
