package face

import "time"

const (
	thoughtPeriod  = 10 * time.Second
	thoughtOdds    = 0.85
	thoughtShowMin = 5 * time.Second
	thoughtShowMax = 8 * time.Second
)

func (e *Engine) startThoughtCycle() {
	e.thoughtCycle.cancel()
	e.refreshThoughts()
	e.scheduleThought()
}

func (e *Engine) scheduleThought() {
	e.after(&e.thoughtCycle, thoughtPeriod, func() {
		if !e.idle {
			return
		}
		e.refreshThoughts()
		if e.rand.Float64() < thoughtOdds {
			e.showThought()
		}
		e.scheduleThought()
	})
}

func (e *Engine) refreshThoughts() {
	if e.thoughts != nil {
		e.thoughts.Refresh()
	}
}

func (e *Engine) showThought() {
	if e.thoughts == nil {
		return
	}
	if !e.idle && !IsThoughtful(e.target) {
		return
	}
	e.thought = e.thoughts.Pick(e.rand)
	e.thoughtVisible = true
	e.after(&e.thoughtHide, e.between(thoughtShowMin, thoughtShowMax), func() {
		e.thoughtVisible = false
	})
}

// hideThought hides the bubble and stops thought cycling.
func (e *Engine) hideThought() {
	e.thoughtCycle.cancel()
	e.thoughtHide.cancel()
	e.thoughtVisible = false
}
