package face

import "time"

const (
	driftMin       = 4 * time.Second
	driftMax       = 10 * time.Second
	driftReturnMin = 800 * time.Millisecond
	driftReturnMax = 2 * time.Second
	driftX         = 3.0
	driftY         = 2.0
)

func (e *Engine) startIdleCycle() {
	e.after(&e.idleCycle, e.between(idleMin, idleMax), func() {
		if !e.idle {
			return
		}
		e.setExpression(e.pickIdle())
		e.startIdleCycle()
	})
}

// pickIdle draws from the idle pool, never the current expression unless the
// pool has a single member.
func (e *Engine) pickIdle() string {
	if len(e.idlePool) == 1 {
		return e.idlePool[0]
	}
	candidates := make([]string, 0, len(e.idlePool))
	for _, n := range e.idlePool {
		if n != e.target {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return e.target
	}
	return candidates[e.pick(len(candidates))]
}

func (e *Engine) startDrift() {
	e.drift.cancel()
	e.driftStep()
}

// driftStep nudges the pupils around the base offset and schedules their
// return and the next step. The chain ends once the engine leaves idle mode.
func (e *Engine) driftStep() {
	if !e.idle {
		return
	}
	dx := (e.rand.Float64() - 0.5) * 2 * driftX
	dy := (e.rand.Float64() - 0.5) * 2 * driftY
	e.pupilX = e.def.PupilOffX + dx
	e.pupilY = e.def.PupilOffY + dy
	e.after(&e.driftReturn, e.between(driftReturnMin, driftReturnMax), func() {
		e.pupilX, e.pupilY = e.def.PupilOffX, e.def.PupilOffY
	})
	e.after(&e.drift, e.between(driftMin, driftMax), e.driftStep)
}
