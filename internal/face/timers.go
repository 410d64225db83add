package face

import (
	"time"

	"github.com/nextlevelbuilder/clawface/internal/clock"
)

// slot owns at most one pending timer. Re-arming or cancelling a slot
// invalidates the previous callback even if it already started waiting on
// the engine lock.
type slot struct {
	timer clock.Timer
	gen   uint64
}

func (s *slot) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *slot) active() bool { return s.timer != nil }

// after arms s to run fn after d under the engine lock, then renders.
// Must be called with e.mu held.
func (e *Engine) after(s *slot, d time.Duration, fn func()) {
	s.cancel()
	gen := s.gen
	s.timer = e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || s.gen != gen {
			return
		}
		s.timer = nil
		fn()
		e.render()
	})
}

// between returns a random duration in [lo, hi).
func (e *Engine) between(lo, hi time.Duration) time.Duration {
	return lo + time.Duration(e.rand.Float64()*float64(hi-lo))
}

func (e *Engine) pick(n int) int {
	i := int(e.rand.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
