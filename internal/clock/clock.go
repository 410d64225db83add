// Package clock abstracts timer scheduling so that timer-driven components
// can be driven deterministically in tests.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a scheduled callback that can be cancelled or rescheduled.
type Timer = clockwork.Timer

// Clock schedules callbacks. Every clockwork.Clock satisfies it.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real returns a Clock backed by the time package.
func Real() Clock { return clockwork.NewRealClock() }
