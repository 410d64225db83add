package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Unlike clockwork.FakeClock, callbacks run
// synchronously inside Advance, in deadline order (ties in scheduling order),
// outside the clock's lock, so a timer scheduled by a callback still fires
// within the same Advance. Pending exposes what is scheduled.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *Fake
	when  time.Time
	seq   uint64
	fn    func()
	done  bool
}

// NewFake returns a Fake clock starting at a fixed instant.
func NewFake() *Fake {
	return &Fake{now: time.Unix(1_700_000_000, 0)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{clock: f, when: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// Chan is nil, as for time.AfterFunc timers.
func (t *fakeTimer) Chan() <-chan time.Time { return nil }

func (t *fakeTimer) Reset(d time.Duration) bool {
	if d < 0 {
		d = 0
	}
	f := t.clock
	f.mu.Lock()
	defer f.mu.Unlock()
	active := !t.done
	if active {
		f.remove(t)
	}
	f.seq++
	t.when, t.seq, t.done = f.now.Add(d), f.seq, false
	f.timers = append(f.timers, t)
	return active
}

func (t *fakeTimer) Stop() bool {
	f := t.clock
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	f.remove(t)
	return true
}

func (f *Fake) remove(t *fakeTimer) {
	for i, p := range f.timers {
		if p == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}

// Advance moves the clock forward by d, firing every timer that falls due,
// including timers scheduled by callbacks during the advance.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.earliest()
		if next == nil || next.when.After(target) {
			f.now = target
			f.mu.Unlock()
			return
		}
		next.done = true
		f.remove(next)
		if next.when.After(f.now) {
			f.now = next.when
		}
		f.mu.Unlock()
		next.fn()
	}
}

func (f *Fake) earliest() *fakeTimer {
	var best *fakeTimer
	for _, t := range f.timers {
		if best == nil || t.when.Before(best.when) || (t.when.Equal(best.when) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// Pending returns the remaining durations of all scheduled timers, shortest first.
func (f *Fake) Pending() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, 0, len(f.timers))
	for _, t := range f.timers {
		out = append(out, t.when.Sub(f.now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
