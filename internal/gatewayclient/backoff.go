package gatewayclient

import "time"

// Backoff is the reconnect delay schedule: start at Initial, grow by Factor
// after every attempt, never beyond Max. Only a successful handshake resets it.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64

	current time.Duration
}

// DefaultBackoff returns the 1s × 1.5 schedule capped at 15s.
func DefaultBackoff() *Backoff {
	return &Backoff{Initial: time.Second, Max: 15 * time.Second, Factor: 1.5}
}

// Next returns the delay to wait now and advances the schedule.
func (b *Backoff) Next() time.Duration {
	if b.current <= 0 {
		b.current = b.Initial
	}
	d := b.current
	b.current = min(time.Duration(float64(b.current)*b.Factor), b.Max)
	return d
}

// Reset restores the initial delay.
func (b *Backoff) Reset() { b.current = b.Initial }
