package gatewayclient

import (
	"encoding/json"

	"github.com/nextlevelbuilder/clawface/internal/clock"
)

type result struct {
	payload json.RawMessage
	err     error
}

type pendingRequest struct {
	method   string
	done     chan result // buffered(1); written exactly once
	timer    clock.Timer
	accepted bool
}

// pendingMap correlates request ids with waiting callers. Not safe for
// concurrent use; the client guards it with its own lock.
type pendingMap map[string]*pendingRequest

// settle removes id and delivers r. Reports false when id is unknown, which
// covers late responses after a timeout.
func (m pendingMap) settle(id string, r result) bool {
	p, ok := m[id]
	if !ok {
		return false
	}
	delete(m, id)
	if p.timer != nil {
		p.timer.Stop()
	}
	p.done <- r
	return true
}

// drop removes id without delivering anything.
func (m pendingMap) drop(id string) {
	if p, ok := m[id]; ok {
		delete(m, id)
		if p.timer != nil {
			p.timer.Stop()
		}
	}
}
