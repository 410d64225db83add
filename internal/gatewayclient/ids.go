package gatewayclient

import (
	"strconv"
	"sync/atomic"

	"github.com/nextlevelbuilder/clawface/internal/clock"
)

// idGenerator produces request ids of the form "cf-<counter>-<unixms>".
// The counter alone makes ids unique per client.
type idGenerator struct {
	n     atomic.Uint64
	clock clock.Clock
}

func (g *idGenerator) next() string {
	n := g.n.Add(1)
	return "cf-" + strconv.FormatUint(n, 10) + "-" + strconv.FormatInt(g.clock.Now().UnixMilli(), 10)
}
