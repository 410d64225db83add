// Package thoughts supplies the short idle musings shown in the face's
// thought bubble: a built-in static set plus an optional trending feed.
package thoughts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/nextlevelbuilder/clawface/internal/face"
)

// Static is the built-in pool.
var Static = []string{
	"今天天氣不錯...",
	"晚餐要吃什麼呢",
	"好想喝咖啡",
	"應該來整理一下桌面",
	"等等要做什麼來著...",
	"bug 藏在哪裡呢",
	"這個 function 可以重構",
	"記得要 commit",
	"好睏...",
	"週末要幹嘛",
	"...",
}

const (
	// DefaultTTL is how long a fetched set is used before refetching.
	DefaultTTL = 5 * time.Minute

	dynamicOdds  = 0.7
	fetchTimeout = 10 * time.Second
)

// Fetcher loads a fresh set of dynamic thoughts.
type Fetcher interface {
	Fetch(ctx context.Context) ([]string, error)
}

// Pool mixes static and dynamic thoughts. A nil Fetcher gives a static-only pool.
type Pool struct {
	fetcher Fetcher
	clock   clockwork.Clock
	ttl     time.Duration
	static  []string

	group singleflight.Group

	mu        sync.RWMutex
	dynamic   []string
	fetchedAt time.Time
}

// NewPool creates a pool. ttl <= 0 selects DefaultTTL.
func NewPool(f Fetcher, clk clockwork.Clock, ttl time.Duration) *Pool {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Pool{fetcher: f, clock: clk, ttl: ttl, static: Static}
}

// Stale reports whether the dynamic set should be refetched: it is empty or
// older than the TTL.
func (p *Pool) Stale() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.dynamic) == 0 || p.clock.Now().Sub(p.fetchedAt) >= p.ttl
}

// Refresh refetches in the background when stale. Concurrent refreshes
// share one fetch.
func (p *Pool) Refresh() {
	if p.fetcher == nil || !p.Stale() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		_ = p.RefreshNow(ctx)
	}()
}

// RefreshNow fetches synchronously when stale. A failed or empty fetch keeps
// whatever was cached before.
func (p *Pool) RefreshNow(ctx context.Context) error {
	if p.fetcher == nil || !p.Stale() {
		return nil
	}
	_, err, _ := p.group.Do("trending", func() (interface{}, error) {
		items, err := p.fetcher.Fetch(ctx)
		if err != nil {
			slog.Debug("thoughts: fetch failed", "error", err)
			return nil, err
		}
		if len(items) == 0 {
			return nil, nil
		}
		p.mu.Lock()
		p.dynamic = items
		p.fetchedAt = p.clock.Now()
		p.mu.Unlock()
		slog.Debug("thoughts: fetched trending items", "count", len(items))
		return nil, nil
	})
	return err
}

// Pick returns a dynamic thought with 70% probability when any are cached,
// otherwise a static one.
func (p *Pool) Pick(r face.Rand) string {
	p.mu.RLock()
	dynamic := p.dynamic
	p.mu.RUnlock()

	if len(dynamic) > 0 && r.Float64() < dynamicOdds {
		return dynamic[index(r, len(dynamic))]
	}
	return p.static[index(r, len(p.static))]
}

// Dynamic returns a copy of the cached dynamic set.
func (p *Pool) Dynamic() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.dynamic...)
}

func index(r face.Rand, n int) int {
	i := int(r.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
