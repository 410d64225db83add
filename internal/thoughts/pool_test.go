package thoughts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

type stubFetcher struct {
	calls atomic.Int32
	items []string
	err   error
}

func (s *stubFetcher) Fetch(context.Context) ([]string, error) {
	s.calls.Add(1)
	return s.items, s.err
}

func TestPool_StaticOnly(t *testing.T) {
	p := NewPool(nil, clockwork.NewFakeClock(), 0)
	if got := p.Pick(fixedRand(0)); got != Static[0] {
		t.Fatalf("Pick = %q", got)
	}
	if err := p.RefreshNow(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestPool_DynamicShare(t *testing.T) {
	f := &stubFetcher{items: []string{"trend a", "trend b"}}
	p := NewPool(f, clockwork.NewFakeClock(), 0)
	if err := p.RefreshNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	// rolls below 0.7 pick from the dynamic set
	if got := p.Pick(fixedRand(0.5)); got != "trend b" {
		t.Fatalf("Pick(0.5) = %q", got)
	}
	// rolls at or above 0.7 fall back to static
	if got := p.Pick(fixedRand(0.95)); got != Static[len(Static)-1] {
		t.Fatalf("Pick(0.95) = %q", got)
	}
}

func TestPool_CacheTTL(t *testing.T) {
	clk := clockwork.NewFakeClock()
	f := &stubFetcher{items: []string{"x"}}
	p := NewPool(f, clk, 5*time.Minute)

	_ = p.RefreshNow(context.Background())
	_ = p.RefreshNow(context.Background())
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("fetched %d times within TTL", n)
	}
	clk.Advance(5 * time.Minute)
	if !p.Stale() {
		t.Fatal("cache should be stale after TTL")
	}
	_ = p.RefreshNow(context.Background())
	if n := f.calls.Load(); n != 2 {
		t.Fatalf("fetched %d times after expiry", n)
	}
}

func TestPool_FailureKeepsCache(t *testing.T) {
	clk := clockwork.NewFakeClock()
	f := &stubFetcher{items: []string{"kept"}}
	p := NewPool(f, clk, time.Minute)
	_ = p.RefreshNow(context.Background())

	clk.Advance(2 * time.Minute)
	f.err = errors.New("offline")
	if err := p.RefreshNow(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if got := p.Dynamic(); len(got) != 1 || got[0] != "kept" {
		t.Fatalf("cache after failure = %v", got)
	}

	f.err = nil
	f.items = nil
	_ = p.RefreshNow(context.Background())
	if got := p.Dynamic(); len(got) != 1 {
		t.Fatalf("empty fetch replaced cache: %v", got)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/trending":
			fmt.Fprint(w, `{"ok":true,"thoughts":[{"text":" Go 1.26 "},{"text":""},{"text":"rain"}]}`)
		case "/api/down":
			fmt.Fprint(w, `{"ok":false}`)
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	items, err := NewHTTPFetcher(srv.URL + "/api/trending").Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0] != "Go 1.26" || items[1] != "rain" {
		t.Fatalf("items = %q", items)
	}

	if _, err := NewHTTPFetcher(srv.URL + "/api/down").Fetch(context.Background()); err == nil {
		t.Fatal("expected error for ok=false")
	}
	if _, err := NewHTTPFetcher(srv.URL + "/missing").Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 404")
	}
}
