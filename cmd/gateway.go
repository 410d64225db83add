package cmd

import (
	"math/rand/v2"
	"time"

	"github.com/nextlevelbuilder/clawface/internal/config"
	"github.com/nextlevelbuilder/clawface/internal/face"
	"github.com/nextlevelbuilder/clawface/internal/gatewayclient"
	"github.com/nextlevelbuilder/clawface/internal/thoughts"
)

func gatewayConfig(cfg *config.Config) gatewayclient.Config {
	return gatewayclient.Config{
		URL:            cfg.Gateway.URL,
		Token:          cfg.Gateway.Token,
		SessionKey:     cfg.Gateway.SessionKey,
		ClientID:       cfg.Gateway.ClientID,
		Locale:         cfg.Gateway.Locale,
		Scopes:         cfg.Gateway.Scopes,
		RequestTimeout: time.Duration(cfg.Gateway.RequestTimeoutMs) * time.Millisecond,
	}
}

// thoughtPool returns the idle thought source; trending topics are fetched
// only when a URL is configured.
func thoughtPool(cfg *config.Config) *thoughts.Pool {
	var fetcher thoughts.Fetcher
	if cfg.Face.TrendingURL != "" {
		fetcher = thoughts.NewHTTPFetcher(cfg.Face.TrendingURL)
	}
	return thoughts.NewPool(fetcher, nil, time.Duration(cfg.Face.TrendingTTLMs)*time.Millisecond)
}

func newEngine(r face.Renderer, src face.ThoughtSource) *face.Engine {
	return face.New(face.Options{
		Renderer: r,
		Thoughts: src,
		Rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	})
}
