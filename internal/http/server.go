// Package http serves the face web UI and its API: the expression stream,
// state polling, speech and media endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nextlevelbuilder/clawface/internal/media"
	"github.com/nextlevelbuilder/clawface/internal/push"
	"github.com/nextlevelbuilder/clawface/internal/snapshot"
	"github.com/nextlevelbuilder/clawface/internal/tts"
)

// Synthesizer turns text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts tts.Options) (*tts.SynthResult, error)
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Options wires a Server. Hub and Snapshot are required; nil speech
// services answer 503.
type Options struct {
	Hub         *push.Hub
	Snapshot    snapshot.Store
	Speech      Synthesizer
	Transcriber Transcriber
	Audio       *media.Cache
	Local       *media.Local
	StaticDir   string
	Limiter     *RateLimiter
	HasOpenAI   func() bool
	Now         func() time.Time
}

// Server holds the handlers.
type Server struct {
	hub       *push.Hub
	snap      snapshot.Store
	speech    Synthesizer
	stt       Transcriber
	audio     *media.Cache
	local     *media.Local
	staticDir string
	limiter   *RateLimiter
	hasOpenAI func() bool
	now       func() time.Time
}

func NewServer(opts Options) *Server {
	s := &Server{
		hub:       opts.Hub,
		snap:      opts.Snapshot,
		speech:    opts.Speech,
		stt:       opts.Transcriber,
		audio:     opts.Audio,
		local:     opts.Local,
		staticDir: opts.StaticDir,
		limiter:   opts.Limiter,
		hasOpenAI: opts.HasOpenAI,
		now:       opts.Now,
	}
	if s.audio == nil {
		s.audio = media.NewCache(0, 0)
	}
	if s.local == nil {
		s.local = media.NewLocal(nil)
	}
	if s.staticDir == "" {
		s.staticDir = "."
	}
	if s.hasOpenAI == nil {
		s.hasOpenAI = func() bool { return false }
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Audio is the cache served at /audio/{id}.
func (s *Server) Audio() *media.Cache { return s.audio }

// RegisterRoutes registers every route on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /expression-stream", s.handleStream)
	mux.HandleFunc("POST /expression", s.limited(s.handleExpression))
	mux.HandleFunc("GET /state.json", s.handleState)
	mux.HandleFunc("POST /clear-played", s.handleClearPlayed)
	mux.HandleFunc("POST /speak", s.limited(s.handleSpeak))
	mux.HandleFunc("POST /transcribe", s.limited(s.handleTranscribe))
	mux.HandleFunc("GET /media-proxy", s.handleMediaProxy)
	mux.HandleFunc("GET /audio/{id}", s.handleAudio)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/", s.handleStatic)
}

// Handler returns the routes wrapped in the CORS / no-store middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limited applies the per-IP rate limit.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"sseClients": s.hub.Count(),
		"hasOpenAI":  s.hasOpenAI(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("http: write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
