package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/clawface/internal/bridge"
	"github.com/nextlevelbuilder/clawface/internal/config"
	"github.com/nextlevelbuilder/clawface/internal/gatewayclient"
	httpapi "github.com/nextlevelbuilder/clawface/internal/http"
	"github.com/nextlevelbuilder/clawface/internal/media"
	"github.com/nextlevelbuilder/clawface/internal/normalize"
	"github.com/nextlevelbuilder/clawface/internal/push"
	"github.com/nextlevelbuilder/clawface/internal/snapshot"
	"github.com/nextlevelbuilder/clawface/internal/stt"
	"github.com/nextlevelbuilder/clawface/internal/tts"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the expression push server",
		Long: `Run the HTTP server browser faces connect to: expression push over SSE,
state polling, text-to-speech, speech-to-text and static files.

When gateway.url is set the server also runs a headless face that
follows the agent and publishes its expressions to every subscriber.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfgPath := resolveConfigPath()
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := initTelemetry(ctx, cfg)
	defer shutdownTelemetry()

	store, closeStore, err := openSnapshot(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	speech := buildTTS(cfg)
	transcriber := buildSTT(cfg)
	limiter := httpapi.NewRateLimiter(cfg.RateLimit.RPM, cfg.RateLimit.Burst)
	defer limiter.Close()

	hub := push.NewHub()
	defer hub.Close()

	var synth httpapi.Synthesizer
	if speech.HasProviders() {
		synth = speech
	}
	var tr httpapi.Transcriber
	if transcriber != nil {
		tr = transcriber
	}
	srv := httpapi.NewServer(httpapi.Options{
		Hub:         hub,
		Snapshot:    store,
		Speech:      synth,
		Transcriber: tr,
		Local:       media.NewLocal(expandAll(cfg.Server.MediaDirs)),
		StaticDir:   config.ExpandHome(cfg.Server.StaticDir),
		Limiter:     limiter,
		HasOpenAI:   cfg.HasOpenAI,
	})

	g, gctx := errgroup.WithContext(ctx)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	g.Go(func() error { return listen(gctx, addr, srv.Handler(), "", "") })
	slog.Info("clawface server running", "http", "http://"+addr, "openai", cfg.HasOpenAI())

	certDir := config.ExpandHome(cfg.Server.CertDir)
	keyPath, certPath := filepath.Join(certDir, "key.pem"), filepath.Join(certDir, "cert.pem")
	if fileExists(keyPath) && fileExists(certPath) {
		tlsAddr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.HTTPSPort))
		g.Go(func() error { return listen(gctx, tlsAddr, srv.Handler(), certPath, keyPath) })
		slog.Info("https enabled", "https", "https://"+tlsAddr)
	} else {
		slog.Info("https disabled", "certDir", certDir)
	}

	if cfg.Gateway.URL != "" {
		startHeadlessFace(gctx, g, cfg, srv, speech)
	}

	if w, err := config.NewWatcher(cfgPath, cfg); err != nil {
		slog.Warn("config watcher unavailable", "error", err)
	} else {
		w.OnChange(func(next *config.Config) {
			applyLogLevel(next)
			limiter.SetLimit(next.RateLimit.RPM, next.RateLimit.Burst)
			slog.Info("config reloaded", "logLevel", next.Log.Level, "rpm", next.RateLimit.RPM)
		})
		if err := w.Start(); err != nil {
			slog.Warn("config watcher unavailable", "error", err)
		} else {
			defer w.Stop()
		}
	}

	return g.Wait()
}

// startHeadlessFace runs a face engine driven by the gateway whose states
// are published to all browser subscribers.
func startHeadlessFace(ctx context.Context, g *errgroup.Group, cfg *config.Config, srv *httpapi.Server, speech *tts.Manager) {
	relay := push.NewRelay("", func(ctx context.Context, target string, msg map[string]any) {
		srv.Publish(ctx, target, msg)
	})
	engine := newEngine(relay, thoughtPool(cfg))

	var speaker bridge.Speaker
	if cfg.Speech.SpeakReplies && speech.HasProviders() {
		speaker = &replySpeaker{
			tts:   speech,
			audio: srv.Audio(),
			relay: relay,
			opts:  tts.Options{Voice: cfg.Speech.Voice, Model: cfg.Speech.TTSModel},
		}
	}

	b := bridge.New(engine, bridge.Options{
		AutoExpressions: cfg.Gateway.AutoExpressions,
		Speaker:         speaker,
		Callbacks: bridge.Callbacks{
			OnConnect: func() { slog.Info("gateway connected", "url", cfg.Gateway.URL) },
			OnDisconnect: func(err error) {
				if err != nil {
					slog.Warn("gateway disconnected", "error", err)
				}
			},
			OnToolUse: func(tool string, _ normalize.AgentEvent) { slog.Debug("agent tool", "tool", tool) },
			OnError:   func(msg string) { slog.Warn("agent error", "message", msg) },
		},
	})
	client := gatewayclient.New(gatewayConfig(cfg), b)
	b.Attach(client)

	g.Go(func() error { return relay.Run(ctx) })
	g.Go(func() error {
		engine.Start()
		client.Connect(ctx)
		<-ctx.Done()
		client.Disconnect()
		engine.Close()
		return nil
	})
}

// replySpeaker synthesizes a reply, parks the audio in the server cache and
// points the next published state at it.
type replySpeaker struct {
	tts   *tts.Manager
	audio *media.Cache
	relay *push.Relay
	opts  tts.Options
}

func (s *replySpeaker) Speak(ctx context.Context, text string) (time.Duration, error) {
	res, err := s.tts.Synthesize(ctx, text, s.opts)
	if err != nil {
		return 0, err
	}
	id := s.audio.Put(res.Audio, res.MimeType)
	s.relay.SetAudio("/audio/" + id)
	return tts.EstimateDuration(s.tts.Prepare(text)), nil
}

func listen(ctx context.Context, addr string, h http.Handler, certFile, keyFile string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		var err error
		if certFile != "" {
			err = server.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errc <- err
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(sctx)
}

func openSnapshot(ctx context.Context, cfg *config.Config) (snapshot.Store, func(), error) {
	if cfg.Snapshot.Backend == "redis" {
		rs, err := snapshot.NewRedisStore(ctx, cfg.Snapshot.RedisAddr, cfg.Snapshot.RedisKey)
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot: %w", err)
		}
		slog.Info("snapshot store", "backend", "redis", "addr", cfg.Snapshot.RedisAddr)
		return rs, func() { rs.Close() }, nil
	}
	path := config.ExpandHome(cfg.Snapshot.Path)
	slog.Info("snapshot store", "backend", "file", "path", path)
	return snapshot.NewFileStore(path), func() {}, nil
}

func buildTTS(cfg *config.Config) *tts.Manager {
	m := tts.NewManager(tts.ManagerConfig{Primary: cfg.Speech.Provider})
	if cfg.Speech.OpenAIAPIKey != "" {
		m.RegisterProvider(tts.NewOpenAIProvider(tts.OpenAIConfig{
			APIKey:  cfg.Speech.OpenAIAPIKey,
			APIBase: cfg.Speech.APIBase,
			Model:   cfg.Speech.TTSModel,
			Voice:   cfg.Speech.Voice,
		}))
	}
	edge := tts.NewEdgeProvider(tts.EdgeConfig{Binary: cfg.Speech.EdgeBinary, Voice: cfg.Speech.EdgeVoice})
	if edge.Available() {
		m.RegisterProvider(edge)
	}
	return m
}

func buildSTT(cfg *config.Config) *stt.Transcriber {
	if cfg.Speech.OpenAIAPIKey == "" {
		return nil
	}
	var tc stt.Transcoder
	if ff, err := stt.NewFFmpeg(cfg.Speech.FFmpeg); err != nil {
		slog.Warn("ffmpeg command invalid, uploading audio as recorded", "error", err)
	} else if !ff.Available() {
		slog.Warn("ffmpeg not found, uploading audio as recorded", "binary", ff.Binary())
	} else {
		tc = ff
	}
	return stt.New(stt.Config{
		APIKey:  cfg.Speech.OpenAIAPIKey,
		APIBase: cfg.Speech.APIBase,
		Model:   cfg.Speech.STTModel,
	}, tc)
}

func expandAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, config.ExpandHome(p))
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
