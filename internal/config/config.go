// Package config loads the clawface JSON5 config file, layered with .env
// files and environment overrides.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/titanous/json5"
)

// Config is the root configuration.
type Config struct {
	Gateway   GatewayConfig   `json:"gateway"`
	Server    ServerConfig    `json:"server"`
	Speech    SpeechConfig    `json:"speech"`
	Face      FaceConfig      `json:"face"`
	Snapshot  SnapshotConfig  `json:"snapshot"`
	RateLimit RateLimitConfig `json:"rateLimit"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Log       LogConfig       `json:"log"`

	mu sync.RWMutex
}

// GatewayConfig is the chat gateway connection. An empty URL disables the
// headless face in serve.
type GatewayConfig struct {
	URL              string   `json:"url,omitempty"`
	Token            string   `json:"token,omitempty"`
	SessionKey       string   `json:"sessionKey,omitempty"`
	ClientID         string   `json:"clientId,omitempty"`
	Locale           string   `json:"locale,omitempty"`
	Scopes           []string `json:"scopes,omitempty"`
	AutoExpressions  bool     `json:"autoExpressions"`
	RequestTimeoutMs int      `json:"requestTimeoutMs,omitempty"`
}

type ServerConfig struct {
	Host      string   `json:"host"`
	Port      int      `json:"port"`
	HTTPSPort int      `json:"httpsPort"`
	CertDir   string   `json:"certDir"`
	StaticDir string   `json:"staticDir"`
	MediaDirs []string `json:"mediaDirs,omitempty"` // empty: any directory
}

type SpeechConfig struct {
	OpenAIAPIKey string `json:"openaiApiKey,omitempty"`
	APIBase      string `json:"apiBase,omitempty"`
	TTSModel     string `json:"ttsModel"`
	Voice        string `json:"voice"`
	STTModel     string `json:"sttModel"`
	FFmpeg       string `json:"ffmpeg"` // command line, may carry extra flags
	EdgeVoice    string `json:"edgeVoice,omitempty"`
	EdgeBinary   string `json:"edgeBinary,omitempty"`
	Provider     string `json:"provider,omitempty"` // primary tts provider: openai | edge
	SpeakReplies bool   `json:"speakReplies"`       // voice final replies in the headless face
}

type FaceConfig struct {
	TrendingURL   string `json:"trendingUrl,omitempty"`
	TrendingTTLMs int    `json:"trendingTtlMs"`
}

type SnapshotConfig struct {
	Backend   string `json:"backend"` // file | redis
	Path      string `json:"path"`
	RedisAddr string `json:"redisAddr,omitempty"`
	RedisKey  string `json:"redisKey"`
}

type RateLimitConfig struct {
	RPM   int `json:"rpm"` // per IP, 0 disables
	Burst int `json:"burst"`
}

type TelemetryConfig struct {
	Enabled     bool              `json:"enabled"`
	Endpoint    string            `json:"endpoint,omitempty"`
	Protocol    string            `json:"protocol,omitempty"` // grpc (default) | http
	Insecure    bool              `json:"insecure,omitempty"`
	ServiceName string            `json:"serviceName,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

type LogConfig struct {
	Level string `json:"level"` // debug | info | warn | error
}

// Default returns a config with every default applied.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			SessionKey:      "face",
			ClientID:        "webchat",
			Locale:          "en",
			AutoExpressions: true,
		},
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      3737,
			HTTPSPort: 3738,
			CertDir:   "certs",
			StaticDir: ".",
		},
		Speech: SpeechConfig{
			TTSModel: "tts-1",
			Voice:    "onyx",
			STTModel: "whisper-1",
			FFmpeg:   "ffmpeg",
		},
		Face:      FaceConfig{TrendingTTLMs: 300000},
		Snapshot:  SnapshotConfig{Backend: "file", Path: "state.json", RedisKey: "clawface:state"},
		RateLimit: RateLimitConfig{RPM: 120, Burst: 20},
		Log:       LogConfig{Level: "info"},
	}
}

// DefaultPath is ~/.clawface/config.json5.
func DefaultPath() string {
	return filepath.Join(ExpandHome("~"), ".clawface", "config.json5")
}

// Load reads path on top of the defaults. A missing file yields the
// defaults. .env files beside the config and in the working directory are
// loaded first, then environment overrides are applied.
func Load(path string) (*Config, error) {
	for _, env := range []string{filepath.Join(filepath.Dir(path), ".env"), ".env"} {
		if err := LoadDotEnv(env); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.Gateway.URL = NormalizeGatewayURL(cfg.Gateway.URL)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as indented JSON (valid JSON5).
func Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	data, err := json.MarshalIndent(cfg, "", "  ")
	cfg.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// ApplyEnvOverrides lets environment variables win over the file.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			var n int
			if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
				*dst = n
			}
		}
	}

	envStr("HOST", &c.Server.Host)
	envInt("PORT", &c.Server.Port)
	envInt("HTTPS_PORT", &c.Server.HTTPSPort)
	envStr("OPENAI_API_KEY", &c.Speech.OpenAIAPIKey)
	envStr("CLAWFACE_GATEWAY_URL", &c.Gateway.URL)
	envStr("CLAWFACE_GATEWAY_TOKEN", &c.Gateway.Token)
	envStr("CLAWFACE_SESSION_KEY", &c.Gateway.SessionKey)
	envStr("CLAWFACE_LOG_LEVEL", &c.Log.Level)
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Snapshot.RedisAddr = v
		c.Snapshot.Backend = "redis"
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if _, ok := ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level))
	}
	switch c.Snapshot.Backend {
	case "file", "":
	case "redis":
		if c.Snapshot.RedisAddr == "" {
			errs = append(errs, errors.New("snapshot.backend redis needs snapshot.redisAddr"))
		}
	default:
		errs = append(errs, fmt.Errorf("snapshot.backend %q: want file or redis", c.Snapshot.Backend))
	}
	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		errs = append(errs, fmt.Errorf("telemetry.protocol %q: want grpc or http", c.Telemetry.Protocol))
	}
	switch c.Speech.Provider {
	case "", "openai", "edge":
	default:
		errs = append(errs, fmt.Errorf("speech.provider %q: want openai or edge", c.Speech.Provider))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.RateLimit.RPM < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rateLimit values must not be negative"))
	}
	return errors.Join(errs...)
}

// HasOpenAI reports whether an OpenAI key is configured.
func (c *Config) HasOpenAI() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Speech.OpenAIAPIKey != ""
}

// Hash fingerprints the effective config, so reloads can skip no-op writes.
func (c *Config) Hash() string {
	c.mu.RLock()
	data, _ := json.Marshal(c)
	c.mu.RUnlock()
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// MaskedCopy returns a JSON-ready map with secrets masked.
func (c *Config) MaskedCopy() map[string]interface{} {
	c.mu.RLock()
	data, _ := json.Marshal(c)
	c.mu.RUnlock()
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	maskSecrets(raw)
	return raw
}

var secretKeys = map[string]bool{
	"token": true, "openaiApiKey": true, "apiKey": true, "headers": true,
}

func maskSecrets(m map[string]interface{}) {
	for k, v := range m {
		if secretKeys[k] {
			switch s := v.(type) {
			case string:
				m[k] = MaskSecret(s)
			case map[string]interface{}:
				for hk, hv := range s {
					if hs, ok := hv.(string); ok {
						s[hk] = MaskSecret(hs)
					}
				}
			}
			continue
		}
		if sub, ok := v.(map[string]interface{}); ok {
			maskSecrets(sub)
		}
	}
}

// MaskSecret keeps the first and last four characters of long secrets.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "****" + s[len(s)-4:]
	default:
		return "****"
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
