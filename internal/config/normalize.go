package config

import (
	"log/slog"
	"strings"
)

// NormalizeGatewayURL accepts the forms people paste and returns a
// WebSocket URL:
//   - "host:port" gets "ws://"
//   - http(s) schemes become ws(s)
//   - surrounding whitespace and a trailing "/" are dropped
func NormalizeGatewayURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	switch {
	case strings.HasPrefix(lower, "ws://"), strings.HasPrefix(lower, "wss://"):
	case strings.HasPrefix(lower, "http://"):
		u = "ws://" + u[len("http://"):]
	case strings.HasPrefix(lower, "https://"):
		u = "wss://" + u[len("https://"):]
	default:
		u = "ws://" + u
	}
	return strings.TrimRight(u, "/")
}

// ParseLevel maps a level name to slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
