package cmd

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/nextlevelbuilder/clawface/internal/gatewayclient"
	"github.com/nextlevelbuilder/clawface/pkg/protocol"
)

const (
	msgAuthRejected = "Gateway rejected the token. Check gateway.token."
	msgRateLimited  = "Gateway rate limit reached. Please try again later."
)

// formatSendError turns client and gateway errors into a short line for the
// terminal. Raw payloads are logged, never shown.
func formatSendError(err error) string {
	var remote *gatewayclient.RemoteError
	var initErr *gatewayclient.TransportInitError

	switch {
	case errors.Is(err, gatewayclient.ErrNotConnected):
		return "Not connected to the gateway yet."
	case errors.Is(err, gatewayclient.ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		return "Request timed out. Please try again."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.As(err, &initErr):
		return "Gateway unreachable at " + initErr.URL + "."
	case errors.As(err, &remote):
		return formatRemote(remote)
	}

	slog.Warn("unclassified gateway error", "error", err)
	return "Something went wrong talking to the gateway."
}

func formatRemote(e *gatewayclient.RemoteError) string {
	switch e.Code {
	case protocol.ErrUnauthorized:
		return msgAuthRejected
	case protocol.ErrResourceExhausted:
		return msgRateLimited
	case protocol.ErrUnavailable:
		return "Gateway is unavailable right now. Please try again."
	case protocol.ErrAgentTimeout:
		return "The agent timed out before replying."
	case protocol.ErrInternal:
		slog.Warn("gateway internal error", "message", e.Message)
		return "The gateway hit an internal error."
	}

	lower := strings.ToLower(e.Code + " " + e.Message)

	if containsAny(lower, "unauthorized", "forbidden", "invalid token", "auth", "401", "403") {
		return msgAuthRejected
	}
	if containsAny(lower, "rate limit", "rate_limit", "too many requests", "429") {
		return msgRateLimited
	}
	if containsAny(lower, "protocol", "version") {
		return "Gateway speaks a different protocol version."
	}
	if e.Message != "" {
		return e.Message
	}

	slog.Warn("unclassified gateway error", "code", e.Code)
	return "The gateway returned an error."
}

// containsAny returns true if s contains any of the given substrings.
func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
