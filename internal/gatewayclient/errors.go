package gatewayclient

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by requests issued before the handshake completed.
	ErrNotConnected = errors.New("gateway client: not connected")
	// ErrRequestTimeout is returned when no terminal response arrived in time.
	ErrRequestTimeout = errors.New("gateway client: request timed out")
)

// RemoteError is a response with ok=false.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
	}
	return "gateway error: " + e.Message
}

// TransportInitError means the transport could not be opened. It is
// reported through OnDisconnect and followed by a reconnect.
type TransportInitError struct {
	URL string
	Err error
}

func (e *TransportInitError) Error() string {
	return fmt.Sprintf("gateway client: dial %s: %v", e.URL, e.Err)
}

func (e *TransportInitError) Unwrap() error { return e.Err }

// MalformedFrameError describes an inbound frame that could not be parsed.
// Such frames are dropped; the error is only logged.
type MalformedFrameError struct {
	Err error
}

func (e *MalformedFrameError) Error() string {
	return "gateway client: malformed frame: " + e.Err.Error()
}

func (e *MalformedFrameError) Unwrap() error { return e.Err }
