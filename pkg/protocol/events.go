package protocol

// WebSocket event names pushed from the gateway to the client.
const (
	EventAgent            = "agent"
	EventChat             = "chat"
	EventHealth           = "health"
	EventPresence         = "presence"
	EventTick             = "tick"
	EventShutdown         = "shutdown"
	EventConnectChallenge = "connect.challenge"
	EventHeartbeat        = "heartbeat"
)

// Chat event states (payload.state).
const (
	ChatStateDelta   = "delta"
	ChatStateFinal   = "final"
	ChatStateError   = "error"
	ChatStateAborted = "aborted"
)

// Agent event markers.
const (
	AgentStreamTool   = "tool"    // payload.stream
	AgentStateToolUse = "toolUse" // payload.state
)

// Handshake and acknowledgement markers found in response payloads.
const (
	ResponseTypeHelloOK    = "hello-ok"
	ResponseStatusAccepted = "accepted"
)
