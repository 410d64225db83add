package protocol

// Error codes the gateway reports in ErrorShape.Code that the client tells
// apart. Any other code is treated by its message alone.
const (
	ErrUnauthorized      = "UNAUTHORIZED"
	ErrResourceExhausted = "RESOURCE_EXHAUSTED"
	ErrUnavailable       = "UNAVAILABLE"
	ErrAgentTimeout      = "AGENT_TIMEOUT"
	ErrInternal          = "INTERNAL"
)
