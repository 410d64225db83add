// Package protocol defines the wire format spoken with the chat gateway over WebSocket.
// Frames are JSON text messages discriminated by their "type" field.
package protocol

import "encoding/json"

// Protocol version. The client pins both min and max to this value during connect.
const ProtocolVersion = 3

// Frame types
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// RequestFrame is sent by the client to invoke an RPC method.
type RequestFrame struct {
	Type   string      `json:"type"`   // always "req"
	ID     string      `json:"id"`     // unique request ID (client-generated)
	Method string      `json:"method"` // RPC method name
	Params interface{} `json:"params,omitempty"`
}

// ResponseFrame is sent by the gateway in response to a request.
// Payload is kept raw so callers can decode it into the shape they expect.
type ResponseFrame struct {
	Type    string          `json:"type"`              // always "res"
	ID      string          `json:"id"`                // matches request ID
	OK      bool            `json:"ok"`                // true if success
	Payload json.RawMessage `json:"payload,omitempty"` // response data
	Error   *ErrorShape     `json:"error,omitempty"`   // error info (when ok=false)
}

// ErrorShape describes a protocol error.
type ErrorShape struct {
	Code         string      `json:"code,omitempty"`
	Message      string      `json:"message"`
	Details      interface{} `json:"details,omitempty"`
	Retryable    bool        `json:"retryable,omitempty"`
	RetryAfterMs int         `json:"retryAfterMs,omitempty"`
}

// EventFrame is pushed from the gateway without a preceding request.
type EventFrame struct {
	Type    string          `json:"type"`              // always "event"
	Event   string          `json:"event"`             // event name
	Payload json.RawMessage `json:"payload,omitempty"` // event data
	Seq     int64           `json:"seq,omitempty"`     // ordering sequence number
}

// ResponseMeta holds the discriminating fields a response payload may carry.
type ResponseMeta struct {
	Type   string `json:"type,omitempty"`   // "hello-ok" for the handshake reply
	Status string `json:"status,omitempty"` // "accepted" for non-terminal acknowledgements
}

// NewRequest creates a request frame.
func NewRequest(id, method string, params interface{}) *RequestFrame {
	return &RequestFrame{
		Type:   FrameTypeRequest,
		ID:     id,
		Method: method,
		Params: params,
	}
}

// NewOKResponse creates a success response frame. Used by test gateways.
func NewOKResponse(id string, payload interface{}) (*ResponseFrame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &ResponseFrame{Type: FrameTypeResponse, ID: id, OK: true, Payload: raw}, nil
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id string, code, message string) *ResponseFrame {
	return &ResponseFrame{
		Type: FrameTypeResponse,
		ID:   id,
		OK:   false,
		Error: &ErrorShape{
			Code:    code,
			Message: message,
		},
	}
}

// NewEvent creates an event frame.
func NewEvent(event string, payload interface{}) (*EventFrame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &EventFrame{Type: FrameTypeEvent, Event: event, Payload: raw}, nil
}

// ParseFrameType extracts the frame type from raw JSON bytes.
func ParseFrameType(data []byte) (string, error) {
	var raw struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", err
	}
	return raw.Type, nil
}

// ParseResponseMeta decodes the discriminating fields of a response payload.
// A missing or non-object payload yields a zero ResponseMeta.
func ParseResponseMeta(payload json.RawMessage) ResponseMeta {
	var meta ResponseMeta
	if len(payload) == 0 {
		return meta
	}
	_ = json.Unmarshal(payload, &meta)
	return meta
}
