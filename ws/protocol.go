package ws

import "encoding/json"

// ProtocolVersion is reported to clients in the connect response.
const ProtocolVersion = 1

// Methods a classifier client may call.
const (
	MethodConnect         = "connect"
	MethodClassify        = "command.classify"
	MethodStatus          = "bridge.status"
	MethodDispatchHistory = "dispatch.history"
)

// Events pushed by the bridge.
const (
	EventChallenge = "connect.challenge"
	EventTick      = "tick"
	EventDispatch  = "bridge.dispatch"
)

// Error codes carried in RPCError.Code.
const (
	CodeAuthRequired   = "AUTH_REQUIRED"
	CodeAuthFailed     = "AUTH_FAILED"
	CodeInvalidParams  = "INVALID_PARAMS"
	CodeUnknownCommand = "UNKNOWN_COMMAND"
	CodeUnknownMethod  = "UNKNOWN_METHOD"
	CodeDBError        = "DB_ERROR"
)

// RPCMessage is the envelope of every frame a client sends. Only "req"
// frames are accepted.
type RPCMessage struct {
	Type   string          `json:"type"`
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// RPCRequest is an authenticated request with its params split per key.
type RPCRequest struct {
	ID     string
	Method string
	Params map[string]json.RawMessage
}

// RPCResponse answers one RPCRequest. Policy rejections of a classified
// command are OK responses; Error is reserved for malformed requests.
type RPCResponse struct {
	Type    string      `json:"type"`
	ID      string      `json:"id"`
	OK      bool        `json:"ok"`
	Payload interface{} `json:"payload,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RPCEvent is pushed without a request: the challenge, ticks and
// dispatch notifications.
type RPCEvent struct {
	Type    string      `json:"type"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

func NewResponse(id string, payload interface{}) RPCResponse {
	return RPCResponse{Type: "res", ID: id, OK: true, Payload: payload}
}

func NewErrorResponse(id, code, message string) RPCResponse {
	return RPCResponse{
		Type:  "res",
		ID:    id,
		OK:    false,
		Error: &RPCError{Code: code, Message: message},
	}
}

func NewEvent(event string, payload interface{}) RPCEvent {
	return RPCEvent{Type: "event", Event: event, Payload: payload}
}
