// Package protocol is the typed contract of every event the router
// understands. Event and field names are the compatibility surface with the
// deployed client and must not drift.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Inbound event kinds.
const (
	EventConnectIdentify    = "connect-identify"
	EventOutgoingCall       = "outgoing-call"
	EventAcceptIncomingCall = "accept-incoming-call"
	EventRejectCall         = "reject-call"
	EventSendMessage        = "send-message"
	EventMarkRead           = "mark-read"
)

// Outbound event kinds.
const (
	EventPresenceSnapshot = "presence-snapshot"
	EventIncomingCall     = "incoming-call"
	EventCallOffline      = "call-offline"
	EventAcceptCall       = "accept-call"
	EventCallRejected     = "call-rejected"
	EventMessageReceived  = "message-received"
	EventReadAck          = "read-ack"
)

// ProtocolError marks a malformed or incomplete inbound event. The session
// logs it and drops the event; the connection stays open.
type ProtocolError struct {
	Event string
	Err   error
}

func (e *ProtocolError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("protocol: %v", e.Err)
	}
	return fmt.Sprintf("protocol: %s: %v", e.Event, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

var validate = validator.New()

// Envelope is the wire framing: {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

var inboundKinds = map[string]bool{
	EventConnectIdentify:    true,
	EventOutgoingCall:       true,
	EventAcceptIncomingCall: true,
	EventRejectCall:         true,
	EventSendMessage:        true,
	EventMarkRead:           true,
}

// Decode parses a raw inbound frame into an envelope and checks the event
// kind is one the router understands.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ProtocolError{Err: err}
	}
	if !inboundKinds[env.Event] {
		return nil, &ProtocolError{Event: env.Event, Err: fmt.Errorf("unknown event")}
	}
	return &env, nil
}

// Bind unmarshals the envelope payload into v and validates every required
// field. Any miss fails the event with a ProtocolError.
func (e *Envelope) Bind(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return &ProtocolError{Event: e.Event, Err: err}
	}
	if err := validate.Struct(v); err != nil {
		return &ProtocolError{Event: e.Event, Err: err}
	}
	return nil
}

// Encode frames an outbound event.
func Encode(event string, data any) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: b})
}
