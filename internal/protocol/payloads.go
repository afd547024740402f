package protocol

import "encoding/json"

// Inbound payloads.

type Identify struct {
	UserID string `json:"userId" validate:"required"`
}

type OutgoingCall struct {
	To   string `json:"to" validate:"required"`
	From string `json:"from" validate:"required"`
	// RoomID is a caller-supplied correlation token; when absent the
	// router fills in a server-generated one.
	RoomID   string `json:"roomId"`
	CallType string `json:"callType" validate:"required,oneof=audio video"`
}

// AcceptIncomingCall is sent by the callee. CalleeID carries the ORIGINAL
// CALLER's id echoed back from the invite; the field name is a client-side
// quirk kept for wire compatibility.
type AcceptIncomingCall struct {
	CalleeID string `json:"calleeId" validate:"required"`
}

// RejectCall is sent by the callee; From names the original caller to
// notify, mirroring the accept quirk.
type RejectCall struct {
	From     string `json:"from" validate:"required"`
	CallType string `json:"callType" validate:"required,oneof=audio video"`
}

type SendMessage struct {
	To      string          `json:"to" validate:"required"`
	From    string          `json:"from" validate:"required"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type MarkRead struct {
	AckingUser      string `json:"ackingUser" validate:"required"`
	CounterpartUser string `json:"counterpartUser" validate:"required"`
}

// Outbound payloads.

type PresenceSnapshot struct {
	OnlineUsers []string `json:"onlineUsers"`
}

type IncomingCall struct {
	From     string `json:"from"`
	RoomID   string `json:"roomId"`
	CallType string `json:"callType"`
}

type CallOffline struct {
	CallType string `json:"callType"`
}

type AcceptCall struct {
	From   string `json:"from"`
	RoomID string `json:"roomId"`
}

type CallRejected struct {
	CallType string `json:"callType"`
}

type MessageReceived struct {
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

type ReadAck struct {
	AckingUser      string `json:"ackingUser"`
	CounterpartUser string `json:"counterpartUser"`
}
