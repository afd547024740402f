package domain

import (
	"encoding/json"
	"time"
)

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// MessageEnvelope is what the router relays. Payload stays opaque; the
// directory assigns IDs and stores history before relay ever happens.
type MessageEnvelope struct {
	From    UserID
	To      UserID
	Payload json.RawMessage
}

// MessageRecord is the directory's persisted view of an envelope. The json
// tags mirror the deployed client's field spellings, typos included.
type MessageRecord struct {
	ID         string          `json:"id"`
	SenderID   UserID          `json:"senderId"`
	ReceiverID UserID          `json:"recieverId"`
	Payload    json.RawMessage `json:"message"`
	Status     MessageStatus   `json:"messageStatus"`
	SentAt     time.Time       `json:"createdAt"`
}

// ReadMarker is a relay-only signal; the core never tracks which messages
// are read, it just forwards the marker to the counterpart if online.
type ReadMarker struct {
	AckingUser      UserID
	CounterpartUser UserID
}
