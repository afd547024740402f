package domain

import "errors"

// RoomID is the correlation token linking one call attempt's invite, accept
// and reject events. It is opaque here; the media layer owns its meaning.
type RoomID string

var ErrUnknownCallType = errors.New("unknown call type")

type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

func ParseCallType(s string) (CallType, error) {
	switch CallType(s) {
	case CallAudio, CallVideo:
		return CallType(s), nil
	}
	return "", ErrUnknownCallType
}

// CallInvite describes one ringing attempt. It lives only for the duration
// of that attempt and is never persisted.
type CallInvite struct {
	From     UserID
	To       UserID
	RoomID   RoomID
	CallType CallType
}
