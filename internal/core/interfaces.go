package core

import (
	"context"

	"github.com/chirp-im/chirp/internal/domain"
)

// Frame is an encoded outbound event ready for the transport.
type Frame []byte

// SignalConnection is the only way to push an outbound frame to one live
// client. Owned by its session adapter; the adapter must Close() it.
// Everything else holds a non-owning reference used purely for dispatch.
type SignalConnection interface {
	// TrySend enqueues the frame without blocking. It fails when the
	// session's outbound queue is full or the connection is closed.
	TrySend(Frame) error
	// Close is idempotent and safe to call from any goroutine.
	Close()
}

// Directory is the external user/message store. The router never calls it;
// only the surrounding request layer does, before or after a relay.
type Directory interface {
	FindUser(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, email, name, about, avatarURL string) (*domain.User, error)
	// ListUsersByInitial groups all users by the first letter of their
	// name, the shape the contacts screen consumes.
	ListUsersByInitial(ctx context.Context) (map[string][]domain.User, error)
	// PersistMessage stores an envelope. delivered reports whether the
	// recipient was online at persist time.
	PersistMessage(ctx context.Context, env domain.MessageEnvelope, delivered bool) (domain.MessageRecord, error)
	// MarkRead flips every unread message between the two users to read
	// and returns how many rows changed.
	MarkRead(ctx context.Context, from, to domain.UserID) (int, error)
}

// MediaTokens issues access tokens for the third-party call transport. The
// signaling core never inspects rooms or tokens, it only hands them out.
type MediaTokens interface {
	Issue(user domain.UserID, room domain.RoomID) (string, error)
}
