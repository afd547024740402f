// Package media issues access tokens for the third-party call transport.
// The signaling core never validates roomId against the media layer; it
// only signs what the client asked for.
package media

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chirp-im/chirp/internal/core"
	"github.com/chirp-im/chirp/internal/domain"
)

var ErrNoSecret = errors.New("media secret not configured")

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

var _ core.MediaTokens = (*Issuer)(nil)

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs an HS256 token granting user access to room for the
// configured TTL (the upstream media provider expects one hour).
func (i *Issuer) Issue(user domain.UserID, room domain.RoomID) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  string(user),
		"room": string(room),
		"iat":  now.Unix(),
		"exp":  now.Add(i.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}
