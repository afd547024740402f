// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const (
	MaxNameLen  = 60
	MaxAboutLen = 200
)

var (
	ErrEmailEmpty  = errors.New("email empty")
	ErrNameEmpty   = errors.New("name empty")
	ErrNameTooLong = errors.New("name too long")
)

// UserID is the stable account identifier. The signaling core never mints
// one; it only carries values handed out by the directory.
type UserID string

type User struct {
	ID        UserID `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	About     string `json:"about,omitempty"`
	AvatarURL string `json:"profilePicture,omitempty"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(email, name, about, avatarURL string) (*User, error) {
	if email == "" {
		return nil, ErrEmailEmpty
	}
	if name == "" {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	if len(about) > MaxAboutLen {
		about = about[:MaxAboutLen]
	}
	return &User{
		ID:        UserID(uuid.NewString()),
		Email:     email,
		Name:      name,
		About:     about,
		AvatarURL: avatarURL,
	}, nil
}
