package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chirp-im/chirp/internal/domain"
)

func TestNewUser(t *testing.T) {
	req := require.New(t)

	u, err := domain.NewUser("ada@example.com", "Ada", "about me", "http://img")
	req.NoError(err)
	req.NotEmpty(u.ID)
	req.Equal("Ada", u.Name)

	_, err = domain.NewUser("", "Ada", "", "")
	req.ErrorIs(err, domain.ErrEmailEmpty)

	_, err = domain.NewUser("ada@example.com", "", "", "")
	req.ErrorIs(err, domain.ErrNameEmpty)

	_, err = domain.NewUser("ada@example.com", strings.Repeat("a", domain.MaxNameLen+1), "", "")
	req.ErrorIs(err, domain.ErrNameTooLong)
}

func TestNewUser_TruncatesLongAbout(t *testing.T) {
	req := require.New(t)

	u, err := domain.NewUser("ada@example.com", "Ada", strings.Repeat("x", domain.MaxAboutLen+50), "")
	req.NoError(err)
	req.Len(u.About, domain.MaxAboutLen)
}

func TestParseCallType(t *testing.T) {
	req := require.New(t)

	ct, err := domain.ParseCallType("audio")
	req.NoError(err)
	req.Equal(domain.CallAudio, ct)

	ct, err = domain.ParseCallType("video")
	req.NoError(err)
	req.Equal(domain.CallVideo, ct)

	_, err = domain.ParseCallType("hologram")
	req.ErrorIs(err, domain.ErrUnknownCallType)
}
