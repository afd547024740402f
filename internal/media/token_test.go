package media_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/chirp-im/chirp/internal/media"
)

func TestIssue_SignsUserAndRoomClaims(t *testing.T) {
	req := require.New(t)
	issuer := media.NewIssuer("top-secret", time.Hour)

	token, err := issuer.Issue("user-1", "room-42")
	req.NoError(err)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		return []byte("top-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	req.NoError(err)
	req.True(parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	req.True(ok)
	req.Equal("user-1", claims["sub"])
	req.Equal("room-42", claims["room"])

	exp, err := claims.GetExpirationTime()
	req.NoError(err)
	req.WithinDuration(time.Now().Add(time.Hour), exp.Time, time.Minute)
}

func TestIssue_WrongSecretFailsVerification(t *testing.T) {
	req := require.New(t)
	issuer := media.NewIssuer("top-secret", time.Hour)

	token, err := issuer.Issue("user-1", "room-42")
	req.NoError(err)

	_, err = jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		return []byte("other-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	req.Error(err)
}

func TestIssue_MissingSecret(t *testing.T) {
	req := require.New(t)
	issuer := media.NewIssuer("", time.Hour)

	_, err := issuer.Issue("user-1", "room-42")
	req.ErrorIs(err, media.ErrNoSecret)
}
