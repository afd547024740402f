package directory_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chirp-im/chirp/internal/directory"
	"github.com/chirp-im/chirp/internal/domain"
)

func TestCreateAndFindUser(t *testing.T) {
	req := require.New(t)
	d := directory.NewInMemory()
	ctx := context.Background()

	created, err := d.CreateUser(ctx, "ada@example.com", "Ada", "hi there", "")
	req.NoError(err)
	req.NotEmpty(created.ID)

	found, err := d.FindUser(ctx, "ada@example.com")
	req.NoError(err)
	req.Equal(created.ID, found.ID)

	_, err = d.FindUser(ctx, "nobody@example.com")
	req.ErrorIs(err, directory.ErrNotFound)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	req := require.New(t)
	d := directory.NewInMemory()
	ctx := context.Background()

	_, err := d.CreateUser(ctx, "ada@example.com", "Ada", "", "")
	req.NoError(err)
	_, err = d.CreateUser(ctx, "ada@example.com", "Other Ada", "", "")
	req.ErrorIs(err, directory.ErrEmailTaken)
}

func TestListUsersByInitial(t *testing.T) {
	req := require.New(t)
	d := directory.NewInMemory()
	ctx := context.Background()

	for _, name := range []string{"bob", "Ada", "alan", "Charlie"} {
		_, err := d.CreateUser(ctx, name+"@example.com", name, "", "")
		req.NoError(err)
	}

	grouped, err := d.ListUsersByInitial(ctx)
	req.NoError(err)
	req.Len(grouped, 3)
	req.Len(grouped["A"], 2)
	// Groups come back sorted by name
	req.Equal("Ada", grouped["A"][0].Name)
	req.Equal("alan", grouped["A"][1].Name)
	req.Len(grouped["B"], 1)
	req.Len(grouped["C"], 1)
}

func TestPersistMessage_StatusDependsOnPresence(t *testing.T) {
	req := require.New(t)
	d := directory.NewInMemory()
	ctx := context.Background()
	env := domain.MessageEnvelope{
		From:    "A",
		To:      "B",
		Payload: json.RawMessage(`{"text":"hi"}`),
	}

	sent, err := d.PersistMessage(ctx, env, false)
	req.NoError(err)
	req.Equal(domain.StatusSent, sent.Status)

	delivered, err := d.PersistMessage(ctx, env, true)
	req.NoError(err)
	req.Equal(domain.StatusDelivered, delivered.Status)
	req.NotEqual(sent.ID, delivered.ID)
}

func TestMarkRead_FlipsUnreadInOneDirection(t *testing.T) {
	req := require.New(t)
	d := directory.NewInMemory()
	ctx := context.Background()

	// Two from A to B, one from B to A
	for _, pair := range [][2]domain.UserID{{"A", "B"}, {"A", "B"}, {"B", "A"}} {
		_, err := d.PersistMessage(ctx, domain.MessageEnvelope{
			From: pair[0], To: pair[1], Payload: json.RawMessage(`"x"`),
		}, true)
		req.NoError(err)
	}

	changed, err := d.MarkRead(ctx, "A", "B")
	req.NoError(err)
	req.Equal(2, changed)

	// Second pass finds nothing left to flip
	changed, err = d.MarkRead(ctx, "A", "B")
	req.NoError(err)
	req.Zero(changed)

	msgs := d.Messages("A", "B")
	req.Len(msgs, 3)
	read := 0
	for _, m := range msgs {
		if m.Status == domain.StatusRead {
			read++
		}
	}
	req.Equal(2, read)
}
