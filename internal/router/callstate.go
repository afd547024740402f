package router

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chirp-im/chirp/internal/domain"
)

// CallState tracks one logical call attempt. The table is purely in-memory
// bookkeeping reconstructed from the event stream; routing itself is driven
// by the identities carried in the events.
type CallState int

const (
	StateRinging CallState = iota
	StateConnected
	StateRejected
	StateOffline
	StateTimeout
)

func (s CallState) String() string {
	switch s {
	case StateRinging:
		return "ringing"
	case StateConnected:
		return "connected"
	case StateRejected:
		return "rejected"
	case StateOffline:
		return "offline"
	case StateTimeout:
		return "timeout"
	}
	return "unknown"
}

type callAttempt struct {
	invite  domain.CallInvite
	expires time.Time
}

// callTable keys attempts by correlation token with a secondary caller
// index, since accept/reject events carry the caller id rather than the
// token. Unresolved RINGING entries expire after ttl so churn cannot leak
// them.
type callTable struct {
	mu       sync.Mutex
	ttl      time.Duration
	byRoom   map[domain.RoomID]*callAttempt
	byCaller map[domain.UserID]domain.RoomID
}

func newCallTable(ttl time.Duration) *callTable {
	return &callTable{
		ttl:      ttl,
		byRoom:   make(map[domain.RoomID]*callAttempt),
		byCaller: make(map[domain.UserID]domain.RoomID),
	}
}

// begin records a RINGING attempt. A reused correlation token or a caller
// dialing again overwrites the previous attempt, last writer wins.
func (t *callTable) begin(inv domain.CallInvite) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.byCaller[inv.From]; ok && old != inv.RoomID {
		delete(t.byRoom, old)
	}
	t.byRoom[inv.RoomID] = &callAttempt{invite: inv, expires: time.Now().Add(t.ttl)}
	t.byCaller[inv.From] = inv.RoomID
}

// accept resolves the RINGING attempt belonging to caller and removes it
// (CONNECTED; call lifetime beyond this point belongs to the media layer).
func (t *callTable) accept(caller domain.UserID) (domain.CallInvite, bool) {
	return t.resolve(caller, StateConnected)
}

// reject resolves the RINGING attempt belonging to caller and removes it.
func (t *callTable) reject(caller domain.UserID) (domain.CallInvite, bool) {
	return t.resolve(caller, StateRejected)
}

func (t *callTable) resolve(caller domain.UserID, to CallState) (domain.CallInvite, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	room, ok := t.byCaller[caller]
	if !ok {
		return domain.CallInvite{}, false
	}
	att := t.byRoom[room]
	delete(t.byRoom, room)
	delete(t.byCaller, caller)
	log.Debug().Str("module", "router.calls").Str("caller", string(caller)).
		Str("room", string(room)).Str("state", to.String()).Msg("call resolved")
	return att.invite, true
}

func (t *callTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byRoom)
}

// sweep drops attempts whose deadline passed (TIMEOUT) and returns them.
func (t *callTable) sweep(now time.Time) []domain.CallInvite {
	t.mu.Lock()
	defer t.mu.Unlock()
	var expired []domain.CallInvite
	for room, att := range t.byRoom {
		if att.expires.After(now) {
			continue
		}
		expired = append(expired, att.invite)
		delete(t.byRoom, room)
		if t.byCaller[att.invite.From] == room {
			delete(t.byCaller, att.invite.From)
		}
	}
	return expired
}

// run sweeps periodically until ctx is done.
func (t *callTable) run(ctx context.Context) {
	ticker := time.NewTicker(t.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, inv := range t.sweep(now) {
				log.Info().Str("module", "router.calls").Str("from", string(inv.From)).
					Str("to", string(inv.To)).Str("room", string(inv.RoomID)).
					Str("state", StateTimeout.String()).Msg("ringing attempt expired")
			}
		}
	}
}
