// Package presence is the single source of truth for "is this user online,
// on which connection".
package presence

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/chirp-im/chirp/internal/core"
	"github.com/chirp-im/chirp/internal/domain"
)

// Registry maps user identity to the live connection handle. It holds the
// lock only around map mutation, never across I/O, so one slow client can
// never stall registration of others.
type Registry struct {
	mu     sync.RWMutex
	online map[domain.UserID]core.SignalConnection
}

func NewRegistry() *Registry {
	return &Registry{online: make(map[domain.UserID]core.SignalConnection)}
}

// Register inserts or replaces the entry for user. Last connection wins:
// a reconnect evicts the previous handle from lookup, but the old handle is
// left to close on its own.
func (r *Registry) Register(user domain.UserID, handle core.SignalConnection) {
	r.mu.Lock()
	_, replaced := r.online[user]
	r.online[user] = handle
	r.mu.Unlock()
	log.Info().Str("module", "presence").Str("user", string(user)).Bool("replaced", replaced).Msg("registered")
}

// Deregister removes the entry for user only if the stored handle is the
// one being removed. A late teardown of a replaced connection is a no-op,
// so it can never evict a newer registration for the same user.
func (r *Registry) Deregister(user domain.UserID, handle core.SignalConnection) bool {
	r.mu.Lock()
	current, ok := r.online[user]
	if ok && current == handle {
		delete(r.online, user)
		r.mu.Unlock()
		log.Info().Str("module", "presence").Str("user", string(user)).Msg("deregistered")
		return true
	}
	r.mu.Unlock()
	if ok {
		// Handle mismatch: a newer session owns the entry now.
		log.Debug().Str("module", "presence").Str("user", string(user)).Msg("stale deregister ignored")
	}
	return false
}

// Lookup returns the live handle for user, if any.
func (r *Registry) Lookup(user domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.online[user]
	return h, ok
}

// Snapshot returns the set of currently online users, for full presence
// broadcasts.
func (r *Registry) Snapshot() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.online)
}
