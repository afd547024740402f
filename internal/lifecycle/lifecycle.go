// Package lifecycle ties session establishment and teardown to the
// presence registry and fans out presence changes.
package lifecycle

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/chirp-im/chirp/internal/core"
	"github.com/chirp-im/chirp/internal/domain"
	"github.com/chirp-im/chirp/internal/presence"
	"github.com/chirp-im/chirp/internal/protocol"
)

type Manager struct {
	registry *presence.Registry
}

func NewManager(registry *presence.Registry) *Manager {
	return &Manager{registry: registry}
}

// Attach registers the session and broadcasts the updated presence
// snapshot to every registered session, the new one included (idempotent on
// the client and simpler than excluding it).
func (m *Manager) Attach(user domain.UserID, handle core.SignalConnection) {
	m.registry.Register(user, handle)
	m.broadcast()
}

// Detach deregisters the session. The delete is handle-checked; when a
// stale teardown loses the race against a reconnect nothing changed, so no
// broadcast goes out.
func (m *Manager) Detach(user domain.UserID, handle core.SignalConnection) {
	if !m.registry.Deregister(user, handle) {
		return
	}
	m.broadcast()
}

// broadcast is O(online sessions) per presence change. Send failures are
// logged and the dying session closed; a broadcast never fails as a whole.
func (m *Manager) broadcast() {
	users := m.registry.Snapshot()
	frame, err := protocol.Encode(protocol.EventPresenceSnapshot, protocol.PresenceSnapshot{
		OnlineUsers: lo.Map(users, func(u domain.UserID, _ int) string { return string(u) }),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "lifecycle").Msg("presence encode failed")
		return
	}
	for _, u := range users {
		handle, ok := m.registry.Lookup(u)
		if !ok {
			continue
		}
		if err := handle.TrySend(core.Frame(frame)); err != nil {
			log.Warn().Err(err).Str("module", "lifecycle").Str("user", string(u)).Msg("presence send failed, closing session")
			handle.Close()
		}
	}
	log.Debug().Str("module", "lifecycle").Int("online", len(users)).Msg("presence broadcast")
}
