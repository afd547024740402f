package signal

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/chirp-im/chirp/internal/domain"
	"github.com/chirp-im/chirp/internal/protocol"
)

// session owns one connection end to end: the read pump dispatches inbound
// events serially in arrival order, the write pump drains the outbound
// queue. user is set by the read pump on connect-identify and read nowhere
// else until the pump's teardown, so it needs no lock.
type session struct {
	ctl        *Controller
	conn       *wsConn
	user       domain.UserID
	identified bool
}

func (s *session) writePump() {
	ticker := time.NewTicker(s.ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-s.conn.send:
			if !ok {
				return
			}
			if err := s.conn.conn.SetWriteDeadline(time.Now().Add(s.ctl.Cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := s.conn.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := s.conn.conn.SetWriteDeadline(time.Now().Add(s.ctl.Cfg.WriteTimeout)); err != nil {
				return
			}
			if err := s.conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) readPump() {
	// Teardown runs exactly once, whatever closed the transport. The
	// deregistration is handle-checked, so a late teardown after a
	// reconnect cannot evict the newer session.
	defer func() {
		if s.identified {
			s.ctl.Life.Detach(s.user, s.conn)
			s.ctl.Limiter.Forget(s.user)
		}
		s.conn.Close()
		log.Info().Str("module", "signal").Str("user", string(s.user)).Msg("readPump closing")
	}()

	for {
		_, data, err := s.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Msg("readPump read error")
			}
			return
		}
		s.dispatch(data)
	}
}

// dispatch parses one inbound frame and hands it to the router. Malformed
// events are dropped and logged; the connection stays open.
func (s *session) dispatch(data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(s.user)).Msg("event dropped")
		return
	}

	if env.Event == protocol.EventConnectIdentify {
		s.identify(env)
		return
	}
	if !s.identified {
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("event before identify dropped")
		return
	}
	if !s.ctl.Limiter.Allow(s.user) {
		log.Warn().Str("module", "signal").Str("user", string(s.user)).Str("event", env.Event).Msg("rate limited")
		return
	}

	switch env.Event {
	case protocol.EventOutgoingCall:
		var p protocol.OutgoingCall
		if s.bind(env, &p) {
			s.ctl.Router.OutgoingCall(s.conn, &p)
		}
	case protocol.EventAcceptIncomingCall:
		var p protocol.AcceptIncomingCall
		if s.bind(env, &p) {
			s.ctl.Router.AcceptCall(&p)
		}
	case protocol.EventRejectCall:
		var p protocol.RejectCall
		if s.bind(env, &p) {
			s.ctl.Router.RejectCall(&p)
		}
	case protocol.EventSendMessage:
		var p protocol.SendMessage
		if s.bind(env, &p) {
			s.ctl.Router.RelayMessage(&p)
		}
	case protocol.EventMarkRead:
		var p protocol.MarkRead
		if s.bind(env, &p) {
			s.ctl.Router.MarkRead(&p)
		}
	}
}

// identify registers this session for the given user. Re-identifying under
// a different id detaches the old registration first.
func (s *session) identify(env *protocol.Envelope) {
	var p protocol.Identify
	if !s.bind(env, &p) {
		return
	}
	user := domain.UserID(p.UserID)
	if s.identified && s.user != user {
		s.ctl.Life.Detach(s.user, s.conn)
	}
	s.user = user
	s.identified = true
	s.ctl.Life.Attach(user, s.conn)
}

func (s *session) bind(env *protocol.Envelope, v any) bool {
	if err := env.Bind(v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(s.user)).Msg("event dropped")
		return false
	}
	return true
}
