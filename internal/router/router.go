// Package router holds the routing rules: given an inbound event and the
// presence registry, decide which session receives which outbound event.
// It never blocks on I/O beyond the final non-blocking send.
package router

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chirp-im/chirp/internal/core"
	"github.com/chirp-im/chirp/internal/domain"
	"github.com/chirp-im/chirp/internal/presence"
	"github.com/chirp-im/chirp/internal/protocol"
)

type Router struct {
	registry *presence.Registry
	calls    *callTable
}

func New(registry *presence.Registry, callTTL time.Duration) *Router {
	return &Router{
		registry: registry,
		calls:    newCallTable(callTTL),
	}
}

// Run drives the call-table sweeper until ctx is done.
func (r *Router) Run(ctx context.Context) {
	r.calls.run(ctx)
}

// OutgoingCall starts a ringing attempt. Online callee gets the invite with
// roomId and callType unchanged; otherwise the caller alone gets
// call-offline. sender is the caller's own connection.
func (r *Router) OutgoingCall(sender core.SignalConnection, p *protocol.OutgoingCall) {
	callType, err := domain.ParseCallType(p.CallType)
	if err != nil {
		log.Warn().Str("module", "router").Str("callType", p.CallType).Msg("invalid call type dropped")
		return
	}
	roomID := domain.RoomID(p.RoomID)
	if roomID == "" {
		roomID = domain.RoomID(uuid.NewString())
	}
	inv := domain.CallInvite{
		From:     domain.UserID(p.From),
		To:       domain.UserID(p.To),
		RoomID:   roomID,
		CallType: callType,
	}

	target, ok := r.registry.Lookup(inv.To)
	if !ok {
		// RoutingMiss: a defined outcome, not an error.
		log.Debug().Str("module", "router").Str("from", string(inv.From)).
			Str("to", string(inv.To)).Msg("callee offline")
		r.emit(sender, protocol.EventCallOffline, protocol.CallOffline{CallType: p.CallType})
		return
	}

	r.calls.begin(inv)
	r.emit(target, protocol.EventIncomingCall, protocol.IncomingCall{
		From:     string(inv.From),
		RoomID:   string(inv.RoomID),
		CallType: string(inv.CallType),
	})
}

// AcceptCall forwards accept-call to the original caller, whose id the
// callee echoes back in the calleeId field.
func (r *Router) AcceptCall(p *protocol.AcceptIncomingCall) {
	caller := domain.UserID(p.CalleeID)
	inv, tracked := r.calls.accept(caller)

	target, ok := r.registry.Lookup(caller)
	if !ok {
		log.Debug().Str("module", "router").Str("caller", string(caller)).Msg("accept for offline caller dropped")
		return
	}
	out := protocol.AcceptCall{}
	if tracked {
		out.From = string(inv.To)
		out.RoomID = string(inv.RoomID)
	}
	r.emit(target, protocol.EventAcceptCall, out)
}

// RejectCall forwards call-rejected to the original caller named by the
// from field. Audio and video share this flow; callType rides along so the
// client can clear the right UI.
func (r *Router) RejectCall(p *protocol.RejectCall) {
	caller := domain.UserID(p.From)
	r.calls.reject(caller)

	target, ok := r.registry.Lookup(caller)
	if !ok {
		log.Debug().Str("module", "router").Str("caller", string(caller)).Msg("reject for offline caller dropped")
		return
	}
	r.emit(target, protocol.EventCallRejected, protocol.CallRejected{CallType: p.CallType})
}

// RelayMessage forwards message-received to an online recipient. Offline
// recipients get nothing: the directory already persisted the message and
// the client picks it up on its next history fetch.
func (r *Router) RelayMessage(p *protocol.SendMessage) {
	target, ok := r.registry.Lookup(domain.UserID(p.To))
	if !ok {
		log.Debug().Str("module", "router").Str("to", p.To).Msg("recipient offline, relay skipped")
		return
	}
	r.emit(target, protocol.EventMessageReceived, protocol.MessageReceived{
		From:    p.From,
		Payload: p.Payload,
	})
}

// MarkRead forwards the read marker to the counterpart if online. Read
// receipts are best effort and never queued or retried.
func (r *Router) MarkRead(p *protocol.MarkRead) {
	target, ok := r.registry.Lookup(domain.UserID(p.CounterpartUser))
	if !ok {
		return
	}
	r.emit(target, protocol.EventReadAck, protocol.ReadAck{
		AckingUser:      p.AckingUser,
		CounterpartUser: p.CounterpartUser,
	})
}

// emit encodes and fires one event at one handle. A transport failure is
// logged and the dying session is closed for teardown; it never propagates
// back to the event's originator.
func (r *Router) emit(target core.SignalConnection, event string, data any) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "router").Str("event", event).Msg("encode failed")
		return
	}
	if err := target.TrySend(core.Frame(frame)); err != nil {
		log.Warn().Err(err).Str("module", "router").Str("event", event).Msg("send failed, closing session")
		target.Close()
	}
}
