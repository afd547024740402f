package router_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chirp-im/chirp/internal/core"
	"github.com/chirp-im/chirp/internal/presence"
	"github.com/chirp-im/chirp/internal/protocol"
	"github.com/chirp-im/chirp/internal/router"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("queue full")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// events decodes every captured frame into (event, payload) pairs.
func (f *fakeConn) events(t *testing.T) []protocol.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Envelope, 0, len(f.frames))
	for _, fr := range f.frames {
		var env protocol.Envelope
		require.NoError(t, json.Unmarshal(fr, &env))
		out = append(out, env)
	}
	return out
}

func newRouter() (*router.Router, *presence.Registry) {
	reg := presence.NewRegistry()
	return router.New(reg, time.Minute), reg
}

func TestOutgoingCall_OfflineCallee(t *testing.T) {
	req := require.New(t)
	rt, _ := newRouter()
	caller := &fakeConn{}

	// Given user B is not registered, when A dials B
	rt.OutgoingCall(caller, &protocol.OutgoingCall{
		To: "B", From: "A", RoomID: "42", CallType: "video",
	})

	// Then exactly one call-offline lands at the caller and nothing else
	evs := caller.events(t)
	req.Len(evs, 1)
	req.Equal(protocol.EventCallOffline, evs[0].Event)
}

func TestOutgoingCall_OnlineCalleeGetsInviteUnchanged(t *testing.T) {
	req := require.New(t)
	rt, reg := newRouter()
	caller := &fakeConn{}
	callee := &fakeConn{}
	reg.Register("B", callee)

	rt.OutgoingCall(caller, &protocol.OutgoingCall{
		To: "B", From: "A", RoomID: "42", CallType: "video",
	})

	// The callee receives exactly one incoming-call with roomId and
	// callType unchanged; the caller hears nothing.
	evs := callee.events(t)
	req.Len(evs, 1)
	req.Equal(protocol.EventIncomingCall, evs[0].Event)
	var p protocol.IncomingCall
	req.NoError(json.Unmarshal(evs[0].Data, &p))
	req.Equal("A", p.From)
	req.Equal("42", p.RoomID)
	req.Equal("video", p.CallType)
	req.Empty(caller.events(t))
}

func TestOutgoingCall_EmptyRoomIDGetsGenerated(t *testing.T) {
	req := require.New(t)
	rt, reg := newRouter()
	callee := &fakeConn{}
	reg.Register("B", callee)

	rt.OutgoingCall(&fakeConn{}, &protocol.OutgoingCall{
		To: "B", From: "A", CallType: "audio",
	})

	var p protocol.IncomingCall
	req.NoError(json.Unmarshal(callee.events(t)[0].Data, &p))
	req.NotEmpty(p.RoomID)
}

func TestAcceptCall_ForwardsToCaller(t *testing.T) {
	req := require.New(t)
	rt, reg := newRouter()
	caller := &fakeConn{}
	callee := &fakeConn{}
	reg.Register("A", caller)
	reg.Register("B", callee)

	rt.OutgoingCall(caller, &protocol.OutgoingCall{
		To: "B", From: "A", RoomID: "42", CallType: "video",
	})
	// The callee echoes the caller's id back in calleeId
	rt.AcceptCall(&protocol.AcceptIncomingCall{CalleeID: "A"})

	evs := caller.events(t)
	req.Len(evs, 1)
	req.Equal(protocol.EventAcceptCall, evs[0].Event)
	var p protocol.AcceptCall
	req.NoError(json.Unmarshal(evs[0].Data, &p))
	req.Equal("B", p.From)
	req.Equal("42", p.RoomID)
}

func TestRejectCall_ForwardsToCaller(t *testing.T) {
	req := require.New(t)
	rt, reg := newRouter()
	caller := &fakeConn{}
	reg.Register("A", caller)

	rt.RejectCall(&protocol.RejectCall{From: "A", CallType: "audio"})

	evs := caller.events(t)
	req.Len(evs, 1)
	req.Equal(protocol.EventCallRejected, evs[0].Event)
	var p protocol.CallRejected
	req.NoError(json.Unmarshal(evs[0].Data, &p))
	req.Equal("audio", p.CallType)
}

func TestRejectCall_OfflineCallerDropped(t *testing.T) {
	rt, _ := newRouter()

	// Nothing to assert beyond "does not panic, emits nothing anywhere":
	// the caller left before the rejection arrived.
	rt.RejectCall(&protocol.RejectCall{From: "gone", CallType: "video"})
}

func TestRelayMessage_OnlineRecipient(t *testing.T) {
	req := require.New(t)
	rt, reg := newRouter()
	recipient := &fakeConn{}
	reg.Register("B", recipient)

	rt.RelayMessage(&protocol.SendMessage{
		To: "B", From: "A", Payload: json.RawMessage(`{"text":"hi"}`),
	})

	evs := recipient.events(t)
	req.Len(evs, 1)
	req.Equal(protocol.EventMessageReceived, evs[0].Event)
	var p protocol.MessageReceived
	req.NoError(json.Unmarshal(evs[0].Data, &p))
	req.Equal("A", p.From)
	req.JSONEq(`{"text":"hi"}`, string(p.Payload))
}

func TestRelayMessage_OfflineRecipientYieldsNothing(t *testing.T) {
	req := require.New(t)
	rt, reg := newRouter()
	sender := &fakeConn{}
	reg.Register("A", sender)

	rt.RelayMessage(&protocol.SendMessage{
		To: "B", From: "A", Payload: json.RawMessage(`"x"`),
	})

	// Persistence is out of core scope; the relay stays silent.
	req.Empty(sender.events(t))
}

func TestMarkRead_CounterpartGetsAckExactlyOnce(t *testing.T) {
	req := require.New(t)
	rt, reg := newRouter()
	a := &fakeConn{}
	b := &fakeConn{}
	reg.Register("A", a)
	reg.Register("B", b)

	rt.MarkRead(&protocol.MarkRead{AckingUser: "A", CounterpartUser: "B"})

	evs := b.events(t)
	req.Len(evs, 1)
	req.Equal(protocol.EventReadAck, evs[0].Event)
	var p protocol.ReadAck
	req.NoError(json.Unmarshal(evs[0].Data, &p))
	req.Equal("A", p.AckingUser)
	req.Equal("B", p.CounterpartUser)
	req.Empty(a.events(t))
}

func TestSendFailureClosesTargetSession(t *testing.T) {
	req := require.New(t)
	rt, reg := newRouter()
	dying := &fakeConn{fail: true}
	sender := &fakeConn{}
	reg.Register("B", dying)

	rt.RelayMessage(&protocol.SendMessage{
		To: "B", From: "A", Payload: json.RawMessage(`"x"`),
	})

	// The transport failure is absorbed: the target is scheduled for
	// teardown and the originator never hears about it.
	req.True(dying.closed)
	req.Empty(sender.events(t))
}

// Full scenario: offline call, reconnect, fresh call, accept.
func TestCallScenario_OfflineThenReconnect(t *testing.T) {
	req := require.New(t)
	rt, reg := newRouter()
	a := &fakeConn{}
	reg.Register("A", a)

	// A dials B while B is offline
	rt.OutgoingCall(a, &protocol.OutgoingCall{
		To: "B", From: "A", RoomID: "42", CallType: "video",
	})
	evs := a.events(t)
	req.Len(evs, 1)
	req.Equal(protocol.EventCallOffline, evs[0].Event)

	// B connects; no automatic retry happens
	b := &fakeConn{}
	reg.Register("B", b)
	req.Empty(b.events(t))

	// A fresh dial now rings B
	rt.OutgoingCall(a, &protocol.OutgoingCall{
		To: "B", From: "A", RoomID: "43", CallType: "video",
	})
	bEvs := b.events(t)
	req.Len(bEvs, 1)
	req.Equal(protocol.EventIncomingCall, bEvs[0].Event)

	// B accepts and A hears accept-call
	rt.AcceptCall(&protocol.AcceptIncomingCall{CalleeID: "A"})
	aEvs := a.events(t)
	req.Len(aEvs, 2)
	req.Equal(protocol.EventAcceptCall, aEvs[1].Event)
}
