package engine

import (
	"bytes"
	"context"
	"testing"
	"time"

	"vico_home/sessionengine/internal/datapacket"
	"vico_home/sessionengine/internal/domain"
)

// transportRegistry lets a test factory hand constructed fakeTransports
// back to the test goroutine as soon as configureTransports builds
// them, without polling.
type transportRegistry struct {
	subscriberReady chan *fakeTransport
	publisherReady  chan *fakeTransport
}

func newTransportRegistry() *transportRegistry {
	return &transportRegistry{
		subscriberReady: make(chan *fakeTransport, 4),
		publisherReady:  make(chan *fakeTransport, 4),
	}
}

func (r *transportRegistry) factory() TransportFactory {
	return func(cfg domain.RTCConfiguration, target domain.SignalTarget, primary bool, reportStats bool, delegate domain.TransportDelegate) (domain.Transport, error) {
		ft := newFakeTransport(target, primary, delegate)
		if target == domain.TargetSubscriber {
			r.subscriberReady <- ft
		} else {
			r.publisherReady <- ft
		}
		return ft, nil
	}
}

func testTimeouts() domain.Timeouts {
	return domain.Timeouts{
		JoinResponse:             300 * time.Millisecond,
		TransportState:           300 * time.Millisecond,
		PublisherDataChannelOpen: 300 * time.Millisecond,
		Publish:                 300 * time.Millisecond,
		QuickReconnectRetryDelay: 10 * time.Millisecond,
	}
}

func newTestEngine() (*Engine, *fakeSignalClient, *transportRegistry) {
	sc := newFakeSignalClient()
	reg := newTransportRegistry()
	cfg := domain.EngineConfig{
		Connect: domain.ConnectOptions{RTC: domain.RTCConfiguration{}},
		Room:    domain.RoomOptions{},
	}
	e := New(cfg, testTimeouts(), sc, nil, reg.factory(), nil)
	return e, sc, reg
}

func requireNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func recvTransport(t *testing.T, ch chan *fakeTransport) *fakeTransport {
	t.Helper()
	select {
	case tr := <-ch:
		return tr
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for transport construction")
		return nil
	}
}

// S1 — Happy connect, subscriber primary: lazy negotiation, both
// transports and both publisher data channels constructed.
func TestConnect_SubscriberPrimary_LazyNegotiation(t *testing.T) {
	e, sc, reg := newTestEngine()

	done := make(chan error, 1)
	go func() {
		done <- e.Connect(context.Background(), "wss://host", "tok")
	}()

	jr := domain.JoinResponse{SubscriberPrimary: true, ICEServers: []domain.ICEServer{{URLs: []string{"stun:x"}}}}
	sc.joinCompleter.Set(&jr)

	sub := recvTransport(t, reg.subscriberReady)
	pub := recvTransport(t, reg.publisherReady)

	sub.setState(domain.TransportConnected)

	err := <-done
	requireNoErr(t, err)

	if e.State().Tag != domain.StateConnected {
		t.Fatalf("expected Connected, got %v", e.State())
	}
	if pub.offersSent != 0 {
		t.Fatalf("expected no eager negotiation, got %d offers sent", pub.offersSent)
	}
	if _, ok := pub.channels["_reliable"]; !ok {
		t.Fatal("missing _reliable publisher data channel")
	}
	if _, ok := pub.channels["_lossy"]; !ok {
		t.Fatal("missing _lossy publisher data channel")
	}
}

// S2 — Eager negotiation when the publisher is primary.
func TestConnect_PublisherPrimary_EagerNegotiation(t *testing.T) {
	e, sc, reg := newTestEngine()

	done := make(chan error, 1)
	go func() {
		done <- e.Connect(context.Background(), "wss://host", "tok")
	}()

	jr := domain.JoinResponse{SubscriberPrimary: false}
	sc.joinCompleter.Set(&jr)

	sub := recvTransport(t, reg.subscriberReady)
	pub := recvTransport(t, reg.publisherReady)
	_ = sub

	pub.setState(domain.TransportConnected)

	err := <-done
	requireNoErr(t, err)

	if pub.offersSent != 1 {
		t.Fatalf("expected eager negotiation to fire exactly once, got %d", pub.offersSent)
	}
	e.mu.Lock()
	hasPublished := e.hasPublished
	e.mu.Unlock()
	if !hasPublished {
		t.Fatal("expected hasPublished=true after eager negotiation")
	}
}

// S3 — send before the publisher data channel is open: the call
// suspends until both the publisher transport and the reliable data
// channel reach a ready state, then the exact serialized bytes reach
// the mock channel.
func TestSend_SuspendsUntilPublisherAndDataChannelReady(t *testing.T) {
	e, sc, reg := newTestEngine()

	done := make(chan error, 1)
	go func() {
		done <- e.Connect(context.Background(), "wss://host", "tok")
	}()

	jr := domain.JoinResponse{SubscriberPrimary: true}
	sc.joinCompleter.Set(&jr)

	sub := recvTransport(t, reg.subscriberReady)
	pub := recvTransport(t, reg.publisherReady)

	sub.setState(domain.TransportConnected)
	requireNoErr(t, <-done)

	packet := domain.UserPacket{ParticipantIdentity: "p1", Payload: []byte("hello"), Topic: "chat"}

	sendDone := make(chan error, 1)
	go func() {
		sendDone <- e.Send(packet, domain.Reliable)
	}()

	// Give the send goroutine a chance to start waiting before the
	// transport/data-channel become ready.
	time.Sleep(20 * time.Millisecond)

	pub.setState(domain.TransportConnected)
	reliableDC := pub.channels["_reliable"]
	reliableDC.setState(domain.DataChannelOpen)

	requireNoErr(t, <-sendDone)

	if len(reliableDC.sent) != 1 {
		t.Fatalf("expected exactly one sent frame, got %d", len(reliableDC.sent))
	}
	want, err := datapacket.Encode(datapacket.NewUserPacket(domain.Reliable, packet))
	requireNoErr(t, err)
	if !bytes.Equal(reliableDC.sent[0], want) {
		t.Fatalf("sent frame %x, want %x", reliableDC.sent[0], want)
	}
}

// S4 — quick reconnect success: primary transport fails, the engine
// resumes signaling with mode Quick, awaits primary connected, and
// since hasPublished, restarts the publisher with an ICE-restart offer.
func TestReconnect_QuickSucceeds(t *testing.T) {
	e, sc, reg := newTestEngine()

	done := make(chan error, 1)
	go func() {
		done <- e.Connect(context.Background(), "wss://host", "tok")
	}()

	jr := domain.JoinResponse{SubscriberPrimary: false} // publisher primary, eager negotiation → hasPublished
	sc.joinCompleter.Set(&jr)

	sub := recvTransport(t, reg.subscriberReady)
	pub := recvTransport(t, reg.publisherReady)
	pub.setState(domain.TransportConnected)
	requireNoErr(t, <-done)

	// Simulate the primary (publisher) transport failing. The
	// primaryTransportConnected/publisherTransportConnected completers
	// were already resolved by the initial connect and are never reset
	// outside cleanUp (spec.md §9's resolved open question), so this
	// reconnect attempt resolves on its first pass without needing a
	// fresh Connected signal — re-asserting it here exercises the same
	// codepath a real reconnect would.
	pub.setState(domain.TransportFailed)
	pub.setState(domain.TransportConnected)

	deadline := time.After(time.Second)
	for {
		st := e.State()
		if st.Tag == domain.StateConnected && st.Mode == domain.ModeReconnect {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("engine never reached Connected(Reconnect), last state=%v", st)
		case <-time.After(5 * time.Millisecond):
		}
	}

	if e.State().ReconnectMode != domain.ReconnectQuick {
		t.Fatalf("expected quick reconnect mode, got %v", e.State())
	}
	_ = sub
}

// S6 — non-recoverable leave: immediate hard disconnect, no reconnect,
// all session identity and RTC state cleared.
func TestLeave_NonRecoverable_HardDisconnect(t *testing.T) {
	e, sc, reg := newTestEngine()

	done := make(chan error, 1)
	go func() {
		done <- e.Connect(context.Background(), "wss://host", "tok")
	}()

	jr := domain.JoinResponse{SubscriberPrimary: true}
	sc.joinCompleter.Set(&jr)

	sub := recvTransport(t, reg.subscriberReady)
	_ = recvTransport(t, reg.publisherReady)
	sub.setState(domain.TransportConnected)
	requireNoErr(t, <-done)

	e.OnLeave(domain.Leave{CanReconnect: false})

	if e.State().Tag != domain.StateDisconnected {
		t.Fatalf("expected Disconnected, got %v", e.State())
	}
	e.mu.Lock()
	pub, subAfter, ident := e.publisher, e.subscriber, e.identity
	e.mu.Unlock()
	if pub != nil || subAfter != nil {
		t.Fatal("expected transports cleared after non-recoverable leave")
	}
	if ident.IsSet() {
		t.Fatal("expected identity cleared after non-recoverable leave")
	}
}
