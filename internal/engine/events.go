package engine

import (
	"vico_home/sessionengine/internal/datapacket"
	"vico_home/sessionengine/internal/domain"
)

// --- domain.SignalDelegate -------------------------------------------------

func (e *Engine) OnConnectionStateChange(state domain.SignalConnectionState) {
	if state == domain.SignalStateDisconnectedNetwork && e.isConnected() {
		go e.startReconnect()
	}
}

func (e *Engine) OnOffer(sdp domain.SDP) {
	e.mu.Lock()
	sub := e.subscriber
	e.mu.Unlock()

	if sub == nil {
		e.logger.Error("received offer with no subscriber transport, ignoring")
		return
	}

	if err := sub.SetRemoteDescription(sdp); err != nil {
		e.logger.Error("set remote description for offer failed", "error", err)
		return
	}
	answer, err := sub.CreateAnswer()
	if err != nil {
		e.logger.Error("create answer failed", "error", err)
		return
	}
	answer, err = sub.SetLocalDescription(answer)
	if err != nil {
		e.logger.Error("set local description for answer failed", "error", err)
		return
	}
	if err := e.signalClient.SendAnswer(answer); err != nil {
		e.logger.Error("send answer failed", "error", err)
	}
}

func (e *Engine) OnAnswer(sdp domain.SDP) {
	e.mu.Lock()
	pub := e.publisher
	e.mu.Unlock()

	if pub == nil {
		e.logger.Warn("received answer with no publisher transport, ignoring")
		return
	}
	if err := pub.SetRemoteDescription(sdp); err != nil {
		e.logger.Error("set remote description for answer failed", "error", err)
	}
}

func (e *Engine) OnTrickle(c domain.ICECandidate, target domain.SignalTarget) {
	e.mu.Lock()
	var t domain.Transport
	if target == domain.TargetPublisher {
		t = e.publisher
	} else {
		t = e.subscriber
	}
	e.mu.Unlock()

	if t == nil {
		e.logger.Warn("received ICE candidate with no matching transport", "target", target)
		return
	}
	if err := t.AddICECandidate(c); err != nil {
		e.logger.Warn("add ICE candidate failed", "error", err, "target", target)
	}
}

func (e *Engine) OnLeave(l domain.Leave) {
	if !l.CanReconnect {
		e.cleanUp(domain.NetworkDisconnect(domain.NewError(domain.ErrNetwork, "server closed the session")))
		return
	}
	// Recoverable leave: rely on the transport/signal connection-state
	// callback to initiate reconnection.
}

func (e *Engine) OnTokenRefresh(token string) {
	e.mu.Lock()
	e.identity.Token = token
	e.mu.Unlock()
}

func (e *Engine) OnTrackPublished(res domain.TrackPublishedResponse) {
	// The per-cid completer is resolved by the SignalClient itself
	// (signal.Client.resolveTrackCompleter); nothing further to do at the
	// engine level.
}

// --- domain.TransportDelegate ----------------------------------------------

func (e *Engine) OnStateChange(t domain.Transport, state domain.TransportConnectionState) {
	connected := state == domain.TransportConnected

	if t.Primary() {
		e.setCompleter(e.primaryTransportConnected, connected)
	}
	if t.Target() == domain.TargetPublisher {
		e.setCompleter(e.publisherTransportConnected, connected)
	}

	failed := state == domain.TransportDisconnected || state == domain.TransportFailed
	if !failed {
		return
	}

	e.mu.Lock()
	hasPublished := e.hasPublished
	e.mu.Unlock()

	triggersReconnect := t.Primary() || (t.Target() == domain.TargetPublisher && hasPublished)
	if triggersReconnect && e.isConnected() {
		go e.startReconnect()
	}
}

func (e *Engine) OnICECandidate(t domain.Transport, c domain.ICECandidate) {
	if err := e.signalClient.SendCandidate(c, t.Target()); err != nil {
		e.logger.Warn("send ICE candidate failed", "error", err)
	}
}

func (e *Engine) OnTrackAdded(t domain.Transport, track domain.MediaTrack, streams []domain.MediaStream) {
	if t.Target() != domain.TargetSubscriber {
		return
	}
	e.delegates.notifyTrackAdded(track, streams)
}

func (e *Engine) OnTrackRemoved(t domain.Transport, track domain.MediaTrack) {
	if t.Target() != domain.TargetSubscriber {
		return
	}
	e.delegates.notifyTrackRemoved(track)
}

func (e *Engine) OnDataChannel(t domain.Transport, dc domain.DataChannel) {
	if t.Target() != domain.TargetSubscriber {
		return
	}
	e.mu.Lock()
	subscriberPrimary := e.subscriberPrimary
	e.mu.Unlock()
	if !subscriberPrimary {
		return
	}

	switch dc.Label() {
	case "_reliable":
		e.mu.Lock()
		e.dcReliableSub = dc
		e.mu.Unlock()
		dc.OnStateChange(func(s domain.DataChannelState) { e.delegates.notifyDataChannelStateChanged(dc, s) })
		dc.OnMessage(func(b []byte) { e.onDataChannelMessage(b) })
	case "_lossy":
		e.mu.Lock()
		e.dcLossySub = dc
		e.mu.Unlock()
		dc.OnStateChange(func(s domain.DataChannelState) { e.delegates.notifyDataChannelStateChanged(dc, s) })
		dc.OnMessage(func(b []byte) { e.onDataChannelMessage(b) })
	default:
		e.logger.Warn("remote data channel with unknown label", "label", dc.Label())
	}
}

func (e *Engine) OnStats(t domain.Transport, stats domain.Stats) {
	e.delegates.notifyStats(stats, t.Target())
}

// --- data channel events (spec.md §4.8) ------------------------------------

func (e *Engine) onPublisherDataChannelState(r domain.Reliability, dc domain.DataChannel, state domain.DataChannelState) {
	e.delegates.notifyDataChannelStateChanged(dc, state)

	comp := e.publisherReliableDCOpen
	if r == domain.Lossy {
		comp = e.publisherLossyDCOpen
	}
	e.setCompleter(comp, state == domain.DataChannelOpen)
}

func (e *Engine) onDataChannelMessage(data []byte) {
	pkt, err := datapacket.Decode(data)
	if err != nil {
		e.logger.Warn("malformed data packet, dropping", "error", err)
		return
	}

	switch {
	case pkt.Speaker != nil:
		e.delegates.notifySpeakersUpdate(pkt.Speaker.Speakers)
	case pkt.User != nil:
		e.delegates.notifyUserPacket(*pkt.User)
	default:
		// Unknown variant: ignored silently for forward compatibility.
	}
}
