package engine

import (
	"context"
	"errors"
	"fmt"

	"vico_home/sessionengine/internal/completer"
	"vico_home/sessionengine/internal/domain"
)

// Connect brings the session up from any prior state (spec.md §4.5).
func (e *Engine) Connect(ctx context.Context, url, token string) error {
	e.mu.Lock()
	connectOpts := e.connectOpts
	roomOpts := e.roomOpts
	e.mu.Unlock()
	return e.ConnectWithOptions(ctx, url, token, &connectOpts, &roomOpts)
}

// ConnectWithOptions applies optional overrides before connecting.
func (e *Engine) ConnectWithOptions(ctx context.Context, url, token string, connectOpts *domain.ConnectOptions, roomOpts *domain.RoomOptions) error {
	e.mu.Lock()
	if connectOpts != nil {
		e.connectOpts = *connectOpts
		e.rtcConfig = connectOpts.RTC
	}
	if roomOpts != nil {
		e.roomOpts = *roomOpts
	}
	e.mu.Unlock()

	// The engine may be invoked on a live session; reach a known idle
	// state first.
	e.cleanUp(domain.Disconnected(domain.DisconnectSDK))

	e.setState(domain.Connecting(domain.ModeNormal, domain.ReconnectQuick))

	if err := e.fullConnectSequence(ctx, url, token); err != nil {
		if errors.Is(err, completer.ErrReset) {
			cancelErr := domain.WrapError(domain.ErrCancelled, "connect cancelled", err)
			e.cleanUp(domain.CancelledDisconnect(cancelErr))
			return cancelErr
		}
		e.cleanUp(domain.NetworkDisconnect(err))
		return err
	}

	e.mu.Lock()
	e.identity = domain.SessionIdentity{URL: url, Token: token}
	e.mu.Unlock()
	e.setState(domain.Connected(domain.ModeNormal, domain.ReconnectQuick))
	return nil
}

// fullConnectSequence runs the join handshake and transport
// configuration (spec.md §4.5).
func (e *Engine) fullConnectSequence(ctx context.Context, url, token string) error {
	e.stopwatch.reset()

	e.mu.Lock()
	rtcConfig := e.rtcConfig
	e.mu.Unlock()

	if err := e.signalClient.Connect(ctx, url, token, rtcConfig, domain.SignalFresh); err != nil {
		return fmt.Errorf("signal connect: %w", err)
	}

	joinResp, err := e.signalClient.JoinResponseCompleter().Wait(
		e.timeouts.JoinResponse,
		timeoutErr(domain.ErrSignalTimedOut, "failed to receive join response"),
	)
	if err != nil {
		return err
	}
	e.stopwatch.split("signal")

	if err := e.configureTransports(joinResp); err != nil {
		return err
	}

	e.signalClient.ResumeResponseQueue()

	if _, err := e.primaryTransportConnected.Wait(
		e.timeouts.TransportState,
		timeoutErr(domain.ErrTransportTimedOut, "primary transport didn't connect"),
	); err != nil {
		return err
	}
	e.stopwatch.split("engine")

	return nil
}

// configureTransports builds the publisher/subscriber transports and
// the two publisher data channels (spec.md §4.5). Idempotent: a no-op
// if both transports already exist.
func (e *Engine) configureTransports(joinResp domain.JoinResponse) error {
	e.mu.Lock()
	if e.publisher != nil && e.subscriber != nil {
		e.mu.Unlock()
		return nil
	}
	e.subscriberPrimary = joinResp.SubscriberPrimary
	e.rtcConfig.ICEServers = mergeICEServers(e.rtcConfig.ICEServers, joinResp.ICEServers)
	rtcConfig := e.rtcConfig
	subscriberPrimary := e.subscriberPrimary
	reportStats := e.roomOpts.ReportStats
	e.mu.Unlock()

	subscriber, err := e.transportFactory(rtcConfig, domain.TargetSubscriber, subscriberPrimary, reportStats, e)
	if err != nil {
		return fmt.Errorf("construct subscriber transport: %w", err)
	}

	publisher, err := e.transportFactory(rtcConfig, domain.TargetPublisher, !subscriberPrimary, reportStats, e)
	if err != nil {
		_ = subscriber.Close()
		return fmt.Errorf("construct publisher transport: %w", err)
	}
	publisher.OnOffer(func(sdp domain.SDP) {
		if err := e.signalClient.SendOffer(sdp); err != nil {
			e.logger.Warn("send offer failed", "error", err)
		}
	})

	dcReliable, err := publisher.DataChannel("_reliable", domain.DataChannelConfig{Ordered: true, MaxRetransmits: -1})
	if err != nil {
		return fmt.Errorf("create reliable data channel: %w", err)
	}
	dcReliable.OnStateChange(func(s domain.DataChannelState) { e.onPublisherDataChannelState(domain.Reliable, dcReliable, s) })
	dcReliable.OnMessage(func(b []byte) { e.onDataChannelMessage(b) })

	dcLossy, err := publisher.DataChannel("_lossy", domain.DataChannelConfig{Ordered: true, MaxRetransmits: 0})
	if err != nil {
		return fmt.Errorf("create lossy data channel: %w", err)
	}
	dcLossy.OnStateChange(func(s domain.DataChannelState) { e.onPublisherDataChannelState(domain.Lossy, dcLossy, s) })
	dcLossy.OnMessage(func(b []byte) { e.onDataChannelMessage(b) })

	e.mu.Lock()
	e.publisher = publisher
	e.subscriber = subscriber
	e.dcReliablePub = dcReliable
	e.dcLossyPub = dcLossy
	e.mu.Unlock()

	if !subscriberPrimary {
		e.publisherShouldNegotiate()
	}
	return nil
}

// publisherShouldNegotiate triggers the publisher's first offer. No-op
// if the publisher is absent (spec.md §4.5).
func (e *Engine) publisherShouldNegotiate() {
	e.mu.Lock()
	e.hasPublished = true
	pub := e.publisher
	e.mu.Unlock()

	if pub == nil {
		return
	}
	pub.Negotiate()
}

// cleanUp is the unconditional teardown path (spec.md §4.5).
func (e *Engine) cleanUp(reason domain.DisconnectReason) {
	e.mu.Lock()
	e.identity = domain.SessionIdentity{}
	e.mu.Unlock()

	e.setState(domain.Disconnect(reason))

	e.signalClient.CleanUp(reason)

	e.primaryTransportConnected.Reset()
	e.publisherTransportConnected.Reset()
	e.publisherReliableDCOpen.Reset()
	e.publisherLossyDCOpen.Reset()

	e.stopwatch.reset()

	e.cleanUpRTC()
}

// cleanUpRTC closes all data channels and transports and clears the
// corresponding fields (spec.md §4.5).
func (e *Engine) cleanUpRTC() {
	e.mu.Lock()
	channels := []domain.DataChannel{e.dcReliablePub, e.dcLossyPub, e.dcReliableSub, e.dcLossySub}
	e.dcReliablePub, e.dcLossyPub, e.dcReliableSub, e.dcLossySub = nil, nil, nil, nil
	publisher, subscriber := e.publisher, e.subscriber
	e.publisher, e.subscriber = nil, nil
	e.hasPublished = false
	e.mu.Unlock()

	for _, ch := range channels {
		if ch == nil {
			continue
		}
		if err := ch.Close(); err != nil {
			e.logger.Warn("close data channel failed", "error", err)
		}
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			e.logger.Warn("close publisher transport failed", "error", err)
		}
	}
	if subscriber != nil {
		if err := subscriber.Close(); err != nil {
			e.logger.Warn("close subscriber transport failed", "error", err)
		}
	}
}

// mergeICEServers prepends the statically configured servers to the
// ones the server returned in the join response, matching the teacher's
// additive treatment of ICE configuration rather than a wholesale
// replace.
func mergeICEServers(configured, fromJoin []domain.ICEServer) []domain.ICEServer {
	out := make([]domain.ICEServer, 0, len(configured)+len(fromJoin))
	out = append(out, configured...)
	out = append(out, fromJoin...)
	return out
}
