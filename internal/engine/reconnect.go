package engine

import (
	"context"
	"errors"

	"vico_home/sessionengine/internal/completer"
	"vico_home/sessionengine/internal/domain"
	"vico_home/sessionengine/internal/retry"
)

// startReconnect runs the quick-then-full reconnection protocol
// (spec.md §4.6). Invoked from event handlers on their own goroutine;
// guards ensure at most one reconnection sequence runs at a time.
func (e *Engine) startReconnect() {
	if e.closed.Load() {
		return
	}

	e.mu.Lock()
	if e.state.IsReconnecting() {
		e.mu.Unlock()
		e.logger.Debug("reconnect already in progress")
		return
	}
	if !e.state.IsConnected() {
		e.mu.Unlock()
		e.logger.Debug("reconnect requested while not connected, ignoring")
		return
	}
	identity := e.identity
	pub, sub := e.publisher, e.subscriber
	if !identity.IsSet() || pub == nil || sub == nil {
		e.mu.Unlock()
		e.logger.Warn("reconnect aborted: missing url/token/transports")
		return
	}
	// Enter the reconnecting state under the same lock as the guards, so
	// a concurrent caller sees IsReconnecting and backs off.
	old := e.state
	next := domain.Connecting(domain.ModeReconnect, domain.ReconnectQuick)
	e.state = next
	e.mu.Unlock()

	e.logger.Info("state transition", "from", old, "to", next)
	e.delegates.notifyConnectionStateChanged(old, next)

	ctx := context.Background()

	_, err := retry.Do(3, e.timeouts.QuickReconnectRetryDelay, func(triesLeft int, lastErr error) bool {
		return e.isReconnecting()
	}, func() (unit, error) {
		return unit{}, e.quickReconnectSequence(ctx, identity)
	})

	if err == nil {
		e.finishReconnect(domain.ReconnectQuick)
		return
	}

	if !e.isReconnecting() {
		// Aborted by a user-initiated disconnect mid-sequence; cleanUp
		// already ran on that path.
		return
	}

	e.setState(domain.Connecting(domain.ModeReconnect, domain.ReconnectFull))
	if err := e.fullReconnectSequence(ctx, identity); err != nil {
		if errors.Is(err, completer.ErrReset) {
			e.cleanUp(domain.CancelledDisconnect(domain.WrapError(domain.ErrCancelled, "reconnect cancelled", err)))
			return
		}
		e.cleanUp(domain.NetworkDisconnect(err))
		return
	}
	e.finishReconnect(domain.ReconnectFull)
}

func (e *Engine) finishReconnect(mode domain.ReconnectMode) {
	e.setState(domain.Connected(domain.ModeReconnect, mode))
}

// checkShouldContinue is the abort barrier invoked between reconnect
// stages (spec.md §4.6).
func (e *Engine) checkShouldContinue() error {
	if !e.isReconnecting() {
		return domain.NewError(domain.ErrState, "Reconnection has been aborted")
	}
	return nil
}

// quickReconnectSequence resumes the existing session (spec.md §4.6).
func (e *Engine) quickReconnectSequence(ctx context.Context, identity domain.SessionIdentity) error {
	e.mu.Lock()
	rtcConfig := e.rtcConfig
	e.mu.Unlock()

	if err := e.signalClient.Connect(ctx, identity.URL, identity.Token, rtcConfig, domain.SignalReconnectQuick); err != nil {
		return err
	}
	// Connect queues inbound frames; the transports already exist, so
	// release them right away.
	e.signalClient.ResumeResponseQueue()

	if err := e.checkShouldContinue(); err != nil {
		return err
	}

	if _, err := e.primaryTransportConnected.Wait(
		e.timeouts.TransportState,
		timeoutErr(domain.ErrTransportTimedOut, "primary transport didn't reconnect"),
	); err != nil {
		return err
	}

	if err := e.checkShouldContinue(); err != nil {
		return err
	}

	e.mu.Lock()
	sub := e.subscriber
	pub := e.publisher
	hasPublished := e.hasPublished
	e.mu.Unlock()

	if sub != nil {
		sub.SetRestartingICE(true)
	}

	if hasPublished && pub != nil {
		if err := pub.CreateAndSendOffer(true); err != nil {
			return err
		}

		if err := e.checkShouldContinue(); err != nil {
			return err
		}

		if _, err := e.publisherTransportConnected.Wait(
			e.timeouts.TransportState,
			timeoutErr(domain.ErrTransportTimedOut, "publisher didn't reconnect"),
		); err != nil {
			return err
		}
	}

	e.signalClient.SendQueuedRequests()
	return nil
}

// fullReconnectSequence tears down all RTC state and re-runs the
// initial connect sequence against the same url/token (spec.md §4.6).
func (e *Engine) fullReconnectSequence(ctx context.Context, identity domain.SessionIdentity) error {
	e.cleanUpRTC()
	return e.fullConnectSequence(ctx, identity.URL, identity.Token)
}

func (e *Engine) onPathChanged() {
	if e.closed.Load() {
		return
	}
	e.logger.Info("network path changed")
	if e.isConnected() {
		go e.startReconnect()
	}
}
