package engine

import (
	"sync"

	"vico_home/sessionengine/internal/datapacket"
	"vico_home/sessionengine/internal/domain"
)

// Send serializes a UserPacket and dispatches it over the matching
// publisher data channel (spec.md §4.5's send operation).
func (e *Engine) Send(packet domain.UserPacket, reliability domain.Reliability) error {
	if err := e.ensurePublisherConnected(reliability); err != nil {
		return err
	}

	pkt := datapacket.NewUserPacket(reliability, packet)
	data, err := datapacket.Encode(pkt)
	if err != nil {
		return domain.WrapError(domain.ErrState, "encode data packet", err)
	}

	e.mu.Lock()
	var ch domain.DataChannel
	if reliability == domain.Lossy {
		ch = e.dcLossyPub
	} else {
		ch = e.dcReliablePub
	}
	e.mu.Unlock()

	if ch == nil {
		return domain.NewError(domain.ErrState, "Data channel is nil")
	}

	if err := ch.Send(data); err != nil {
		return domain.WrapError(domain.ErrWebRTC, "DataChannel.sendData returned false", err)
	}
	return nil
}

// ensurePublisherConnected waits for the publisher transport and the
// relevant data channel to be ready, per spec.md §4.5 step 1: when the
// subscriber is primary the publisher may still be negotiating, so both
// waits run concurrently and both must complete; when the publisher is
// already primary it is assumed connected and this is a no-op.
func (e *Engine) ensurePublisherConnected(reliability domain.Reliability) error {
	e.mu.Lock()
	subscriberPrimary := e.subscriberPrimary
	pub := e.publisher
	e.mu.Unlock()

	if !subscriberPrimary {
		return nil
	}

	if pub != nil {
		state := pub.ConnectionState()
		if state != domain.TransportConnected && state != domain.TransportConnecting {
			e.publisherShouldNegotiate()
		}
	}

	dcCompleter := e.publisherReliableDCOpen
	if reliability == domain.Lossy {
		dcCompleter = e.publisherLossyDCOpen
	}

	var wg sync.WaitGroup
	var transportErr, dcErr error
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, transportErr = e.publisherTransportConnected.Wait(
			e.timeouts.TransportState,
			timeoutErr(domain.ErrTransportTimedOut, "publisher transport didn't connect"),
		)
	}()
	go func() {
		defer wg.Done()
		_, dcErr = dcCompleter.Wait(
			e.timeouts.PublisherDataChannelOpen,
			timeoutErr(domain.ErrTransportTimedOut, "publisher data channel didn't open"),
		)
	}()
	wg.Wait()

	if transportErr != nil {
		return transportErr
	}
	return dcErr
}

// AddTrackResult pairs a caller-supplied populator's result with the
// TrackInfo the server assigned.
type AddTrackResult[R any] struct {
	Populated R
	Track     domain.TrackInfo
}

// SendAndWaitAddTrackRequest reserves a per-cid completer, runs populate
// (the caller's local track setup), sends the AddTrack request, and
// waits for the server's TrackPublishedResponse (spec.md §4.5). A free
// generic function rather than a method, since Go methods cannot carry
// their own type parameters.
func SendAndWaitAddTrackRequest[R any](e *Engine, req domain.AddTrackRequest, populate func() (R, error)) (AddTrackResult[R], error) {
	var zero AddTrackResult[R]

	comp := e.signalClient.PrepareAddTrackCompleter(req.CID)

	populated, err := populate()
	if err != nil {
		return zero, err
	}

	if err := e.signalClient.SendAddTrack(req); err != nil {
		return zero, err
	}

	info, err := comp.Wait(
		e.timeouts.Publish,
		timeoutErr(domain.ErrEngineTimedOut, "server didn't respond to addTrack request"),
	)
	if err != nil {
		return zero, err
	}

	return AddTrackResult[R]{Populated: populated, Track: info}, nil
}
