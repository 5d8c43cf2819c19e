package rtctransport

import (
	pion "github.com/pion/webrtc/v4"

	"vico_home/sessionengine/internal/domain"
)

// dataChannel adapts a pion DataChannel to domain.DataChannel, the same
// callback-registration shape the teacher already uses directly against
// *pion.DataChannel (dc.OnOpen/OnMessage/OnClose in webrtc/peer.go).
type dataChannel struct {
	dc *pion.DataChannel
}

func wrapDataChannel(dc *pion.DataChannel) *dataChannel {
	return &dataChannel{dc: dc}
}

func (d *dataChannel) Label() string { return d.dc.Label() }

func (d *dataChannel) State() domain.DataChannelState {
	return fromPionDataChannelState(d.dc.ReadyState())
}

func (d *dataChannel) Send(data []byte) error {
	return d.dc.Send(data)
}

func (d *dataChannel) Close() error {
	return d.dc.Close()
}

func (d *dataChannel) OnStateChange(f func(domain.DataChannelState)) {
	d.dc.OnOpen(func() { f(domain.DataChannelOpen) })
	d.dc.OnClose(func() { f(domain.DataChannelClosed) })
}

func (d *dataChannel) OnMessage(f func([]byte)) {
	d.dc.OnMessage(func(msg pion.DataChannelMessage) {
		f(msg.Data)
	})
}

func fromPionDataChannelState(s pion.DataChannelState) domain.DataChannelState {
	switch s {
	case pion.DataChannelStateConnecting:
		return domain.DataChannelConnecting
	case pion.DataChannelStateOpen:
		return domain.DataChannelOpen
	case pion.DataChannelStateClosing:
		return domain.DataChannelClosing
	case pion.DataChannelStateClosed:
		return domain.DataChannelClosed
	default:
		return domain.DataChannelNew
	}
}
