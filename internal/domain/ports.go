package domain

import (
	"context"

	"vico_home/sessionengine/internal/completer"
)

// DataChannelState mirrors the pion/webrtc DataChannel lifecycle the
// teacher already logs against in webrtc/peer.go's dc.OnOpen/OnClose
// handlers, generalized into an explicit enum the engine can switch on.
type DataChannelState int

const (
	DataChannelNew DataChannelState = iota
	DataChannelConnecting
	DataChannelOpen
	DataChannelClosing
	DataChannelClosed
)

func (s DataChannelState) String() string {
	switch s {
	case DataChannelConnecting:
		return "connecting"
	case DataChannelOpen:
		return "open"
	case DataChannelClosing:
		return "closing"
	case DataChannelClosed:
		return "closed"
	default:
		return "new"
	}
}

// TransportConnectionState mirrors pion/webrtc's PeerConnectionState.
type TransportConnectionState int

const (
	TransportNew TransportConnectionState = iota
	TransportConnecting
	TransportConnected
	TransportDisconnected
	TransportFailed
	TransportClosed
)

func (s TransportConnectionState) String() string {
	switch s {
	case TransportConnecting:
		return "connecting"
	case TransportConnected:
		return "connected"
	case TransportDisconnected:
		return "disconnected"
	case TransportFailed:
		return "failed"
	case TransportClosed:
		return "closed"
	default:
		return "new"
	}
}

// DataChannel is the consumed surface of a pion DataChannel: send, close,
// and callback registration, matching the teacher's dc.OnOpen/OnMessage/
// OnClose registration style.
type DataChannel interface {
	Label() string
	State() DataChannelState
	Send(data []byte) error
	Close() error
	OnStateChange(func(DataChannelState))
	OnMessage(func([]byte))
}

// DataChannelConfig mirrors pion's DataChannelInit, restricted to the two
// fields the engine's publisher channels need (spec.md §4.6/§6): ordered
// delivery and a retransmit bound (-1 == unlimited, 0 == none).
type DataChannelConfig struct {
	Ordered        bool
	MaxRetransmits int
}

// MediaTrack and MediaStream are thin, library-agnostic stand-ins for
// pion's TrackRemote/webrtc media stream — the engine only needs to
// forward identity to delegates (spec.md §1: media pipelines are out of
// scope beyond this construction contract).
type MediaTrack interface {
	ID() string
	Kind() string
}

type MediaStream interface {
	ID() string
}

// Stats is an opaque per-transport stats snapshot; formatting and
// aggregation are out of scope (spec.md §1).
type Stats map[string]any

// TransportDelegate is the callback surface a Transport construction call
// is given (spec.md §4.4).
type TransportDelegate interface {
	OnStateChange(t Transport, state TransportConnectionState)
	OnICECandidate(t Transport, c ICECandidate)
	OnTrackAdded(t Transport, track MediaTrack, streams []MediaStream)
	OnTrackRemoved(t Transport, track MediaTrack)
	OnDataChannel(t Transport, dc DataChannel)
	OnStats(t Transport, stats Stats)
}

// Transport wraps one peer connection (spec.md §4.4).
type Transport interface {
	Target() SignalTarget
	Primary() bool

	Negotiate()
	CreateAndSendOffer(iceRestart bool) error
	SetRemoteDescription(sdp SDP) error
	CreateAnswer() (SDP, error)
	SetLocalDescription(sdp SDP) (SDP, error)
	AddICECandidate(c ICECandidate) error

	DataChannel(label string, cfg DataChannelConfig) (DataChannel, error)

	Close() error
	IsConnected() bool
	ConnectionState() TransportConnectionState

	RestartingICE() bool
	SetRestartingICE(bool)

	OnOffer(func(SDP))
}

// SignalConnectMode is the mode hint passed to SignalClient.Connect.
type SignalConnectMode int

const (
	SignalFresh SignalConnectMode = iota
	SignalReconnectQuick
	SignalReconnectFull
)

// SignalConnectionState is the coarse state the signaling socket reports
// to its delegate.
type SignalConnectionState int

const (
	SignalStateConnected SignalConnectionState = iota
	SignalStateDisconnectedNetwork
	SignalStateDisconnectedOther
)

// SignalDelegate is the callback surface SignalClient reports to
// (spec.md §4.3).
type SignalDelegate interface {
	OnConnectionStateChange(state SignalConnectionState)
	OnOffer(sdp SDP)
	OnAnswer(sdp SDP)
	OnTrickle(c ICECandidate, target SignalTarget)
	OnLeave(l Leave)
	OnTokenRefresh(token string)
	OnTrackPublished(res TrackPublishedResponse)
}

// SignalClient is the bidirectional signaling channel the engine drives
// (spec.md §4.3). After Connect, no inbound frame other than the
// JoinResponse is delivered until ResumeResponseQueue is called.
type SignalClient interface {
	SetDelegate(d SignalDelegate)

	Connect(ctx context.Context, url, token string, opts RTCConfiguration, mode SignalConnectMode) error
	CleanUp(reason DisconnectReason)

	JoinResponseCompleter() *completer.Completer[JoinResponse]
	ResumeResponseQueue()

	SendOffer(sdp SDP) error
	SendAnswer(sdp SDP) error
	SendCandidate(c ICECandidate, target SignalTarget) error
	SendAddTrack(req AddTrackRequest) error
	SendQueuedRequests()
	SendLeave()

	PrepareAddTrackCompleter(cid string) *completer.Completer[TrackInfo]
}

// ConnectivityListener emits OS network-path-change events (spec.md §4,
// component C5). The real implementation is an external collaborator;
// this module ships a best-effort local-interface poller as a stand-in
// (spec.md §1 scopes the OS integration itself out, not the contract).
type ConnectivityListener interface {
	Start()
	Stop()
	OnPathChanged(func())
}

// Delegate is the engine's produced notification surface (spec.md §6).
type Delegate interface {
	OnConnectionStateChanged(old, new ConnectionState)
	OnDataChannelStateChanged(channel DataChannel, state DataChannelState)
	OnTrackAdded(track MediaTrack, streams []MediaStream)
	OnTrackRemoved(track MediaTrack)
	OnUserPacket(packet UserPacket)
	OnSpeakersUpdate(speakers []Speaker)
	OnStats(stats Stats, target SignalTarget)
}

// RTCConfiguration is the subset of WebRTC peer-connection configuration
// the engine cares about: the ICE server list, which the engine extends
// with the servers each join response carries.
type RTCConfiguration struct {
	ICEServers []ICEServer
}
