// Package domain holds the data model and consumed-interface contracts
// shared by the session engine and its collaborators: connection state,
// wire message shapes, and the SignalClient/Transport/ConnectivityListener
// ports the engine is built against.
package domain

// ReconnectMode distinguishes a quick resume (same session, ICE restart)
// from a full reconnect (tear down and rejoin from scratch).
type ReconnectMode int

const (
	ReconnectQuick ReconnectMode = iota
	ReconnectFull
)

func (m ReconnectMode) String() string {
	if m == ReconnectFull {
		return "full"
	}
	return "quick"
}

// ConnectMode is the mode tag carried by Connecting/Connected states.
type ConnectMode int

const (
	ModeNormal ConnectMode = iota
	ModeReconnect
)

// DisconnectKind classifies why the session went to Disconnected.
type DisconnectKind int

const (
	DisconnectSDK DisconnectKind = iota
	DisconnectNetwork
	DisconnectUser
	DisconnectServerLeave
	DisconnectCancelled
)

func (k DisconnectKind) String() string {
	switch k {
	case DisconnectNetwork:
		return "network"
	case DisconnectUser:
		return "user"
	case DisconnectServerLeave:
		return "server_leave"
	case DisconnectCancelled:
		return "cancelled"
	default:
		return "sdk"
	}
}

// DisconnectReason carries the kind plus, for Network, the error that
// triggered it.
type DisconnectReason struct {
	Kind DisconnectKind
	Err  error
}

func Disconnected(kind DisconnectKind) DisconnectReason { return DisconnectReason{Kind: kind} }

func NetworkDisconnect(err error) DisconnectReason {
	return DisconnectReason{Kind: DisconnectNetwork, Err: err}
}

// CancelledDisconnect marks a connect/reconnect sequence that was cut
// short by a reset (e.g. a concurrent Close) rather than by a network or
// protocol failure, so it is not misreported as DisconnectNetwork.
func CancelledDisconnect(err error) DisconnectReason {
	return DisconnectReason{Kind: DisconnectCancelled, Err: err}
}

// StateTag is the coarse phase of the connection, ignoring associated
// values. Gating checks ("are we already connected?") compare on StateTag
// alone; change-detection for delegate notification compares the full
// ConnectionState, including Mode/ReconnectMode/Reason.
type StateTag int

const (
	StateDisconnected StateTag = iota
	StateConnecting
	StateConnected
)

func (t StateTag) String() string {
	switch t {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ConnectionState is a tagged variant: Disconnected(reason) |
// Connecting(mode) | Connected(mode), where mode is Normal or
// Reconnect(Quick|Full). Equal does tag-only comparison for gating;
// DeepEqual additionally compares the associated Mode/ReconnectMode/Reason,
// used to decide whether a transition is worth a delegate notification.
type ConnectionState struct {
	Tag           StateTag
	Mode          ConnectMode
	ReconnectMode ReconnectMode
	Reason        DisconnectReason
}

func Disconnect(reason DisconnectReason) ConnectionState {
	return ConnectionState{Tag: StateDisconnected, Reason: reason}
}

func Connecting(mode ConnectMode, rm ReconnectMode) ConnectionState {
	return ConnectionState{Tag: StateConnecting, Mode: mode, ReconnectMode: rm}
}

func Connected(mode ConnectMode, rm ReconnectMode) ConnectionState {
	return ConnectionState{Tag: StateConnected, Mode: mode, ReconnectMode: rm}
}

// Equal is the gating comparison: tag only.
func (s ConnectionState) Equal(o ConnectionState) bool {
	return s.Tag == o.Tag
}

// DeepEqual additionally compares associated values, used to decide
// whether a state change is reportable to delegates.
func (s ConnectionState) DeepEqual(o ConnectionState) bool {
	if s.Tag != o.Tag {
		return false
	}
	switch s.Tag {
	case StateConnecting, StateConnected:
		return s.Mode == o.Mode && s.ReconnectMode == o.ReconnectMode
	default:
		return s.Reason.Kind == o.Reason.Kind
	}
}

// IsConnected reports the gating check "session is up".
func (s ConnectionState) IsConnected() bool { return s.Tag == StateConnected }

// IsReconnecting reports the gating check used by checkShouldContinue and
// by the retry driver's predicate during startReconnect.
func (s ConnectionState) IsReconnecting() bool {
	return s.Tag == StateConnecting && s.Mode == ModeReconnect
}

func (s ConnectionState) String() string {
	switch s.Tag {
	case StateConnecting:
		if s.Mode == ModeReconnect {
			return "connecting(reconnect:" + s.ReconnectMode.String() + ")"
		}
		return "connecting(normal)"
	case StateConnected:
		if s.Mode == ModeReconnect {
			return "connected(reconnect:" + s.ReconnectMode.String() + ")"
		}
		return "connected(normal)"
	default:
		return "disconnected(" + s.Reason.Kind.String() + ")"
	}
}

// Reliability selects the data channel (and wire Kind tag) a packet travels
// on.
type Reliability int

const (
	Reliable Reliability = iota
	Lossy
)

func (r Reliability) String() string {
	if r == Lossy {
		return "lossy"
	}
	return "reliable"
}
