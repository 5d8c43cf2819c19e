package domain

// SignalTarget names which peer connection an ICE candidate or trickle
// message belongs to.
type SignalTarget int

const (
	TargetPublisher SignalTarget = iota
	TargetSubscriber
)

func (t SignalTarget) String() string {
	if t == TargetSubscriber {
		return "subscriber"
	}
	return "publisher"
}

// ICEServer mirrors the teacher's domain.ICEServer, generalized to the
// plain STUN/TURN shape pion/webrtc expects.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// JoinResponse is the server's reply to a fresh connect, carrying the ICE
// server list and the subscriberPrimary flag that decides transport
// primacy and lazy-negotiation behavior.
type JoinResponse struct {
	ICEServers        []ICEServer `json:"iceServers"`
	SubscriberPrimary bool        `json:"subscriberPrimary"`
}

// SDP is a generic offer/answer payload, used for both Offer and Answer
// frames.
type SDP struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// Trickle carries one locally- or remotely-generated ICE candidate,
// tagged with which transport it belongs to.
type Trickle struct {
	Candidate ICECandidate `json:"candidate"`
	Target    SignalTarget `json:"target"`
}

// ICECandidate mirrors pion/webrtc's ICECandidateInit without importing
// the webrtc package from domain — the consumed-interface layer stays
// transport-library agnostic.
type ICECandidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// Leave is the server's session-termination frame. CanReconnect decides
// whether the engine treats this as recoverable (rely on the transport's
// own Disconnected callback to drive reconnection) or fatal (hard
// cleanUp, no retry).
type Leave struct {
	CanReconnect bool `json:"canReconnect"`
	Reason       int  `json:"reason,omitempty"`
}

// TrackSource/TrackKind are opaque to the engine; it only needs to round
// trip them through the add-track request/response pair.
type AddTrackRequest struct {
	CID    string `json:"cid"`
	Name   string `json:"name"`
	Kind   string `json:"type"`
	Source string `json:"source"`
}

// TrackInfo is the server's description of a published track, paired with
// the request's cid.
type TrackInfo struct {
	SID string `json:"sid"`
	CID string `json:"cid"`
}

type TrackPublishedResponse struct {
	CID   string    `json:"cid"`
	Track TrackInfo `json:"track"`
}

// RefreshToken carries a rotated signaling token.
type RefreshToken struct {
	Token string `json:"token"`
}

// SpeakerUpdate and UserPacket are the two data-channel payload variants
// DataPacket.Value can hold. Unknown variants on the wire are ignored for
// forward compatibility (spec.md §4.8/§6).
type SpeakerUpdate struct {
	Speakers []Speaker `json:"speakers"`
}

type Speaker struct {
	ParticipantSID string  `json:"sid"`
	Level          float32 `json:"level"`
	Active         bool    `json:"active"`
}

type UserPacket struct {
	ParticipantIdentity string `json:"participantIdentity,omitempty"`
	Payload             []byte `json:"payload"`
	Topic               string `json:"topic,omitempty"`
}
