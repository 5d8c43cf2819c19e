package domain

import "time"

// ConnectOptions is the immutable-by-default snapshot of RTC configuration
// the caller passes to Engine.Connect (spec.md §3/§6). RTC.ICEServers is
// the one part the engine itself extends: each join response's server
// list is appended to the engine's own copy of RTC; the caller's value is
// not modified.
type ConnectOptions struct {
	RTC RTCConfiguration

	// AutoSubscribe mirrors the teacher's transceiver direction choices
	// (AddTransceivers in webrtc/peer.go): whether the subscriber side
	// should expect inbound media by default.
	AutoSubscribe bool
}

// RoomOptions carries room-level behavior toggles (spec.md §3); only
// ReportStats affects the engine directly.
type RoomOptions struct {
	ReportStats bool
}

// EngineConfig is the immutable-after-construction snapshot the Engine is
// built from; Connect/Room fields may only be overridden by the engine
// itself (token rotation, ICE-server refresh), never by a second caller
// reaching into a live engine.
type EngineConfig struct {
	Connect ConnectOptions
	Room    RoomOptions
}

// Timeouts collects the five well-known deadlines from spec.md §5/§6.
// defaultQuickReconnectRetry is an inter-attempt gap, not itself a wait
// deadline.
type Timeouts struct {
	JoinResponse             time.Duration
	TransportState           time.Duration
	PublisherDataChannelOpen time.Duration
	Publish                  time.Duration
	QuickReconnectRetryDelay time.Duration
}

// DefaultTimeouts returns 10s for each of the join, transport,
// data-channel-open and publish waits, and a 500ms gap between quick
// reconnect attempts.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		JoinResponse:             10 * time.Second,
		TransportState:           10 * time.Second,
		PublisherDataChannelOpen: 10 * time.Second,
		Publish:                  10 * time.Second,
		QuickReconnectRetryDelay: 500 * time.Millisecond,
	}
}
