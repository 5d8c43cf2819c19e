package rtctransport

import pion "github.com/pion/webrtc/v4"

// trackAdapter and streamAdapter satisfy domain.MediaTrack/MediaStream.
// pion's OnTrack callback hands us a single TrackRemote with its own
// StreamID, unlike the browser API's separate streams slice — one
// trackAdapter maps to one synthesized single-element stream list.
type trackAdapter struct {
	track *pion.TrackRemote
}

func (t *trackAdapter) ID() string   { return t.track.ID() }
func (t *trackAdapter) Kind() string { return t.track.Kind().String() }

type streamAdapter struct {
	id string
}

func (s *streamAdapter) ID() string { return s.id }
