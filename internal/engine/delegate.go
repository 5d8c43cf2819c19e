package engine

import (
	"sync"

	"vico_home/sessionengine/internal/domain"
)

// delegateList is a multicast observer list safe to mutate while
// iterating: Add copies the backing slice under lock, notify reads a
// snapshot without holding the lock across delegate calls (spec.md §5's
// "snapshot-on-notify" requirement).
type delegateList struct {
	mu   sync.Mutex
	subs []domain.Delegate
}

func (l *delegateList) Add(d domain.Delegate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := make([]domain.Delegate, len(l.subs)+1)
	copy(next, l.subs)
	next[len(l.subs)] = d
	l.subs = next
}

func (l *delegateList) Remove(d domain.Delegate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := make([]domain.Delegate, 0, len(l.subs))
	for _, s := range l.subs {
		if s != d {
			next = append(next, s)
		}
	}
	l.subs = next
}

func (l *delegateList) snapshot() []domain.Delegate {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.subs
}

func (l *delegateList) notifyConnectionStateChanged(old, new domain.ConnectionState) {
	for _, d := range l.snapshot() {
		d.OnConnectionStateChanged(old, new)
	}
}

func (l *delegateList) notifyDataChannelStateChanged(ch domain.DataChannel, state domain.DataChannelState) {
	for _, d := range l.snapshot() {
		d.OnDataChannelStateChanged(ch, state)
	}
}

func (l *delegateList) notifyTrackAdded(track domain.MediaTrack, streams []domain.MediaStream) {
	for _, d := range l.snapshot() {
		d.OnTrackAdded(track, streams)
	}
}

func (l *delegateList) notifyTrackRemoved(track domain.MediaTrack) {
	for _, d := range l.snapshot() {
		d.OnTrackRemoved(track)
	}
}

func (l *delegateList) notifyUserPacket(p domain.UserPacket) {
	for _, d := range l.snapshot() {
		d.OnUserPacket(p)
	}
}

func (l *delegateList) notifySpeakersUpdate(speakers []domain.Speaker) {
	for _, d := range l.snapshot() {
		d.OnSpeakersUpdate(speakers)
	}
}

func (l *delegateList) notifyStats(stats domain.Stats, target domain.SignalTarget) {
	for _, d := range l.snapshot() {
		d.OnStats(stats, target)
	}
}
