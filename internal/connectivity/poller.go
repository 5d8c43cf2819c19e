// Package connectivity implements domain.ConnectivityListener. The real
// OS network-path monitor is an external collaborator (spec.md §1); this
// package ships a best-effort stand-in that polls the local interface
// address set and fires its callback when it changes — built the
// teacher's way, as a single background goroutine guarded by a closed
// channel, the same shape as internal/signal.Client.pingLoop.
package connectivity

import (
	"net"
	"sort"
	"sync"
	"time"
)

// Poller is a domain.ConnectivityListener that detects path switches by
// polling net.InterfaceAddrs() on an interval.
type Poller struct {
	interval time.Duration

	mu        sync.Mutex
	callbacks []func()
	lastAddrs []string

	closeOnce sync.Once
	closed    chan struct{}
	started   bool
}

// New creates a Poller with the given poll interval. A zero interval
// defaults to 2 seconds.
func New(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{
		interval: interval,
		closed:   make(chan struct{}),
	}
}

// OnPathChanged registers a callback invoked whenever the local interface
// address set changes. Multiple callbacks may be registered; all are
// called on each detected change.
func (p *Poller) OnPathChanged(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, f)
}

// Start begins polling in the background. Safe to call once; subsequent
// calls are no-ops.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.lastAddrs = currentAddrs()
	p.mu.Unlock()

	go p.run()
}

// Stop halts the background poller. Idempotent.
func (p *Poller) Stop() {
	p.closeOnce.Do(func() { close(p.closed) })
}

func (p *Poller) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.closed:
			return
		case <-ticker.C:
			addrs := currentAddrs()
			p.mu.Lock()
			changed := !equalAddrs(p.lastAddrs, addrs)
			if changed {
				p.lastAddrs = addrs
			}
			callbacks := append([]func(){}, p.callbacks...)
			p.mu.Unlock()

			if changed {
				for _, cb := range callbacks {
					cb()
				}
			}
		}
	}
}

func currentAddrs() []string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	sort.Strings(out)
	return out
}

func equalAddrs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
