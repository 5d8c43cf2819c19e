// Package engine implements the session engine's state machine: it
// brings up a signaling channel and two WebRTC transports (publisher and
// subscriber), tracks connection state through connect, steady-state
// message exchange, reconnection, and teardown, and fans lifecycle
// events out to registered delegates.
//
// Field mutation discipline: the teacher and the rest of the pack favor
// a mutex-guarded struct over a hand-rolled actor, so that is the Go
// rendering used here — every Engine field is guarded by mu, held only
// across the read/write itself and released before any blocking call
// (signaling I/O, completer waits, transport construction), so delegate
// callbacks arriving on their own goroutines never deadlock against a
// connect or reconnect sequence in flight.
package engine

import (
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"vico_home/sessionengine/internal/completer"
	"vico_home/sessionengine/internal/domain"
)

type unit = struct{}

// TransportFactory constructs one Transport. The engine calls it once
// for the subscriber and once for the publisher during
// configureTransports, passing the RTC configuration merged with the
// join response's ICE server list.
type TransportFactory func(cfg domain.RTCConfiguration, target domain.SignalTarget, primary bool, reportStats bool, delegate domain.TransportDelegate) (domain.Transport, error)

// Engine is the concrete domain session engine.
type Engine struct {
	logger           *slog.Logger
	timeouts         domain.Timeouts
	signalClient     domain.SignalClient
	connectivity     domain.ConnectivityListener
	transportFactory TransportFactory

	delegates delegateList

	primaryTransportConnected   *completer.Completer[unit]
	publisherTransportConnected *completer.Completer[unit]
	publisherReliableDCOpen     *completer.Completer[unit]
	publisherLossyDCOpen        *completer.Completer[unit]

	stopwatch *Stopwatch

	// closed is read from reconnect-triggering goroutines (onPathChanged,
	// transport/signal state-change callbacks) without taking mu, so a
	// shutdown in flight on another goroutine is visible immediately
	// rather than after that goroutine happens to touch mu. Grounded on
	// the same closed atomic.Bool field in the LiveKit Go engine.
	closed atomic.Bool

	mu                sync.Mutex
	connectOpts       domain.ConnectOptions
	roomOpts          domain.RoomOptions
	rtcConfig         domain.RTCConfiguration
	state             domain.ConnectionState
	identity          domain.SessionIdentity
	publisher         domain.Transport
	subscriber        domain.Transport
	subscriberPrimary bool
	dcReliablePub     domain.DataChannel
	dcLossyPub        domain.DataChannel
	dcReliableSub     domain.DataChannel
	dcLossySub        domain.DataChannel
	hasPublished      bool
}

// New constructs an Engine. signalClient is owned for the engine's
// lifetime; connectivity may be nil to disable path-switch-triggered
// reconnection.
func New(cfg domain.EngineConfig, timeouts domain.Timeouts, signalClient domain.SignalClient, connectivity domain.ConnectivityListener, factory TransportFactory, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine")

	e := &Engine{
		logger:           logger,
		timeouts:         timeouts,
		signalClient:     signalClient,
		connectivity:     connectivity,
		transportFactory: factory,

		primaryTransportConnected:   completer.New[unit](),
		publisherTransportConnected: completer.New[unit](),
		publisherReliableDCOpen:     completer.New[unit](),
		publisherLossyDCOpen:        completer.New[unit](),

		connectOpts: cfg.Connect,
		roomOpts:    cfg.Room,
		rtcConfig:   cfg.Connect.RTC,
		state:       domain.Disconnect(domain.Disconnected(domain.DisconnectSDK)),
	}
	e.stopwatch = newStopwatch(logger)

	signalClient.SetDelegate(e)
	if connectivity != nil {
		connectivity.OnPathChanged(e.onPathChanged)
		connectivity.Start()
	}

	return e
}

func (e *Engine) AddDelegate(d domain.Delegate)    { e.delegates.Add(d) }
func (e *Engine) RemoveDelegate(d domain.Delegate) { e.delegates.Remove(d) }

// State returns a snapshot of the current connection state.
func (e *Engine) State() domain.ConnectionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// setState applies a new state under lock and, per spec.md §3's
// invariant ("any transition notifies delegates exactly once"), fires
// the delegate callback exactly when the deep comparison differs —
// tag-only changes that still carry a different Mode/ReconnectMode/
// Reason (e.g. Reconnect(Quick) → Reconnect(Full)) must still notify.
func (e *Engine) setState(next domain.ConnectionState) {
	e.mu.Lock()
	old := e.state
	changed := !old.DeepEqual(next)
	e.state = next
	e.mu.Unlock()

	if changed {
		e.logger.Info("state transition", "from", old, "to", next)
		e.delegates.notifyConnectionStateChanged(old, next)
	}
}

func (e *Engine) isReconnecting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.IsReconnecting()
}

func (e *Engine) isConnected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.IsConnected()
}

// Close stops the connectivity listener and tears down any live
// session. Intended for final shutdown of the Engine itself, not a
// reconnectable disconnect.
func (e *Engine) Close() {
	e.closed.Store(true)
	if e.connectivity != nil {
		e.connectivity.Stop()
	}
	e.cleanUp(domain.Disconnected(domain.DisconnectUser))
}

func (e *Engine) setCompleter(c *completer.Completer[unit], ready bool) {
	// Open question resolved per spec.md §9: a non-ready state sets the
	// value to "None", which is a no-op — only a ready state resolves the
	// completer, and only an explicit Reset (via cleanUp) cancels waiters.
	if !ready {
		return
	}
	v := unit{}
	c.Set(&v)
}

func timeoutErr(kind domain.ErrorKind, msg string) error {
	return domain.NewError(kind, msg)
}
