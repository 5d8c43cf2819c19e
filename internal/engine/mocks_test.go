package engine

import (
	"context"
	"sync"

	"vico_home/sessionengine/internal/completer"
	"vico_home/sessionengine/internal/domain"
)

// fakeSignalClient is a minimal domain.SignalClient double: Connect just
// records the call; tests resolve joinCompleter directly to simulate
// the server's join frame arriving.
type fakeSignalClient struct {
	mu sync.Mutex

	delegate domain.SignalDelegate

	joinCompleter *completer.Completer[domain.JoinResponse]
	trackComps    map[string]*completer.Completer[domain.TrackInfo]

	connectCalls []domain.SignalConnectMode
	offers       []domain.SDP
	answers      []domain.SDP
	candidates   []domain.ICECandidate

	connectErr error
}

func newFakeSignalClient() *fakeSignalClient {
	return &fakeSignalClient{
		joinCompleter: completer.New[domain.JoinResponse](),
		trackComps:    make(map[string]*completer.Completer[domain.TrackInfo]),
	}
}

func (f *fakeSignalClient) SetDelegate(d domain.SignalDelegate) { f.delegate = d }

func (f *fakeSignalClient) Connect(ctx context.Context, url, token string, opts domain.RTCConfiguration, mode domain.SignalConnectMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls = append(f.connectCalls, mode)
	return f.connectErr
}

func (f *fakeSignalClient) CleanUp(reason domain.DisconnectReason) {}

func (f *fakeSignalClient) JoinResponseCompleter() *completer.Completer[domain.JoinResponse] {
	return f.joinCompleter
}

func (f *fakeSignalClient) ResumeResponseQueue() {}

func (f *fakeSignalClient) SendOffer(sdp domain.SDP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers = append(f.offers, sdp)
	return nil
}

func (f *fakeSignalClient) SendAnswer(sdp domain.SDP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, sdp)
	return nil
}

func (f *fakeSignalClient) SendCandidate(c domain.ICECandidate, target domain.SignalTarget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates = append(f.candidates, c)
	return nil
}

func (f *fakeSignalClient) SendAddTrack(req domain.AddTrackRequest) error { return nil }
func (f *fakeSignalClient) SendQueuedRequests()                          {}
func (f *fakeSignalClient) SendLeave()                                   {}

func (f *fakeSignalClient) PrepareAddTrackCompleter(cid string) *completer.Completer[domain.TrackInfo] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.trackComps[cid]; ok {
		return c
	}
	c := completer.New[domain.TrackInfo]()
	f.trackComps[cid] = c
	return c
}

// fakeTransport is a domain.Transport double whose connection state is
// driven directly by the test via setState, which notifies the delegate
// synchronously the way a real pion callback would on its own goroutine.
type fakeTransport struct {
	mu sync.Mutex

	target   domain.SignalTarget
	primary  bool
	delegate domain.TransportDelegate

	state         domain.TransportConnectionState
	restartingICE bool
	closed        bool

	offersSent  int
	channels    map[string]*fakeDataChannel
	onOfferFunc func(domain.SDP)
}

func newFakeTransport(target domain.SignalTarget, primary bool, delegate domain.TransportDelegate) *fakeTransport {
	return &fakeTransport{
		target:   target,
		primary:  primary,
		delegate: delegate,
		state:    domain.TransportNew,
		channels: make(map[string]*fakeDataChannel),
	}
}

func (t *fakeTransport) Target() domain.SignalTarget { return t.target }
func (t *fakeTransport) Primary() bool               { return t.primary }

func (t *fakeTransport) Negotiate() {
	t.mu.Lock()
	t.offersSent++
	t.mu.Unlock()
}

func (t *fakeTransport) CreateAndSendOffer(iceRestart bool) error {
	t.mu.Lock()
	t.offersSent++
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) SetRemoteDescription(sdp domain.SDP) error { return nil }
func (t *fakeTransport) CreateAnswer() (domain.SDP, error) {
	return domain.SDP{Type: "answer", SDP: "mock-answer"}, nil
}
func (t *fakeTransport) SetLocalDescription(sdp domain.SDP) (domain.SDP, error) { return sdp, nil }
func (t *fakeTransport) AddICECandidate(c domain.ICECandidate) error           { return nil }

func (t *fakeTransport) DataChannel(label string, cfg domain.DataChannelConfig) (domain.DataChannel, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dc := &fakeDataChannel{label: label, cfg: cfg}
	t.channels[label] = dc
	return dc, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == domain.TransportConnected
}

func (t *fakeTransport) ConnectionState() domain.TransportConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *fakeTransport) RestartingICE() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.restartingICE
}

func (t *fakeTransport) SetRestartingICE(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.restartingICE = v
}

func (t *fakeTransport) OnOffer(f func(domain.SDP)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOfferFunc = f
}

// setState drives a simulated state change through to the delegate.
func (t *fakeTransport) setState(s domain.TransportConnectionState) {
	t.mu.Lock()
	t.state = s
	d := t.delegate
	t.mu.Unlock()
	if d != nil {
		d.OnStateChange(t, s)
	}
}

type fakeDataChannel struct {
	mu    sync.Mutex
	label string
	cfg   domain.DataChannelConfig
	state domain.DataChannelState
	sent  [][]byte

	onState   func(domain.DataChannelState)
	onMessage func([]byte)
}

func (d *fakeDataChannel) Label() string                  { return d.label }
func (d *fakeDataChannel) State() domain.DataChannelState { return d.state }

func (d *fakeDataChannel) Send(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, data)
	return nil
}

func (d *fakeDataChannel) Close() error { return nil }

func (d *fakeDataChannel) OnStateChange(f func(domain.DataChannelState)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onState = f
}

func (d *fakeDataChannel) OnMessage(f func([]byte)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onMessage = f
}

func (d *fakeDataChannel) setState(s domain.DataChannelState) {
	d.mu.Lock()
	d.state = s
	f := d.onState
	d.mu.Unlock()
	if f != nil {
		f(s)
	}
}

// fakeConnectivity is a no-op domain.ConnectivityListener: tests drive
// path changes by calling the registered callback directly.
type fakeConnectivity struct {
	mu  sync.Mutex
	cbs []func()
}

func (c *fakeConnectivity) Start() {}
func (c *fakeConnectivity) Stop()  {}
func (c *fakeConnectivity) OnPathChanged(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cbs = append(c.cbs, f)
}

// fakeDelegate records every notification it receives.
type fakeDelegate struct {
	mu          sync.Mutex
	states      []domain.ConnectionState
	dcStates    []domain.DataChannelState
	userPackets []domain.UserPacket
	speakers    [][]domain.Speaker
}

func (d *fakeDelegate) OnConnectionStateChanged(old, new domain.ConnectionState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states = append(d.states, new)
}

func (d *fakeDelegate) OnDataChannelStateChanged(ch domain.DataChannel, state domain.DataChannelState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dcStates = append(d.dcStates, state)
}

func (d *fakeDelegate) OnTrackAdded(track domain.MediaTrack, streams []domain.MediaStream) {}
func (d *fakeDelegate) OnTrackRemoved(track domain.MediaTrack)                             {}

func (d *fakeDelegate) OnUserPacket(p domain.UserPacket) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.userPackets = append(d.userPackets, p)
}

func (d *fakeDelegate) OnSpeakersUpdate(speakers []domain.Speaker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speakers = append(d.speakers, speakers)
}

func (d *fakeDelegate) OnStats(stats domain.Stats, target domain.SignalTarget) {}

func (d *fakeDelegate) snapshot() []domain.ConnectionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.ConnectionState, len(d.states))
	copy(out, d.states)
	return out
}
