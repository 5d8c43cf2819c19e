// Package signal implements domain.SignalClient over a gorilla/websocket
// connection, generalizing the teacher's internal/signal.Client (a single
// *websocket.Conn, a readLoop/pingLoop goroutine pair, mutex-guarded
// sendJSON) from its one fixed AUTH/JOIN_LIVE/TRANSMIT envelope into the
// richer join/offer/answer/trickle/leave/add-track/refresh-token frame
// set spec.md §4.3 and §6 describe.
package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vico_home/sessionengine/internal/completer"
	"vico_home/sessionengine/internal/domain"
)

// frame is the wire envelope every inbound/outbound message uses: a
// method tag plus a JSON-encoded body, the same envelope-with-a-type-tag
// shape as the teacher's message struct, generalized from one flat
// struct with every field optional to a tag-plus-opaque-body pair so new
// frame kinds don't require touching every existing one.
type frame struct {
	Method string          `json:"method"`
	Body   json.RawMessage `json:"body,omitempty"`
}

func encodeFrame(method string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s body: %w", method, err)
	}
	return json.Marshal(frame{Method: method, Body: raw})
}

const (
	methodJoin           = "join"
	methodOffer          = "offer"
	methodAnswer         = "answer"
	methodTrickle        = "trickle"
	methodLeave          = "leave"
	methodAddTrack       = "add_track"
	methodTrackPublished = "track_published"
	methodRefreshToken   = "refresh_token"
)

const pingInterval = 15 * time.Second

// Client is a gorilla/websocket backed domain.SignalClient.
type Client struct {
	logger *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed chan struct{}

	delegate domain.SignalDelegate

	joinCompleter *completer.Completer[domain.JoinResponse]

	queueMu     sync.Mutex
	queued      [][]byte
	queueing    bool
	trackCompMu sync.Mutex
	trackComps  map[string]*completer.Completer[domain.TrackInfo]
}

// New constructs a Client. Connect must be called before any Send*
// method.
func New(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		logger:        logger.With("component", "signal"),
		joinCompleter: completer.New[domain.JoinResponse](),
		trackComps:    make(map[string]*completer.Completer[domain.TrackInfo]),
	}
}

func (c *Client) SetDelegate(d domain.SignalDelegate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delegate = d
}

// Connect dials the signaling websocket. mode is only logged: in every
// mode the JoinResponse frame is delivered at once and every other
// inbound frame is queued until ResumeResponseQueue is called.
func (c *Client) Connect(ctx context.Context, rawURL, token string, opts domain.RTCConfiguration, mode domain.SignalConnectMode) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse signal url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()

	c.logger.Info("connecting", "url", u.Host, "mode", mode)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = make(chan struct{})
	c.mu.Unlock()

	c.joinCompleter.Reset()
	c.queueMu.Lock()
	c.queued = nil
	c.queueing = true
	c.queueMu.Unlock()

	go c.readLoop()
	go c.pingLoop()

	return nil
}

// CleanUp tears down the socket. reason is accepted for symmetry with
// the engine's cleanUp path and future diagnostics; the socket itself
// carries no reason field on close.
func (c *Client) CleanUp(reason domain.DisconnectReason) {
	c.mu.Lock()
	conn := c.conn
	closed := c.closed
	c.conn = nil
	c.mu.Unlock()

	if closed != nil {
		select {
		case <-closed:
		default:
			close(closed)
		}
	}
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Client) JoinResponseCompleter() *completer.Completer[domain.JoinResponse] {
	return c.joinCompleter
}

// ResumeResponseQueue releases every frame buffered since Connect,
// delivering them to the delegate in arrival order, then switches to
// immediate delivery. Mirrors the engine needing a deterministic point
// — after transports are configured — at which backlog catches up.
func (c *Client) ResumeResponseQueue() {
	c.queueMu.Lock()
	queued := c.queued
	c.queued = nil
	c.queueing = false
	c.queueMu.Unlock()

	for _, raw := range queued {
		c.dispatch(raw)
	}
}

func (c *Client) send(method string, body any) error {
	data, err := encodeFrame(method, body)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return domain.NewError(domain.ErrState, "signal client not connected")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Debug("send", "method", method)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return domain.WrapError(domain.ErrNetwork, "write signal frame", err)
	}
	return nil
}

func (c *Client) SendOffer(sdp domain.SDP) error  { return c.send(methodOffer, sdp) }
func (c *Client) SendAnswer(sdp domain.SDP) error { return c.send(methodAnswer, sdp) }

func (c *Client) SendCandidate(ic domain.ICECandidate, target domain.SignalTarget) error {
	return c.send(methodTrickle, domain.Trickle{Candidate: ic, Target: target})
}

func (c *Client) SendAddTrack(req domain.AddTrackRequest) error {
	return c.send(methodAddTrack, req)
}

// SendQueuedRequests is a no-op by design: the current implementation
// sends AddTrack/offer/candidate requests synchronously rather than
// buffering them client-side, so there is nothing to flush. Kept on the
// interface because a future outbound-queueing signal client (e.g. one
// that batches trickle candidates) needs the hook without an interface
// change.
func (c *Client) SendQueuedRequests() {}

func (c *Client) SendLeave() {
	if err := c.send(methodLeave, domain.Leave{CanReconnect: false}); err != nil {
		c.logger.Warn("send leave failed", "error", err)
	}
}

// PrepareAddTrackCompleter registers (or returns the existing) completer
// for a pending AddTrack request keyed by its client-generated cid, so
// the eventual TrackPublishedResponse frame can resolve the right
// waiter even when multiple tracks are being published concurrently.
func (c *Client) PrepareAddTrackCompleter(cid string) *completer.Completer[domain.TrackInfo] {
	c.trackCompMu.Lock()
	defer c.trackCompMu.Unlock()
	if existing, ok := c.trackComps[cid]; ok {
		return existing
	}
	comp := completer.New[domain.TrackInfo]()
	c.trackComps[cid] = comp
	return comp
}

func (c *Client) resolveTrackCompleter(res domain.TrackPublishedResponse) {
	c.trackCompMu.Lock()
	comp, ok := c.trackComps[res.CID]
	if ok {
		delete(c.trackComps, res.CID)
	}
	c.trackCompMu.Unlock()
	if ok {
		comp.Set(&res.Track)
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn("ping failed", "error", err)
				c.notifyDisconnect(domain.NetworkDisconnect(err))
				return
			}
		}
	}
}

func (c *Client) readLoop() {
	c.mu.Lock()
	conn := c.conn
	closed := c.closed
	c.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-closed:
				return
			default:
			}
			c.logger.Warn("read error", "error", err)
			c.notifyDisconnect(domain.NetworkDisconnect(err))
			return
		}

		c.queueMu.Lock()
		if c.queueing {
			// The join frame bypasses the queue: the engine waits for it
			// before it calls ResumeResponseQueue.
			var f frame
			if json.Unmarshal(data, &f) != nil || f.Method != methodJoin {
				c.queued = append(c.queued, data)
				c.queueMu.Unlock()
				continue
			}
		}
		c.queueMu.Unlock()

		c.dispatch(data)
	}
}

func (c *Client) notifyDisconnect(reason domain.DisconnectReason) {
	c.mu.Lock()
	d := c.delegate
	c.mu.Unlock()
	if d != nil {
		d.OnConnectionStateChange(domain.SignalStateDisconnectedNetwork)
	}
	_ = reason
}

func (c *Client) dispatch(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Warn("malformed frame", "error", err)
		return
	}

	c.mu.Lock()
	d := c.delegate
	c.mu.Unlock()

	switch f.Method {
	case methodJoin:
		var jr domain.JoinResponse
		if err := json.Unmarshal(f.Body, &jr); err != nil {
			c.logger.Warn("malformed join response", "error", err)
			return
		}
		c.joinCompleter.Set(&jr)
	case methodOffer:
		var sdp domain.SDP
		if json.Unmarshal(f.Body, &sdp) == nil && d != nil {
			d.OnOffer(sdp)
		}
	case methodAnswer:
		var sdp domain.SDP
		if json.Unmarshal(f.Body, &sdp) == nil && d != nil {
			d.OnAnswer(sdp)
		}
	case methodTrickle:
		var t domain.Trickle
		if json.Unmarshal(f.Body, &t) == nil && d != nil {
			d.OnTrickle(t.Candidate, t.Target)
		}
	case methodLeave:
		var l domain.Leave
		if json.Unmarshal(f.Body, &l) == nil && d != nil {
			d.OnLeave(l)
		}
	case methodRefreshToken:
		var rt domain.RefreshToken
		if json.Unmarshal(f.Body, &rt) == nil && d != nil {
			d.OnTokenRefresh(rt.Token)
		}
	case methodTrackPublished:
		var tp domain.TrackPublishedResponse
		if json.Unmarshal(f.Body, &tp) == nil {
			c.resolveTrackCompleter(tp)
			if d != nil {
				d.OnTrackPublished(tp)
			}
		}
	default:
		c.logger.Debug("unknown frame", "method", f.Method)
	}
}
