package rtctransport

import "sync"

// The WebRTC queue (spec.md §5): a dedicated worker goroutine that is the
// only place peer-connection factory calls run. Callers dispatch
// synchronously onto it and block for the result, so they never observe
// the factory call running on their own goroutine (the SDK queue, in the
// engine's case). This mirrors the native-library resource discipline the
// spec calls out — pion/webrtc needs no equivalent to native SSL init,
// but the single entry point is kept so any future native dependency has
// exactly one place to hook in.
var (
	globalInit sync.Once
	queueOnce  sync.Once
	queueCh    chan func()
)

func ensureGlobalInit() {
	globalInit.Do(func() {
		// process-wide peer-connection factory singleton init point.
	})
}

func ensureQueue() {
	queueOnce.Do(func() {
		queueCh = make(chan func(), 64)
		go func() {
			for fn := range queueCh {
				fn()
			}
		}()
	})
}

type queueResult[T any] struct {
	v   T
	err error
}

// runOnWebRTCQueue dispatches fn onto the WebRTC queue and blocks for its
// result, the Go rendering of "dispatch synchronously onto the WebRTC
// queue and return to the caller on the SDK queue" (spec.md §5).
func runOnWebRTCQueue[T any](fn func() (T, error)) (T, error) {
	ensureGlobalInit()
	ensureQueue()

	resCh := make(chan queueResult[T], 1)
	queueCh <- func() {
		v, err := fn()
		resCh <- queueResult[T]{v, err}
	}
	r := <-resCh
	return r.v, r.err
}
