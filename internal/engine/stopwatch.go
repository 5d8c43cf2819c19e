package engine

import (
	"log/slog"
	"sync"
	"time"
)

// Stopwatch records labeled time splits across a connect/reconnect
// sequence for observability, mirroring the teacher's practice of
// logging a duration at each signaling/transport milestone (rather than
// one end-to-end timer) so a slow join versus a slow transport can be
// told apart after the fact.
type Stopwatch struct {
	mu     sync.Mutex
	start  time.Time
	splits map[string]time.Duration
	logger *slog.Logger
}

func newStopwatch(logger *slog.Logger) *Stopwatch {
	return &Stopwatch{
		start:  timeNow(),
		splits: make(map[string]time.Duration),
		logger: logger,
	}
}

func (s *Stopwatch) split(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := timeNow().Sub(s.start)
	s.splits[label] = d
	if s.logger != nil {
		s.logger.Debug("split", "label", label, "elapsed", d)
	}
}

func (s *Stopwatch) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = timeNow()
	s.splits = make(map[string]time.Duration)
}

// timeNow is a thin indirection so tests can't accidentally depend on
// wall-clock skew across slow CI machines; kept as time.Now in
// production.
var timeNow = time.Now
