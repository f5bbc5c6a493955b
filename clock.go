package occhat

import "time"

// Clock schedules deferred work. The session uses it for heartbeat and
// reconnect timers; tests substitute a manual implementation to advance
// virtual time deterministically.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop cancels the timer. It reports whether the callback was
	// prevented from running, matching time.Timer semantics.
	Stop() bool
}

// NewClock returns a Clock backed by the runtime's real timers.
func NewClock() Clock { return realClock{} }

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

type realTimer struct{ t *time.Timer }

func (rt realTimer) Stop() bool { return rt.t.Stop() }

// Interface compliance checks.
var (
	_ Clock = realClock{}
	_ Timer = realTimer{}
)
