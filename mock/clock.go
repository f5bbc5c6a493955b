package mock

import (
	"time"

	"github.com/jsdzhang/occhat"
)

// Interface compliance checks.
var (
	_ occhat.Clock = (*Clock)(nil)
	_ occhat.Timer = (*Timer)(nil)
)

// Clock is a test double for occhat.Clock.
// Set AfterFuncFn before calling AfterFunc.
type Clock struct {
	AfterFuncFn func(d time.Duration, f func()) occhat.Timer
}

// AfterFunc delegates to AfterFuncFn.
func (c *Clock) AfterFunc(d time.Duration, f func()) occhat.Timer {
	return c.AfterFuncFn(d, f)
}

// Timer is a test double for occhat.Timer.
// An unset StopFn reports true, matching an unfired timer.
type Timer struct {
	StopFn func() bool
}

// Stop delegates to StopFn when set.
func (t *Timer) Stop() bool {
	if t.StopFn == nil {
		return true
	}
	return t.StopFn()
}
