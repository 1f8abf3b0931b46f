package periodic

import (
	"sync"
	"time"
)

// AlarmFacility arms single-shot alarms at an absolute wall-clock
// time. Implementations should source expiry from a clock that keeps
// counting while the platform sleeps and, where the platform supports
// it, wake the platform from sleep at expiry.
type AlarmFacility interface {

	// ArmAt fires fn at the wall-clock time at.
	ArmAt(at time.Time, fn func()) Alarm
}

// Alarm is an outstanding alarm shot.
type Alarm interface {

	// Cancel withdraws the shot. It reports whether the shot was
	// cancelled before firing; false means fn already ran or is
	// running, and on wake-capable implementations an expiry that
	// already triggered the platform's wake path may complete after
	// Cancel returns.
	Cancel() bool
}

// runtimeAlarm is an Alarm over a runtime timer. It keeps the
// absolute-expiry semantics but cannot wake the platform from sleep.
// It backs WallClockAlarms and the Linux fallback path.
type runtimeAlarm struct {
	fn    func()
	timer *time.Timer

	mu    sync.Mutex
	state int // armedWaiting, armedFired or armedCancelled
}

func newRuntimeAlarm(at time.Time, fn func()) *runtimeAlarm {
	a := &runtimeAlarm{fn: fn}
	a.timer = time.AfterFunc(time.Until(at), a.fire)

	return a
}

func (a *runtimeAlarm) fire() {
	a.mu.Lock()
	if a.state != armedWaiting {
		a.mu.Unlock()
		return
	}
	a.state = armedFired
	a.mu.Unlock()

	a.fn()
}

// Cancel implements Alarm.
func (a *runtimeAlarm) Cancel() bool {
	a.timer.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != armedWaiting {
		return false
	}
	a.state = armedCancelled

	return true
}
